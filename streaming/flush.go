package streaming

// FlushPolicy controls when buffered bytes are pushed to the
// underlying transport.
//
// Grounded on original_source/crates/edge-streaming/src/flush.rs (read
// in full).
type FlushPolicy int

const (
	// FlushAfterShell flushes once, right after the shell is sent, then
	// never again (the transport's own buffering takes over).
	FlushAfterShell FlushPolicy = iota
	// FlushAfterEachSection flushes after every section write, trading
	// throughput for lower time-to-visible-content per section.
	FlushAfterEachSection
	// FlushManual never flushes automatically; the caller decides.
	FlushManual
)

func (p FlushPolicy) flushAfterShell() bool {
	return p == FlushAfterShell || p == FlushAfterEachSection
}

func (p FlushPolicy) flushAfterSection() bool {
	return p == FlushAfterEachSection
}

// FlushController tracks buffered bytes against a policy and a
// maximum buffer size, deciding when a flush is due.
type FlushController struct {
	policy      FlushPolicy
	pending     int
	maxBuffer   int
	shellFlushed bool
}

// NewFlushController creates a controller under policy with a given
// max buffered byte count before a flush is forced regardless of
// policy.
func NewFlushController(policy FlushPolicy, maxBuffer int) *FlushController {
	return &FlushController{policy: policy, maxBuffer: maxBuffer}
}

// AddBytes records n more buffered bytes.
func (f *FlushController) AddBytes(n int) {
	f.pending += n
}

// ShouldFlushAfterShell reports whether the shell write should be
// followed by an immediate flush.
func (f *FlushController) ShouldFlushAfterShell() bool {
	if !f.shellFlushed && f.policy.flushAfterShell() {
		return true
	}
	return f.maxBuffer > 0 && f.pending >= f.maxBuffer
}

// ShouldFlushAfterSection reports whether the most recent section
// write should be followed by an immediate flush.
func (f *FlushController) ShouldFlushAfterSection() bool {
	if f.policy.flushAfterSection() {
		return true
	}
	return f.maxBuffer > 0 && f.pending >= f.maxBuffer
}

// Reset clears pending byte count, called after an actual flush.
func (f *FlushController) Reset() {
	f.pending = 0
	f.shellFlushed = true
}

// Policy returns the controller's configured FlushPolicy.
func (f *FlushController) Policy() FlushPolicy {
	return f.policy
}

// Pending returns the currently buffered byte count.
func (f *FlushController) Pending() int {
	return f.pending
}
