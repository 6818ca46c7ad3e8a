package streaming

import (
	"io"

	"github.com/edgerender/corestream/pkg/corectx"
)

// SinkState is the Sink's position in the shell-first lifecycle.
type SinkState int

const (
	StateInitial SinkState = iota
	StateShellSent
	StateCompleted
)

// Writer is the minimal sink a Sink writes bytes to: any io.Writer
// works, so a host can plug in an http.ResponseWriter, a
// network/http2 stream, or a bytes.Buffer in tests. This generalizes
// the reference's generic-over-futures::Sink<Vec<u8>> shape to Go's
// io.Writer, the idiomatic equivalent for a push-bytes-downstream
// target.
type Writer interface {
	io.Writer
}

// Sink is the platform-controlled streaming sink: it enforces the
// shell-first invariant (no section may be written before the shell,
// nothing may be written after completion) and records timing marks
// as bytes go out.
//
// Grounded line-by-line on
// original_source/crates/edge-streaming/src/sink.rs (read in full).
type Sink struct {
	w             Writer
	state         SinkState
	timing        *corectx.TimingContext
	sectionsSent  []string
}

// NewSink wraps w with shell-first enforcement, recording marks on
// timing (typically the RequestContext's own TimingContext).
func NewSink(w Writer, timing *corectx.TimingContext) *Sink {
	return &Sink{w: w, timing: timing}
}

// SendShell writes the shell HTML. Must be called exactly once,
// before any section.
func (s *Sink) SendShell(html string) error {
	if s.state != StateInitial {
		return shellAlreadySentErr()
	}

	s.timing.Mark("shell_start")
	if _, err := s.w.Write([]byte(html)); err != nil {
		return writeErr(err.Error())
	}
	s.timing.Mark("shell_sent")
	s.state = StateShellSent
	return nil
}

// SendSection writes one named section's HTML. The shell must already
// have been sent; sections may be sent in any order thereafter.
func (s *Sink) SendSection(name, html string) error {
	if s.state == StateInitial {
		return shellNotSentErr()
	}
	if s.state == StateCompleted {
		return sinkCompletedErr()
	}

	s.timing.MarkSectionStart(name)
	if _, err := s.w.Write([]byte(html)); err != nil {
		return writeErr(err.Error())
	}
	s.timing.MarkSectionSent(name)
	s.sectionsSent = append(s.sectionsSent, name)
	return nil
}

// SendRaw writes arbitrary bytes (e.g. a reorder script), subject to
// the same shell-first/not-completed constraints as SendSection.
func (s *Sink) SendRaw(b []byte) error {
	if s.state == StateInitial {
		return shellNotSentErr()
	}
	if s.state == StateCompleted {
		return sinkCompletedErr()
	}
	if _, err := s.w.Write(b); err != nil {
		return writeErr(err.Error())
	}
	return nil
}

// Complete marks the response finished and stamps the "complete"
// timing mark.
func (s *Sink) Complete() error {
	s.state = StateCompleted
	s.timing.Mark("complete")
	return nil
}

// SectionsSent returns the names of sections written so far, in the
// order they were sent.
func (s *Sink) SectionsSent() []string {
	return append([]string(nil), s.sectionsSent...)
}

// Phase reports the Sink's current lifecycle phase for observability.
func (s *Sink) Phase() corectx.LifecyclePhase {
	switch s.state {
	case StateInitial:
		return corectx.LifecyclePhase{Kind: corectx.PhaseStart}
	case StateShellSent:
		if len(s.sectionsSent) == 0 {
			return corectx.LifecyclePhase{Kind: corectx.PhaseShellSent}
		}
		return corectx.LifecyclePhase{Kind: corectx.PhaseSectionSent, Section: s.sectionsSent[len(s.sectionsSent)-1]}
	default:
		return corectx.LifecyclePhase{Kind: corectx.PhaseCompletion}
	}
}

// Timing returns the TimingContext the Sink is recording marks on.
func (s *Sink) Timing() *corectx.TimingContext {
	return s.timing
}
