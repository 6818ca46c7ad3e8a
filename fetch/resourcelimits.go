package fetch

import (
	"fmt"

	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

// ResourceLimits configures the per-request ceilings the
// ResourceTracker enforces. Defaults and presets are grounded directly
// on original_source/crates/edge-security/src/limits.rs.
type ResourceLimits struct {
	MaxResponseBytes       uint64
	MaxRequestBytes        uint64
	MaxConcurrentFetches   uint32
	MaxTotalFetches        uint32
	MaxFetchResponseBytes  uint64
	MaxTotalFetchBytes     uint64
	MaxResponseHeaders     uint32
	MaxHeaderValueBytes    uint32
	MaxURLLength           uint32
	RateLimitRPS           *float64
	RateLimitBurst         *int
}

// DefaultResourceLimits matches the reference Default impl.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		MaxResponseBytes:      10 * 1024 * 1024,
		MaxRequestBytes:       1 * 1024 * 1024,
		MaxConcurrentFetches:  10,
		MaxTotalFetches:       50,
		MaxFetchResponseBytes: 5 * 1024 * 1024,
		MaxTotalFetchBytes:    50 * 1024 * 1024,
		MaxResponseHeaders:    100,
		MaxHeaderValueBytes:   8 * 1024,
		MaxURLLength:          2048,
	}
}

// StrictResourceLimits is a preset for untrusted workloads.
func StrictResourceLimits() ResourceLimits {
	rps := 10.0
	burst := 20
	return ResourceLimits{
		MaxResponseBytes:      1 * 1024 * 1024,
		MaxRequestBytes:       256 * 1024,
		MaxConcurrentFetches:  3,
		MaxTotalFetches:       10,
		MaxFetchResponseBytes: 512 * 1024,
		MaxTotalFetchBytes:    5 * 1024 * 1024,
		MaxResponseHeaders:    50,
		MaxHeaderValueBytes:   4 * 1024,
		MaxURLLength:          1024,
		RateLimitRPS:          &rps,
		RateLimitBurst:        &burst,
	}
}

// DevelopmentResourceLimits is a permissive preset for local dev.
func DevelopmentResourceLimits() ResourceLimits {
	return ResourceLimits{
		MaxResponseBytes:      100 * 1024 * 1024,
		MaxRequestBytes:       10 * 1024 * 1024,
		MaxConcurrentFetches:  50,
		MaxTotalFetches:       200,
		MaxFetchResponseBytes: 50 * 1024 * 1024,
		MaxTotalFetchBytes:    500 * 1024 * 1024,
		MaxResponseHeaders:    500,
		MaxHeaderValueBytes:   64 * 1024,
		MaxURLLength:          8192,
	}
}

// Validate checks the limits are internally consistent.
func (l ResourceLimits) Validate() error {
	if l.MaxResponseBytes == 0 {
		return fmt.Errorf("max_response_bytes cannot be 0")
	}
	if l.MaxConcurrentFetches == 0 {
		return fmt.Errorf("max_concurrent_fetches cannot be 0")
	}
	if l.MaxFetchResponseBytes > l.MaxTotalFetchBytes {
		return fmt.Errorf("max_fetch_response_bytes cannot exceed max_total_fetch_bytes")
	}
	return nil
}

// LimitsErrorKind discriminates the resource-violation enum spec.md
// §4.5 names exactly.
type LimitsErrorKind int

const (
	ResponseSizeExceeded LimitsErrorKind = iota
	RequestSizeExceeded
	ConcurrentFetchExceeded
	TotalFetchExceeded
	FetchResponseSizeExceeded
	TotalFetchBytesExceeded
	TooManyHeaders
	HeaderValueTooLarge
	UrlTooLong
	RateLimitExceeded
	HostNotAllowed
	SchemeNotAllowed
	PortNotAllowed
)

// LimitsError reports a resource ceiling being exceeded.
type LimitsError struct {
	Kind  LimitsErrorKind
	Used  uint64
	Limit uint64
}

func (e *LimitsError) Error() string {
	switch e.Kind {
	case ResponseSizeExceeded:
		return fmt.Sprintf("response size exceeded: %d/%d bytes", e.Used, e.Limit)
	case RequestSizeExceeded:
		return fmt.Sprintf("request size exceeded: %d/%d bytes", e.Used, e.Limit)
	case ConcurrentFetchExceeded:
		return fmt.Sprintf("concurrent fetch limit exceeded: %d/%d", e.Used, e.Limit)
	case TotalFetchExceeded:
		return fmt.Sprintf("total fetch limit exceeded: %d/%d", e.Used, e.Limit)
	case FetchResponseSizeExceeded:
		return fmt.Sprintf("fetch response size exceeded: %d/%d bytes", e.Used, e.Limit)
	case TotalFetchBytesExceeded:
		return fmt.Sprintf("total fetch bytes exceeded: %d/%d bytes", e.Used, e.Limit)
	case TooManyHeaders:
		return fmt.Sprintf("too many response headers: %d/%d", e.Used, e.Limit)
	case HeaderValueTooLarge:
		return fmt.Sprintf("header value too large: %d/%d bytes", e.Used, e.Limit)
	case UrlTooLong:
		return fmt.Sprintf("url too long: %d/%d characters", e.Used, e.Limit)
	case RateLimitExceeded:
		return "rate limit exceeded"
	case HostNotAllowed:
		return "host not allowed"
	case SchemeNotAllowed:
		return "scheme not allowed"
	case PortNotAllowed:
		return "port not allowed"
	default:
		return "resource limit exceeded"
	}
}

func limitErr(kind LimitsErrorKind, used, limit uint64) *LimitsError {
	return &LimitsError{Kind: kind, Used: used, Limit: limit}
}

// ResourceTracker is a per-request object tracking resource usage
// against ResourceLimits. All counters are atomic so the fetch client
// can update them from concurrently fanned-out fetches.
//
// Grounded directly on original_source/crates/edge-security/src/
// limits.rs's ResourceTracker (read in full) — NOT on sandbox.rs,
// whose SandboxViolation enum models WASM process isolation
// (memory/fd/filesystem), a different concern from the HTTP
// fetch/response accounting this type performs.
type ResourceTracker struct {
	responseBytes     atomic.Uint64
	requestBytes      atomic.Uint64
	concurrentFetches atomic.Int64
	totalFetches      atomic.Int64
	totalFetchBytes   atomic.Uint64
	headerCount       atomic.Int64
}

func NewResourceTracker() *ResourceTracker {
	return &ResourceTracker{}
}

// AddResponseBytes records outgoing response bytes and returns the new
// running total.
func (t *ResourceTracker) AddResponseBytes(n uint64) uint64 {
	return t.responseBytes.Add(n)
}

func (t *ResourceTracker) ResponseBytes() uint64 { return t.responseBytes.Load() }

func (t *ResourceTracker) CheckResponseSize(limits ResourceLimits) error {
	used := t.ResponseBytes()
	if used > limits.MaxResponseBytes {
		return limitErr(ResponseSizeExceeded, used, limits.MaxResponseBytes)
	}
	return nil
}

func (t *ResourceTracker) AddRequestBytes(n uint64) uint64 {
	return t.requestBytes.Add(n)
}

func (t *ResourceTracker) CheckRequestSize(limits ResourceLimits) error {
	used := t.requestBytes.Load()
	if used > limits.MaxRequestBytes {
		return limitErr(RequestSizeExceeded, used, limits.MaxRequestBytes)
	}
	return nil
}

// FetchGuard is returned by StartFetch; releasing it (always via
// defer) decrements the concurrent-fetch counter on every exit path.
type FetchGuard struct {
	tracker  *ResourceTracker
	released atomic.Bool
}

// Release decrements the concurrency counter. Safe to call more than
// once; only the first call has effect.
func (g *FetchGuard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.tracker.concurrentFetches.Add(-1)
	}
}

// StartFetch increments the concurrent and total fetch counters,
// failing if either ceiling would be exceeded, and returns a scoped
// guard the caller must Release on every exit path.
func (t *ResourceTracker) StartFetch(limits ResourceLimits) (*FetchGuard, error) {
	current := t.concurrentFetches.Add(1)
	if current > int64(limits.MaxConcurrentFetches) {
		t.concurrentFetches.Add(-1)
		return nil, limitErr(ConcurrentFetchExceeded, uint64(current), uint64(limits.MaxConcurrentFetches))
	}

	total := t.totalFetches.Add(1)
	if total > int64(limits.MaxTotalFetches) {
		t.concurrentFetches.Add(-1)
		t.totalFetches.Add(-1)
		return nil, limitErr(TotalFetchExceeded, uint64(total), uint64(limits.MaxTotalFetches))
	}

	return &FetchGuard{tracker: t}, nil
}

// AddFetchBytes records bytes read from one fetch response, enforcing
// both the per-fetch and the running-total ceilings.
func (t *ResourceTracker) AddFetchBytes(n uint64, limits ResourceLimits) error {
	if n > limits.MaxFetchResponseBytes {
		return limitErr(FetchResponseSizeExceeded, n, limits.MaxFetchResponseBytes)
	}
	total := t.totalFetchBytes.Add(n)
	if total > limits.MaxTotalFetchBytes {
		return limitErr(TotalFetchBytesExceeded, total, limits.MaxTotalFetchBytes)
	}
	return nil
}

func (t *ResourceTracker) CheckURLLength(url string, limits ResourceLimits) error {
	length := uint64(len(url))
	if length > uint64(limits.MaxURLLength) {
		return limitErr(UrlTooLong, length, uint64(limits.MaxURLLength))
	}
	return nil
}

func (t *ResourceTracker) CheckHeaderValue(value string, limits ResourceLimits) error {
	size := uint64(len(value))
	if size > uint64(limits.MaxHeaderValueBytes) {
		return limitErr(HeaderValueTooLarge, size, uint64(limits.MaxHeaderValueBytes))
	}
	return nil
}

func (t *ResourceTracker) AddHeader(limits ResourceLimits) error {
	count := t.headerCount.Add(1)
	if count > int64(limits.MaxResponseHeaders) {
		return limitErr(TooManyHeaders, uint64(count), uint64(limits.MaxResponseHeaders))
	}
	return nil
}

// Summary is a point-in-time snapshot of resource usage.
type Summary struct {
	ResponseBytes     uint64
	RequestBytes      uint64
	ConcurrentFetches uint32
	TotalFetches      uint32
	TotalFetchBytes   uint64
	HeaderCount       uint32
}

func (t *ResourceTracker) Summary() Summary {
	return Summary{
		ResponseBytes:     t.responseBytes.Load(),
		RequestBytes:      t.requestBytes.Load(),
		ConcurrentFetches: uint32(t.concurrentFetches.Load()),
		TotalFetches:      uint32(t.totalFetches.Load()),
		TotalFetchBytes:   t.totalFetchBytes.Load(),
		HeaderCount:       uint32(t.headerCount.Load()),
	}
}

// ApproachingLimits reports which counters are above 80% of their
// configured ceiling.
func (s Summary) ApproachingLimits(limits ResourceLimits) []string {
	var warnings []string
	if pct := pctOf(s.ResponseBytes, limits.MaxResponseBytes); pct > 80 {
		warnings = append(warnings, fmt.Sprintf("response_bytes at %.1f%%", pct))
	}
	if pct := pctOf(uint64(s.TotalFetches), uint64(limits.MaxTotalFetches)); pct > 80 {
		warnings = append(warnings, fmt.Sprintf("total_fetches at %.1f%%", pct))
	}
	if pct := pctOf(s.TotalFetchBytes, limits.MaxTotalFetchBytes); pct > 80 {
		warnings = append(warnings, fmt.Sprintf("total_fetch_bytes at %.1f%%", pct))
	}
	return warnings
}

func pctOf(used, limit uint64) float64 {
	if limit == 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100.0
}

// NewRateLimiter builds a token-bucket limiter from ResourceLimits,
// or nil if no rate limit is configured. Backed by golang.org/x/time/
// rate, which the teacher's go.mod already requires but never
// actually imports — wired into Client.Limiter by NewClient, gating
// the client's total outbound rate. TagRateLimiter, adapted from the
// teacher's hand-rolled CAS bucket (pkg/middleware/ratelimit.go),
// gates individual dependency tags instead; see taglimiter.go.
func NewRateLimiter(limits ResourceLimits) *rate.Limiter {
	if limits.RateLimitRPS == nil || limits.RateLimitBurst == nil {
		return nil
	}
	return rate.NewLimiter(rate.Limit(*limits.RateLimitRPS), *limits.RateLimitBurst)
}

// TryAcquire attempts to consume one token without blocking.
func TryAcquire(limiter *rate.Limiter) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}
