package corectx

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TraceFlags carries sampling decisions, W3C-style.
type TraceFlags struct {
	Sampled bool
}

// TraceContext is a W3C-compatible distributed trace identity:
// a 128-bit trace ID shared by every span in a request, and a 64-bit
// span ID unique to this span.
type TraceContext struct {
	TraceID      string
	SpanID       string
	ParentSpanID string // empty if this is a root span
	Flags        TraceFlags
}

// NewTraceContext creates a root trace context.
func NewTraceContext() TraceContext {
	return TraceContext{
		TraceID: randomHex(32),
		SpanID:  randomHex(16),
		Flags:   TraceFlags{Sampled: true},
	}
}

// TraceContextFromRequestID derives a root trace context using the
// request ID as the trace identity, so trace-id and request-id
// correlate directly in logs without a separate lookup.
func TraceContextFromRequestID(id RequestID) TraceContext {
	return TraceContext{
		TraceID: padHex(strings.ReplaceAll(string(id), "-", ""), 32),
		SpanID:  randomHex(16),
		Flags:   TraceFlags{Sampled: true},
	}
}

// Child derives a child span sharing this trace ID.
func (t TraceContext) Child() TraceContext {
	return TraceContext{
		TraceID:      t.TraceID,
		SpanID:       randomHex(16),
		ParentSpanID: t.SpanID,
		Flags:        t.Flags,
	}
}

// TraceContextFromTraceparent parses a W3C traceparent header of the
// form "00-<trace-id>-<parent-span-id>-<flags>". Returns false if the
// header is absent or malformed; callers then start a root context
// instead (pipeline.Run uses TraceContextFromRequestID; NewTraceContext
// is the random alternative).
func TraceContextFromTraceparent(header string) (TraceContext, bool) {
	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return TraceContext{}, false
	}
	if parts[0] != "00" {
		return TraceContext{}, false
	}
	traceID, parentSpanID, flagsHex := parts[1], parts[2], parts[3]
	if len(traceID) != 32 || len(parentSpanID) != 16 {
		return TraceContext{}, false
	}
	flags, err := strconv.ParseUint(flagsHex, 16, 8)
	if err != nil {
		return TraceContext{}, false
	}
	return TraceContext{
		TraceID:      traceID,
		SpanID:       randomHex(16),
		ParentSpanID: parentSpanID,
		Flags:        TraceFlags{Sampled: flags&0x01 != 0},
	}, true
}

// ToTraceparent formats this context as a W3C traceparent header.
// The core never emits this header itself (§6 of the spec); it is
// exposed for a host that wants to propagate trace identity onward.
func (t TraceContext) ToTraceparent() string {
	flags := "00"
	if t.Flags.Sampled {
		flags = "01"
	}
	parent := t.ParentSpanID
	if parent == "" {
		parent = t.SpanID
	}
	return "00-" + t.TraceID + "-" + parent + "-" + flags
}

// SpanStatus is the terminal status of a Span.
type SpanStatus int

const (
	SpanUnset SpanStatus = iota
	SpanOK
	SpanError
)

// SpanValue is an attribute value attached to a Span.
type SpanValue struct {
	str   string
	i64   int64
	f64   float64
	b     bool
	kind  spanValueKind
}

type spanValueKind int

const (
	spanValueString spanValueKind = iota
	spanValueInt
	spanValueFloat
	spanValueBool
)

func StringValue(s string) SpanValue  { return SpanValue{str: s, kind: spanValueString} }
func IntValue(v int64) SpanValue      { return SpanValue{i64: v, kind: spanValueInt} }
func FloatValue(v float64) SpanValue  { return SpanValue{f64: v, kind: spanValueFloat} }
func BoolValue(v bool) SpanValue      { return SpanValue{b: v, kind: spanValueBool} }

// Span represents one unit of work within a trace.
type Span struct {
	Name       string
	Context    TraceContext
	StartUs    uint64
	EndUs      *uint64
	Attributes []SpanAttribute
	Status     SpanStatus
}

// SpanAttribute is a single key/value pair on a span.
type SpanAttribute struct {
	Key   string
	Value SpanValue
}

// NewSpan starts a span at the given microsecond offset from request
// start.
func NewSpan(name string, ctx TraceContext, startUs uint64) *Span {
	return &Span{Name: name, Context: ctx, StartUs: startUs}
}

// SetAttribute attaches an attribute to the span.
func (s *Span) SetAttribute(key string, value SpanValue) {
	s.Attributes = append(s.Attributes, SpanAttribute{Key: key, Value: value})
}

// End closes the span at the given microsecond offset.
func (s *Span) End(endUs uint64) {
	e := endUs
	s.EndUs = &e
}

// SetOK marks the span as having completed successfully.
func (s *Span) SetOK() { s.Status = SpanOK }

// SetError marks the span as having failed.
func (s *Span) SetError() { s.Status = SpanError }

// DurationUs returns the span's duration if it has ended.
func (s *Span) DurationUs() (uint64, bool) {
	if s.EndUs == nil {
		return 0, false
	}
	end := *s.EndUs
	if end < s.StartUs {
		return 0, true
	}
	return end - s.StartUs, true
}

func randomHex(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return padHex(id, n)
}

func padHex(s string, n int) string {
	for len(s) < n {
		s += strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return s[:n]
}
