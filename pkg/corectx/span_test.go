package corectx

import "testing"

func TestTraceContextFromTraceparent_ValidHeader(t *testing.T) {
	header := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	tc, ok := TraceContextFromTraceparent(header)
	if !ok {
		t.Fatalf("expected a well-formed traceparent header to parse")
	}
	if tc.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID = %q", tc.TraceID)
	}
	if tc.ParentSpanID != "00f067aa0ba902b7" {
		t.Errorf("ParentSpanID = %q", tc.ParentSpanID)
	}
	if !tc.Flags.Sampled {
		t.Errorf("expected Flags.Sampled=true for flags=01")
	}
	if tc.SpanID == "" || tc.SpanID == tc.ParentSpanID {
		t.Errorf("expected a freshly generated SpanID distinct from the parent")
	}
}

func TestTraceContextFromTraceparent_MalformedHeadersRejected(t *testing.T) {
	tests := []string{
		"",
		"not-a-traceparent",
		"01-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", // wrong version
		"00-short-00f067aa0ba902b7-01",                            // trace id wrong length
		"00-4bf92f3577b34da6a3ce929d0e0e4736-short-01",            // span id wrong length
		"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-zz", // bad flags hex
	}
	for _, header := range tests {
		if _, ok := TraceContextFromTraceparent(header); ok {
			t.Errorf("expected header %q to be rejected", header)
		}
	}
}

func TestTraceContextFromTraceparent_UnsampledFlag(t *testing.T) {
	tc, ok := TraceContextFromTraceparent("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if tc.Flags.Sampled {
		t.Errorf("expected Flags.Sampled=false for flags=00")
	}
}

func TestTraceContext_ChildSharesTraceID(t *testing.T) {
	root := NewTraceContext()
	child := root.Child()

	if child.TraceID != root.TraceID {
		t.Errorf("expected child to share the root's TraceID")
	}
	if child.ParentSpanID != root.SpanID {
		t.Errorf("expected child.ParentSpanID to be the root's SpanID")
	}
	if child.SpanID == root.SpanID {
		t.Errorf("expected child to have its own SpanID")
	}
}

func TestTraceContext_ToTraceparentRoundTrips(t *testing.T) {
	root := NewTraceContext()
	header := root.ToTraceparent()

	parsed, ok := TraceContextFromTraceparent(header)
	if !ok {
		t.Fatalf("expected ToTraceparent's own output to parse back: %q", header)
	}
	if parsed.TraceID != root.TraceID {
		t.Errorf("round-tripped TraceID = %q, want %q", parsed.TraceID, root.TraceID)
	}
	if parsed.ParentSpanID != root.SpanID {
		t.Errorf("round-tripped ParentSpanID = %q, want root SpanID %q", parsed.ParentSpanID, root.SpanID)
	}
}

func TestTraceContextFromRequestID_DerivesStableTraceID(t *testing.T) {
	id := RequestIDFromString("11111111-2222-3333-4444-555555555555")
	tc := TraceContextFromRequestID(id)
	if len(tc.TraceID) != 32 {
		t.Fatalf("expected a 32-hex-char TraceID, got %d chars: %q", len(tc.TraceID), tc.TraceID)
	}
	if again := TraceContextFromRequestID(id); again.TraceID != tc.TraceID {
		t.Errorf("TraceID not stable: %q then %q", tc.TraceID, again.TraceID)
	}
}

func TestSpan_DurationUsRequiresEnd(t *testing.T) {
	trace := NewTraceContext()
	span := NewSpan("render", trace, 1000)

	if _, ok := span.DurationUs(); ok {
		t.Fatalf("expected DurationUs to report absent before End")
	}

	span.End(1500)
	d, ok := span.DurationUs()
	if !ok {
		t.Fatalf("expected DurationUs to report present after End")
	}
	if d != 500 {
		t.Fatalf("DurationUs = %d, want 500", d)
	}
}

func TestSpan_SetOKAndSetError(t *testing.T) {
	trace := NewTraceContext()
	span := NewSpan("render", trace, 0)

	span.SetOK()
	if span.Status != SpanOK {
		t.Errorf("Status = %v, want SpanOK", span.Status)
	}

	span.SetError()
	if span.Status != SpanError {
		t.Errorf("Status = %v, want SpanError", span.Status)
	}
}

func TestSpan_SetAttributeAppends(t *testing.T) {
	trace := NewTraceContext()
	span := NewSpan("render", trace, 0)

	span.SetAttribute("section", StringValue("hero"))
	span.SetAttribute("retries", IntValue(2))

	if len(span.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(span.Attributes))
	}
	if span.Attributes[0].Key != "section" {
		t.Errorf("Attributes[0].Key = %q, want section", span.Attributes[0].Key)
	}
}
