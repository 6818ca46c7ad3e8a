package corectx

import "testing"

func TestNewRequestContext_InitializesCollaborators(t *testing.T) {
	ctx := NewRequestContext(MethodGet, "/products/42")

	if ctx.RequestID == "" {
		t.Fatalf("expected a non-empty request ID")
	}
	if ctx.Method != MethodGet {
		t.Fatalf("Method = %v, want %v", ctx.Method, MethodGet)
	}
	if ctx.Path != "/products/42" {
		t.Fatalf("Path = %q, want /products/42", ctx.Path)
	}
	if ctx.Timing == nil {
		t.Fatalf("expected Timing to be initialized")
	}
	if ctx.Metrics == nil {
		t.Fatalf("expected Metrics to be initialized")
	}
	if ctx.Params == nil || ctx.Query == nil || ctx.Headers == nil {
		t.Fatalf("expected Params/Query/Headers to be initialized, non-nil maps")
	}
}

func TestNewRequestID_Unique(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()
	if a == b {
		t.Fatalf("expected two freshly generated request IDs to differ")
	}
}

func TestRequestContext_ParamQueryHeaderLookup(t *testing.T) {
	ctx := NewRequestContext(MethodGet, "/products/:id")
	ctx.Params["id"] = "42"
	ctx.Query["color"] = "red"
	ctx.Headers["X-Trace-Id"] = "abc123"

	if v, ok := ctx.Param("id"); !ok || v != "42" {
		t.Fatalf("Param(id) = (%q, %v), want (42, true)", v, ok)
	}
	if _, ok := ctx.Param("missing"); ok {
		t.Fatalf("expected missing param to report ok=false")
	}
	if v, ok := ctx.QueryParam("color"); !ok || v != "red" {
		t.Fatalf("QueryParam(color) = (%q, %v), want (red, true)", v, ok)
	}
	if v, ok := ctx.Header("x-trace-id"); !ok || v != "abc123" {
		t.Fatalf("Header lookup should be case-insensitive, got (%q, %v)", v, ok)
	}
}

func TestRequestIDFromString_RoundTrips(t *testing.T) {
	id := RequestIDFromString("forwarded-id-123")
	if id.String() != "forwarded-id-123" {
		t.Fatalf("String() = %q, want forwarded-id-123", id.String())
	}
}
