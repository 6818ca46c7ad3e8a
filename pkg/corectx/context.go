// Package corectx holds the per-request plumbing every other package in
// this module takes by reference: the request context, timing marks,
// lifecycle phases, and trace/span propagation. None of it is
// transport-specific; the host is responsible for turning a real HTTP
// request into a RequestContext before handing control to the pipeline.
package corectx

import (
	"strings"

	"github.com/google/uuid"

	"github.com/edgerender/corestream/pkg/metrics"
)

// RequestID uniquely identifies a request for the lifetime of the
// pipeline. It is propagated to logs, spans, and outbound fetch headers.
type RequestID string

// NewRequestID generates a fresh, process-wide-unique request ID.
func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}

// RequestIDFromString wraps an existing ID, e.g. one forwarded by an
// upstream edge node via a request header.
func RequestIDFromString(id string) RequestID {
	return RequestID(id)
}

func (r RequestID) String() string { return string(r) }

// Method is the HTTP method of the inbound request.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// GeoInfo carries geographic hints the host resolved at the edge
// (e.g. from a CDN header), used by Geo vary rules.
type GeoInfo struct {
	Country string
	Region  string
	City    string
}

// RequestContext is the typed, per-request state passed to workload
// handlers and to every component in this module. It is single-owner:
// never shared across goroutines handling different requests.
type RequestContext struct {
	RequestID RequestID
	Method    Method
	Path      string
	Params    map[string]string
	Query     map[string]string
	Headers   map[string]string
	Geo       *GeoInfo
	Timing    *TimingContext

	// Metrics is this request's MetricsCollector, handed by reference to
	// fetch.Client.Fetch calls and section handlers as the pipeline
	// drives them, and finalized once when the request completes.
	Metrics *metrics.MetricsCollector
}

// NewRequestContext creates a context with a fresh request ID, a
// TimingContext started at the current instant, and an empty
// MetricsCollector.
func NewRequestContext(method Method, path string) *RequestContext {
	return &RequestContext{
		RequestID: NewRequestID(),
		Method:    method,
		Path:      path,
		Params:    map[string]string{},
		Query:     map[string]string{},
		Headers:   map[string]string{},
		Timing:    NewTimingContext(),
		Metrics:   metrics.NewMetricsCollector(),
	}
}

// Param returns a route parameter (e.g. the `id` in `/products/:id`).
func (c *RequestContext) Param(name string) (string, bool) {
	v, ok := c.Params[name]
	return v, ok
}

// QueryParam returns a query-string parameter.
func (c *RequestContext) QueryParam(name string) (string, bool) {
	v, ok := c.Query[name]
	return v, ok
}

// Header returns a header value, matched case-insensitively as HTTP
// header names require.
func (c *RequestContext) Header(name string) (string, bool) {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
