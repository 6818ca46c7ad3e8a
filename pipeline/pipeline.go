// Package pipeline orchestrates a single request's lifecycle end to
// end: it builds the trace context, derives a root span, invokes the
// workload handler against a shell-first Sink, drives every
// registered LifecycleObserver through the phases the handler passes
// through, and finalizes the request's MetricsCollector once the
// response completes or fails.
//
// Grounded on spec.md §4.8's per-request orchestration responsibility
// and on the teacher's cache-manager/service.go Service type, which
// wires its own collaborators (l1Cache, l2Cache, originFetch,
// coalescer, metrics) into one struct and drives them from a single
// top-level Get method the way Pipeline.Run drives this module's
// collaborators from one entry point.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/edgerender/corestream/fetch"
	"github.com/edgerender/corestream/fragment"
	"github.com/edgerender/corestream/pkg/corectx"
	"github.com/edgerender/corestream/pkg/metrics"
	"github.com/edgerender/corestream/pkg/obslog"
	"github.com/edgerender/corestream/streaming"
)

// Handler renders one request's sections onto sink, using reqCtx for
// routing/cache-key/geo state and fetchClient (reached via the
// Pipeline that invoked it) for outbound dependency calls. It returns
// an error only for a failure severe enough to abort the whole
// response; individual section failures should instead fall back
// per-section (see streaming.ApplyFallback) and return nil.
type Handler func(ctx context.Context, reqCtx *corectx.RequestContext, sink *streaming.Sink) error

// Pipeline wires together the collaborators a request needs to run
// end to end: the fetch client dependency handlers call into, the
// fragment cache sections read/write through, and any observers
// watching lifecycle phases (e.g. a metrics exporter or access log).
// One Pipeline is typically long-lived and shared across many
// concurrent requests; Run is safe for concurrent use as long as
// Handler itself is.
type Pipeline struct {
	Fetch     *fetch.Client
	Cache     *fragment.Cache
	Observers []corectx.LifecycleObserver
	Workload  string
}

// New creates a Pipeline for the given workload name.
func New(workload string, fetchClient *fetch.Client, cache *fragment.Cache) *Pipeline {
	return &Pipeline{Fetch: fetchClient, Cache: cache, Workload: workload}
}

// WithObserver registers an additional LifecycleObserver.
func (p *Pipeline) WithObserver(o corectx.LifecycleObserver) *Pipeline {
	p.Observers = append(p.Observers, o)
	return p
}

// Result is what Run returns once a request has finished, successfully
// or not: the finalized per-request metrics and the trace context the
// request ran under, for a caller that wants to propagate it onward
// (e.g. to an origin fetch's own traceparent header).
type Result struct {
	Trace   corectx.TraceContext
	Metrics metrics.RequestMetrics
	Err     error
}

// Run performs the single per-request operation spec.md §4.8 names:
// it derives or creates the trace context (honoring an inbound W3C
// traceparent header if one was forwarded), opens a root span, emits
// the Start lifecycle phase, invokes handler against a fresh Sink
// wrapping w, drives ShellSent/SectionSent/Completion/Error phases
// from the Sink and TimingContext handler leaves behind, and finalizes
// reqCtx.Metrics regardless of outcome.
//
// A handler error or a context cancellation both finalize the
// request: Run never leaves reqCtx.Metrics unfinalized, since a caller
// (e.g. an HTTP handler tearing down on client disconnect) needs a
// RequestMetrics to emit even for an aborted request.
func (p *Pipeline) Run(ctx context.Context, reqCtx *corectx.RequestContext, w streaming.Writer, traceparentHeader string, handler Handler) Result {
	trace, ok := corectx.TraceContextFromTraceparent(traceparentHeader)
	if !ok {
		trace = corectx.TraceContextFromRequestID(reqCtx.RequestID)
	}
	span := corectx.NewSpan(string(reqCtx.Path), trace, uint64(reqCtx.Timing.Elapsed().Microseconds()))

	logger := obslog.NewLogger(reqCtx.RequestID.String()).WithWorkload(p.Workload).WithRoute(reqCtx.Path)

	p.notify(corectx.LifecyclePhase{Kind: corectx.PhaseStart}, reqCtx.Timing.Elapsed())
	logger.Info("request started")

	sink := streaming.NewSink(w, reqCtx.Timing)

	err := p.runHandler(ctx, reqCtx, sink, handler)

	statusCode := 200
	if err != nil {
		statusCode = 500
		span.SetError()
		p.notify(corectx.LifecyclePhase{Kind: corectx.PhaseError, Err: err.Error()}, reqCtx.Timing.Elapsed())
		logger.ErrorBuilder("request failed").Field("error", err.Error()).Emit()
	} else {
		span.SetOK()
		p.emitSentPhases(reqCtx, sink)
		p.notify(corectx.LifecyclePhase{Kind: corectx.PhaseCompletion}, reqCtx.Timing.Elapsed())
		logger.InfoBuilder("request completed").DurationMS("elapsed_ms", reqCtx.Timing.Elapsed()).Emit()
	}

	span.End(uint64(reqCtx.Timing.Elapsed().Microseconds()))

	total := reqCtx.Timing.TotalTime()
	return Result{
		Trace:   trace,
		Metrics: reqCtx.Metrics.Finalize(total, statusCode),
		Err:     err,
	}
}

// runHandler invokes handler, recovering from context cancellation by
// translating ctx.Err() into the returned error rather than letting a
// caller's deadline produce a bare "context deadline exceeded" with no
// pipeline-level framing.
func (p *Pipeline) runHandler(ctx context.Context, reqCtx *corectx.RequestContext, sink *streaming.Sink, handler Handler) error {
	if err := handler(ctx, reqCtx, sink); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline: request cancelled before completion: %w", err)
	}
	if err := sink.Complete(); err != nil {
		return err
	}
	return nil
}

// emitSentPhases replays the Sink's recorded ShellSent/SectionSent
// transitions as observer notifications, and records
// TimeToShell/TimeToFirstSection into reqCtx.Metrics so Finalize's
// RequestMetrics carries them.
func (p *Pipeline) emitSentPhases(reqCtx *corectx.RequestContext, sink *streaming.Sink) {
	if d, ok := reqCtx.Timing.TimeToShell(); ok {
		p.notify(corectx.LifecyclePhase{Kind: corectx.PhaseShellSent}, d)
		reqCtx.Metrics.SetTimeToShell(d)
	}
	for _, name := range sink.SectionsSent() {
		p.notify(corectx.LifecyclePhase{Kind: corectx.PhaseSectionSent, Section: name}, reqCtx.Timing.Elapsed())
	}
	if d, ok := reqCtx.Timing.TimeToFirstSection(); ok {
		reqCtx.Metrics.SetTimeToFirstSection(d)
	}
}

func (p *Pipeline) notify(phase corectx.LifecyclePhase, elapsed time.Duration) {
	for _, o := range p.Observers {
		o.OnPhase(phase, elapsed)
	}
}
