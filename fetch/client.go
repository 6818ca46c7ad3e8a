package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/edgerender/corestream/dependency"
	"github.com/edgerender/corestream/pkg/metrics"
)

// DependencyMetric records the outcome of one fetch, for the per-
// request observability layer (spec §4.3, §6).
type DependencyMetric struct {
	Tag       string
	URL       string
	Status    int
	Attempts  int
	Duration  time.Duration
	Bytes     int64
	Succeeded bool
	ErrorKind string
}

// FetchResult is the outcome of a single successful Fetch call.
type FetchResult struct {
	Status   int
	Headers  http.Header
	Body     []byte
	Metric   DependencyMetric
}

// Client is the dependency-tagged outbound fetch client. It enforces
// the allowlist and resource limits before every request, retries
// per-policy with backoff, and reports one DependencyMetric per Fetch
// call regardless of outcome, carrying the number of attempts made.
//
// Grounded on original_source/crates/edge-data/src/client.rs, a WASM
// stub (fetch() delegates to a host import and never implements retry,
// timeout enforcement, or allowlist checks itself) — this type
// supplies the full algorithm the stub only gestures at, using
// net/http the way the teacher's fetch-adjacent code
// (pkg/middleware/logging.go's request wrapping, cache-manager's HTTP
// client usage) shapes a request/response round trip.
type Client struct {
	HTTP      *http.Client
	Allowlist *OutboundAllowlist
	Limits    ResourceLimits
	Tracker   *ResourceTracker

	// Limiter gates the client's total outbound rate, built from
	// Limits.RateLimitRPS/RateLimitBurst; nil when unconfigured.
	Limiter *rate.Limiter

	// TagLimiter optionally gates individual dependency tags, so one
	// noisy tag can't consume the whole client's rate budget. Opt-in
	// via WithTagLimiter; nil means no per-tag limiting.
	TagLimiter *TagRateLimiter
}

// NewClient builds a Client with the given allowlist and limits, a
// fresh ResourceTracker, an http.Client with no overall deadline (the
// per-fetch timeout is enforced via context per call), and a
// client-wide rate limiter if limits configures one.
func NewClient(allowlist *OutboundAllowlist, limits ResourceLimits) *Client {
	return &Client{
		HTTP:      &http.Client{},
		Allowlist: allowlist,
		Limits:    limits,
		Tracker:   NewResourceTracker(),
		Limiter:   NewRateLimiter(limits),
	}
}

// WithTagLimiter enables per-dependency-tag rate limiting alongside the
// client-wide Limiter.
func (c *Client) WithTagLimiter(refillRate float64, bucketSize int64) *Client {
	c.TagLimiter = NewTagRateLimiter(refillRate, bucketSize)
	return c
}

// Fetch issues one dependency call under the given tag and policy,
// retrying on server errors, timeouts, and connection errors per the
// policy's RetryPolicy, backing off between attempts per its
// BackoffStrategy. It always returns a DependencyMetric, even on
// terminal failure, via the returned error's accompanying metric.
//
// collector, if non-nil, is the calling request's MetricsCollector;
// Fetch records into it directly rather than storing it on Client,
// since one Client is typically shared across many concurrent
// requests and collectors are scoped to a single one.
func (c *Client) Fetch(ctx context.Context, url string, tag dependency.Tag, policy FetchPolicy, collector *metrics.MetricsCollector) (*FetchResult, error) {
	start := time.Now()
	metric := DependencyMetric{Tag: tag.Name(), URL: url}

	if !TryAcquire(c.Limiter) {
		metric.ErrorKind = "request"
		return nil, c.fail(metric, start, RequestError("client rate limit exceeded"), collector)
	}
	if c.TagLimiter != nil && !c.TagLimiter.Allow(tag.Name()) {
		metric.ErrorKind = "request"
		return nil, c.fail(metric, start, RequestError("dependency tag rate limit exceeded"), collector)
	}

	if err := c.Tracker.CheckURLLength(url, c.Limits); err != nil {
		metric.ErrorKind = "request"
		return nil, c.fail(metric, start, RequestError(err.Error()), collector)
	}

	parsed, err := c.Allowlist.CheckURL(url)
	_ = parsed
	if err != nil {
		metric.ErrorKind = "request"
		return nil, c.fail(metric, start, RequestError(err.Error()), collector)
	}

	guard, err := c.Tracker.StartFetch(c.Limits)
	if err != nil {
		metric.ErrorKind = "request"
		return nil, c.fail(metric, start, RequestError(err.Error()), collector)
	}
	defer guard.Release()

	var lastErr error
	for attempt := 0; ; attempt++ {
		metric.Attempts = attempt + 1

		result, status, bytesRead, retryable, err := c.attempt(ctx, url, policy)
		metric.Bytes = bytesRead
		if err == nil {
			metric.Status = status
			metric.Duration = time.Since(start)
			metric.Succeeded = true
			result.Metric = metric
			recordDependency(collector, metric)
			return result, nil
		}

		lastErr = err
		fe, _ := err.(*Error)

		shouldRetry := false
		switch {
		case fe != nil && fe.Kind == ErrHTTP:
			shouldRetry = policy.Retry.ShouldRetryStatus(fe.Status, attempt)
		case fe != nil && fe.Kind == ErrTimeout:
			shouldRetry = policy.Retry.ShouldRetryTimeout(attempt)
		case fe != nil && fe.Kind == ErrConnection:
			shouldRetry = policy.Retry.ShouldRetryConnectionError(attempt)
		default:
			shouldRetry = retryable && policy.Retry.ShouldRetryConnectionError(attempt)
		}

		if !shouldRetry {
			break
		}

		delay := policy.Retry.Backoff.DelayForAttempt(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			lastErr = TimeoutError(url)
			goto done
		case <-timer.C:
		}
	}

done:
	metric.Duration = time.Since(start)
	metric.Succeeded = false
	if fe, ok := lastErr.(*Error); ok {
		metric.Status = fe.Status
		metric.ErrorKind = errorKindName(fe.Kind)
	}
	return nil, c.fail(metric, start, lastErr, collector)
}

func (c *Client) fail(metric DependencyMetric, start time.Time, err error, collector *metrics.MetricsCollector) error {
	metric.Duration = time.Since(start)
	recordDependency(collector, metric)
	return &fetchFailure{metric: metric, err: err}
}

// recordDependency reports metric into collector if one was supplied;
// a nil collector means the caller isn't tracking per-request metrics
// (e.g. a standalone Fetch call outside the request pipeline).
func recordDependency(collector *metrics.MetricsCollector, metric DependencyMetric) {
	if collector == nil {
		return
	}
	collector.RecordDependency(metric.Tag, metric.URL, metric.Duration, metric.Status, metric.Bytes, metric.Attempts, metric.Succeeded, metric.ErrorKind)
}

// fetchFailure wraps the underlying *Error with the metric observed,
// so callers that only care about the error can still type-assert
// through Unwrap while observability code recovers the metric.
type fetchFailure struct {
	metric DependencyMetric
	err    error
}

func (f *fetchFailure) Error() string { return f.err.Error() }
func (f *fetchFailure) Unwrap() error { return f.err }
func (f *fetchFailure) Metric() DependencyMetric { return f.metric }

func errorKindName(k ErrorKind) string {
	switch k {
	case ErrHTTP:
		return "http"
	case ErrTimeout:
		return "timeout"
	case ErrConnection:
		return "connection"
	case ErrDeserialization:
		return "deserialization"
	case ErrRequest:
		return "request"
	default:
		return "unknown"
	}
}

// attempt performs exactly one HTTP round trip under the policy's
// total-timeout budget, enforcing response size/header limits as
// bytes arrive. The returned int64 is the response body length read
// so far, even on a failure observed after the body was received
// (e.g. a 4xx/5xx status), so Fetch can still record how many bytes
// the attempt actually transferred.
func (c *Client) attempt(ctx context.Context, url string, policy FetchPolicy) (*FetchResult, int, int64, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout.Total)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, 0, false, RequestError(err.Error())
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, 0, 0, true, TimeoutError(url)
		}
		return nil, 0, 0, true, ConnectionError(err.Error())
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if err := c.Tracker.AddHeader(c.Limits); err != nil {
			return nil, resp.StatusCode, 0, false, RequestError(err.Error())
		}
		for _, v := range values {
			if err := c.Tracker.CheckHeaderValue(v, c.Limits); err != nil {
				return nil, resp.StatusCode, 0, false, RequestError(err.Error())
			}
		}
		_ = name
	}

	limited := io.LimitReader(resp.Body, int64(c.Limits.MaxFetchResponseBytes)+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, resp.StatusCode, int64(len(body)), true, ConnectionError(err.Error())
	}

	if err := c.Tracker.AddFetchBytes(uint64(len(body)), c.Limits); err != nil {
		return nil, resp.StatusCode, int64(len(body)), false, RequestError(err.Error())
	}
	c.Tracker.AddResponseBytes(uint64(len(body)))

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, int64(len(body)), true, HTTPError(resp.StatusCode, url)
	}

	return &FetchResult{Status: resp.StatusCode, Headers: resp.Header, Body: body}, resp.StatusCode, int64(len(body)), false, nil
}

// DecodeJSON unmarshals a FetchResult's body into v, wrapping any
// failure as a DeserializationError.
func DecodeJSON(result *FetchResult, v any) error {
	dec := json.NewDecoder(bytes.NewReader(result.Body))
	if err := dec.Decode(v); err != nil {
		return DeserializationError(err.Error())
	}
	return nil
}

// FetchSpec is one dependency call to make as part of a FetchAll fan-out.
type FetchSpec struct {
	Name   string
	URL    string
	Tag    dependency.Tag
	Policy FetchPolicy
}

// FetchAll issues every spec concurrently, at most
// Limits.MaxConcurrentFetches at a time, returning one result per
// spec name. A non-critical dependency's failure affects only its own
// entry; a critical one's (per the tag's IsCritical default) also
// cancels the context of the fetches still in flight or not yet
// started. FetchAll itself never fails: every outcome, including the
// critical failure, is reported per spec. Results are returned in a map
// keyed by spec.Name so callers can recover per-dependency outcomes
// regardless of completion order. collector, if non-nil, receives
// every spec's DependencyMetric as it completes; MetricsCollector is
// safe for this concurrent fan-out.
//
// Concurrency pattern grounded on the teacher's warming/worker_pool.go
// (bounded concurrent fan-out) generalized to golang.org/x/sync/
// errgroup, which the examples pack uses idiomatically for
// cancel-on-first-critical-failure fan-out.
func (c *Client) FetchAll(ctx context.Context, specs []FetchSpec, collector *metrics.MetricsCollector) (map[string]*FetchResult, map[string]error) {
	results := make(map[string]*FetchResult, len(specs))
	errs := make(map[string]error, len(specs))

	type outcome struct {
		name   string
		result *FetchResult
		err    error
	}
	outcomes := make(chan outcome, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	if c.Limits.MaxConcurrentFetches > 0 {
		g.SetLimit(int(c.Limits.MaxConcurrentFetches))
	}
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			result, err := c.Fetch(gctx, spec.URL, spec.Tag, spec.Policy, collector)
			outcomes <- outcome{name: spec.Name, result: result, err: err}
			if err != nil && spec.Tag.IsCritical() {
				return err
			}
			return nil
		})
	}

	_ = g.Wait()
	close(outcomes)

	for o := range outcomes {
		if o.err != nil {
			errs[o.name] = o.err
		} else {
			results[o.name] = o.result
		}
	}
	return results, errs
}
