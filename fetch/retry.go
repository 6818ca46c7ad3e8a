package fetch

import "time"

// BackoffKind discriminates BackoffStrategy variants.
type BackoffKind int

const (
	BackoffNone BackoffKind = iota
	BackoffFixed
	BackoffExponential
)

// BackoffStrategy computes the sleep duration before a retry attempt.
type BackoffStrategy struct {
	Kind  BackoffKind
	Fixed time.Duration // used when Kind == BackoffFixed
	Base  time.Duration // used when Kind == BackoffExponential
	Max   time.Duration // used when Kind == BackoffExponential
}

// DefaultBackoff matches the reference default: exponential, 50ms
// base, 500ms cap.
func DefaultBackoff() BackoffStrategy {
	return BackoffStrategy{Kind: BackoffExponential, Base: 50 * time.Millisecond, Max: 500 * time.Millisecond}
}

// DelayForAttempt returns the backoff delay before retrying the given
// zero-indexed attempt number. Exponential backoff is
// min(base * 2^attempt, max).
func (b BackoffStrategy) DelayForAttempt(attempt int) time.Duration {
	switch b.Kind {
	case BackoffFixed:
		return b.Fixed
	case BackoffExponential:
		d := b.Base
		for i := 0; i < attempt; i++ {
			d *= 2
			if d > b.Max {
				return b.Max
			}
		}
		if d > b.Max {
			return b.Max
		}
		return d
	default:
		return 0
	}
}

// RetryConditionKind discriminates RetryCondition variants.
type RetryConditionKind int

const (
	RetryOnStatusCode RetryConditionKind = iota
	RetryOnServerError
	RetryOnTimeout
	RetryOnConnectionError
)

// RetryCondition is one predicate a response/error must satisfy for a
// retry to be attempted.
type RetryCondition struct {
	Kind   RetryConditionKind
	Status int // meaningful only when Kind == RetryOnStatusCode
}

// MatchesStatus reports whether this condition fires for the given
// HTTP status code.
func (c RetryCondition) MatchesStatus(status int) bool {
	switch c.Kind {
	case RetryOnStatusCode:
		return status == c.Status
	case RetryOnServerError:
		return status >= 500 && status < 600
	default:
		return false
	}
}

// RetryPolicy bounds how many attempts are made and which conditions
// justify a retry.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	RetryOn     []RetryCondition
}

// NewRetryPolicy builds a policy with the default retry conditions
// (server errors, timeouts, connection errors) and default backoff.
func NewRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     DefaultBackoff(),
		RetryOn: []RetryCondition{
			{Kind: RetryOnServerError},
			{Kind: RetryOnTimeout},
			{Kind: RetryOnConnectionError},
		},
	}
}

// NoRetry returns a policy that never retries.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 0}
}

// ShouldRetryStatus reports whether another attempt should be made
// after observing the given HTTP status on the given zero-indexed
// attempt.
func (p RetryPolicy) ShouldRetryStatus(status, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	for _, c := range p.RetryOn {
		if c.MatchesStatus(status) {
			return true
		}
	}
	return false
}

// ShouldRetryTimeout reports whether another attempt should be made
// after a timeout on the given zero-indexed attempt.
func (p RetryPolicy) ShouldRetryTimeout(attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	for _, c := range p.RetryOn {
		if c.Kind == RetryOnTimeout {
			return true
		}
	}
	return false
}

// ShouldRetryConnectionError reports whether another attempt should be
// made after a connection-level error on the given zero-indexed
// attempt.
func (p RetryPolicy) ShouldRetryConnectionError(attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	for _, c := range p.RetryOn {
		if c.Kind == RetryOnConnectionError {
			return true
		}
	}
	return false
}

// TimeoutConfig splits an overall budget into connect/response/total
// phases.
type TimeoutConfig struct {
	Connect  time.Duration
	Response time.Duration
	Total    time.Duration
}

// DefaultTimeoutConfig matches the reference default of 100/200/500ms.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{Connect: 100 * time.Millisecond, Response: 200 * time.Millisecond, Total: 500 * time.Millisecond}
}

// TimeoutConfigFromTotal derives connect/response budgets as quarter
// and half of the total, respectively.
func TimeoutConfigFromTotal(total time.Duration) TimeoutConfig {
	return TimeoutConfig{Connect: total / 4, Response: total / 2, Total: total}
}

// AggressiveTimeoutConfig is a low-latency preset for tags like
// Analytics where a slow dependency should fail fast.
func AggressiveTimeoutConfig(total time.Duration) TimeoutConfig {
	return TimeoutConfig{Connect: 50 * time.Millisecond, Response: 100 * time.Millisecond, Total: total}
}

// FetchPolicy bundles the timeout and retry configuration for one
// fetch call.
type FetchPolicy struct {
	Timeout TimeoutConfig
	Retry   RetryPolicy
}

// NewFetchPolicy returns a policy with reference defaults.
func NewFetchPolicy() FetchPolicy {
	return FetchPolicy{Timeout: DefaultTimeoutConfig(), Retry: NewRetryPolicy(1)}
}

// FetchPolicyFromTag derives a policy from a dependency tag's defaults.
func FetchPolicyFromTag(defaultTimeout time.Duration, defaultMaxRetries int) FetchPolicy {
	return FetchPolicy{
		Timeout: TimeoutConfigFromTotal(defaultTimeout),
		Retry:   NewRetryPolicy(defaultMaxRetries),
	}
}
