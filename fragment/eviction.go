package fragment

import "time"

// EvictionPolicy decides when a fragment should be evicted ahead of
// its own TTL and observes access/set events. InMemoryBackend always
// performs LRU-at-capacity eviction and TTL expiry itself (that part
// isn't optional); a policy layers additional criteria on top — e.g.
// evicting tagged entries more aggressively under memory pressure.
//
// Adapted from the teacher's cache-manager/policies.go
// EvictionPolicy/PolicyEngine, generalized from the untyped
// `interface{}` CacheEntry value to CachedFragment.
type EvictionPolicy interface {
	ShouldEvict(fragment CachedFragment, now time.Time) bool
	OnAccess(key string)
	OnSet(key string, fragment CachedFragment)
}

// TTLPolicy evicts strictly by the fragment's own expiry.
type TTLPolicy struct{}

func NewTTLPolicy() TTLPolicy { return TTLPolicy{} }

func (TTLPolicy) ShouldEvict(fragment CachedFragment, now time.Time) bool {
	return now.After(fragment.CreatedAt.Add(fragment.TTL))
}
func (TTLPolicy) OnAccess(key string)                        {}
func (TTLPolicy) OnSet(key string, fragment CachedFragment) {}

// NoopPolicy never evicts ahead of TTL/LRU; useful when a caller wants
// InMemoryBackend's built-in behavior with no extra policy layered on.
type NoopPolicy struct{}

func (NoopPolicy) ShouldEvict(CachedFragment, time.Time) bool { return false }
func (NoopPolicy) OnAccess(string)                            {}
func (NoopPolicy) OnSet(string, CachedFragment)               {}

// PolicyEngine evaluates an EvictionPolicy against the wall clock, the
// way the teacher's PolicyEngine wraps a single EvictionPolicy.
type PolicyEngine struct {
	policy EvictionPolicy
}

func NewPolicyEngine(policy EvictionPolicy) *PolicyEngine {
	return &PolicyEngine{policy: policy}
}

func DefaultPolicyEngine() *PolicyEngine {
	return &PolicyEngine{policy: NoopPolicy{}}
}

func (e *PolicyEngine) ShouldEvict(fragment CachedFragment) bool {
	return e.policy.ShouldEvict(fragment, time.Now())
}

func (e *PolicyEngine) RecordAccess(key string) {
	e.policy.OnAccess(key)
}

func (e *PolicyEngine) RecordSet(key string, fragment CachedFragment) {
	e.policy.OnSet(key, fragment)
}
