// Package fragment implements the Fragment Cache: per-section cached
// HTML with stampede protection and stale-while-revalidate semantics.
//
// Grounded on original_source/crates/edge-cache/src/fragment.rs (read
// in full), cross-checked against spec.md §4.4 line-by-line, and on
// the teacher's cache-manager/cache.go (L1Cache) for the concurrent
// in-memory backend shape.
package fragment

import (
	"fmt"
	"time"

	"github.com/edgerender/corestream/cachekey"
)

// CacheStatus is the outcome of one cache lookup or get-or-compute
// call, matching spec.md §4.4 exactly.
type CacheStatus int

const (
	StatusHit CacheStatus = iota
	StatusMiss
	StatusStale
	StatusBypass
	StatusError
)

func (s CacheStatus) String() string {
	switch s {
	case StatusHit:
		return "HIT"
	case StatusMiss:
		return "MISS"
	case StatusStale:
		return "STALE"
	case StatusBypass:
		return "BYPASS"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ErrorKind discriminates CacheError variants.
type ErrorKind int

const (
	ErrMiss ErrorKind = iota
	ErrExpired
	ErrSerialization
	ErrStorage
	ErrLockFailed
	ErrTimeout
)

// CacheError is the typed error taxonomy a Backend or Cache operation
// can fail with.
type CacheError struct {
	Kind    ErrorKind
	Message string
}

func (e *CacheError) Error() string {
	switch e.Kind {
	case ErrMiss:
		return "cache miss"
	case ErrExpired:
		return "cache entry expired"
	case ErrSerialization:
		return fmt.Sprintf("serialization error: %s", e.Message)
	case ErrStorage:
		return fmt.Sprintf("storage error: %s", e.Message)
	case ErrLockFailed:
		return fmt.Sprintf("failed to acquire lock: %s", e.Message)
	case ErrTimeout:
		return "operation timed out"
	default:
		return "cache error"
	}
}

func StorageError(msg string) *CacheError       { return &CacheError{Kind: ErrStorage, Message: msg} }
func SerializationError(msg string) *CacheError { return &CacheError{Kind: ErrSerialization, Message: msg} }
func LockFailedError(msg string) *CacheError    { return &CacheError{Kind: ErrLockFailed, Message: msg} }

func (k ErrorKind) String() string {
	switch k {
	case ErrMiss:
		return "Miss"
	case ErrExpired:
		return "Expired"
	case ErrSerialization:
		return "Serialization"
	case ErrStorage:
		return "Storage"
	case ErrLockFailed:
		return "LockFailed"
	case ErrTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// CachedFragment is a single cached section artifact.
type CachedFragment struct {
	Content   string
	CreatedAt time.Time
	TTL       time.Duration
	Tags      []string
	ETag      string
}

// NewCachedFragment stamps the entry with the current time.
func NewCachedFragment(content string, ttl time.Duration) CachedFragment {
	return CachedFragment{Content: content, CreatedAt: time.Now(), TTL: ttl}
}

func (f CachedFragment) WithTags(tags []string) CachedFragment {
	f.Tags = tags
	return f
}

func (f CachedFragment) WithETag(etag string) CachedFragment {
	f.ETag = etag
	return f
}

// IsExpired reports whether the fragment's TTL has elapsed.
func (f CachedFragment) IsExpired() bool {
	return time.Now().After(f.CreatedAt.Add(f.TTL))
}

// RemainingTTL returns the time left before expiry, floored at zero.
func (f CachedFragment) RemainingTTL() time.Duration {
	remaining := f.CreatedAt.Add(f.TTL).Sub(time.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Age returns how long ago the fragment was created.
func (f CachedFragment) Age() time.Duration {
	age := time.Since(f.CreatedAt)
	if age < 0 {
		return 0
	}
	return age
}

// CacheGetResult is the outcome of a Cache.Get call.
type CacheGetResult struct {
	Fragment         *CachedFragment
	Status           CacheStatus
	NeedsRevalidation bool
}

func hitResult(f CachedFragment) CacheGetResult {
	return CacheGetResult{Fragment: &f, Status: StatusHit}
}

func staleResult(f CachedFragment) CacheGetResult {
	return CacheGetResult{Fragment: &f, Status: StatusStale, NeedsRevalidation: true}
}

func missResult() CacheGetResult  { return CacheGetResult{Status: StatusMiss} }
func bypassResult() CacheGetResult { return CacheGetResult{Status: StatusBypass} }
func errorResult() CacheGetResult  { return CacheGetResult{Status: StatusError} }

// Key is a type alias retained for readability at call sites; the
// canonical key type lives in cachekey to avoid an import cycle
// (fragment depends on cachekey, never the reverse).
type Key = cachekey.FragmentKey
