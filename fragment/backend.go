package fragment

import (
	"container/list"
	"sync"
	"time"
)

// Backend is the storage interface a Cache is built on: get/set/
// delete, tag-based bulk invalidation, and the try-lock/unlock pair
// stampede protection relies on. Grounded on
// original_source/crates/edge-cache/src/fragment.rs's
// FragmentCacheBackend trait.
type Backend interface {
	Get(key string) (*CachedFragment, error)
	Set(key string, fragment CachedFragment) error
	Delete(key string) error
	InvalidateTag(tag string) (int, error)
	TryLock(key string, ttl time.Duration) (bool, error)
	Unlock(key string) error
}

type entry struct {
	key      string
	value    CachedFragment
	element  *list.Element
}

type lockEntry struct {
	expiresAt time.Time
}

// InMemoryBackend is a concurrent, single-process Backend with LRU
// eviction and a tag index for InvalidateTag, plus a lock table for
// stampede protection.
//
// Grounded on the teacher's cache-manager/cache.go L1Cache (RWMutex +
// container/list LRU, chosen over sync.Map for the same reason the
// teacher gives: ordered iteration for eviction isn't available on
// sync.Map). The Rust reference's own InMemoryBackend is a stub that
// discards everything (`Ok(None)` unconditionally) — this type
// supplies the real storage, tag index, and TryLock/Unlock the stub
// never implements.
type InMemoryBackend struct {
	mu         sync.RWMutex
	cache      map[string]*entry
	lruList    *list.List
	maxEntries int

	tagIndex map[string]map[string]struct{} // tag -> set of keys

	locksMu sync.Mutex
	locks   map[string]lockEntry

	policy *PolicyEngine
}

// NewInMemoryBackend creates a backend with the given LRU capacity and
// no extra eviction policy beyond the built-in LRU+TTL behavior.
func NewInMemoryBackend(maxEntries int) *InMemoryBackend {
	return NewInMemoryBackendWithPolicy(maxEntries, DefaultPolicyEngine())
}

// NewInMemoryBackendWithPolicy creates a backend additionally layering
// policy's ShouldEvict check into CleanupExpired and its OnAccess/OnSet
// hooks into Get/Set, on top of the backend's own always-on LRU-at-
// capacity eviction and CleanupExpired's TTL sweep. Get returns an
// expired entry as it is; it does not evict it.
func NewInMemoryBackendWithPolicy(maxEntries int, policy *PolicyEngine) *InMemoryBackend {
	return &InMemoryBackend{
		cache:      make(map[string]*entry, maxEntries),
		lruList:    list.New(),
		maxEntries: maxEntries,
		tagIndex:   make(map[string]map[string]struct{}),
		locks:      make(map[string]lockEntry),
		policy:     policy,
	}
}

func (b *InMemoryBackend) Get(key string) (*CachedFragment, error) {
	b.mu.RLock()
	e, ok := b.cache[key]
	b.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	b.mu.Lock()
	b.lruList.MoveToFront(e.element)
	b.mu.Unlock()

	b.policy.RecordAccess(key)

	v := e.value
	return &v, nil
}

func (b *InMemoryBackend) Set(key string, fragment CachedFragment) error {
	b.policy.RecordSet(key, fragment)

	b.mu.Lock()
	defer b.mu.Unlock()

	if e, exists := b.cache[key]; exists {
		b.unindexTagsLocked(key, e.value.Tags)
		e.value = fragment
		b.lruList.MoveToFront(e.element)
		b.indexTagsLocked(key, fragment.Tags)
		return nil
	}

	if b.maxEntries > 0 && b.lruList.Len() >= b.maxEntries {
		b.evictLRULocked()
	}

	e := &entry{key: key, value: fragment}
	e.element = b.lruList.PushFront(e)
	b.cache[key] = e
	b.indexTagsLocked(key, fragment.Tags)
	return nil
}

func (b *InMemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteLocked(key)
	return nil
}

func (b *InMemoryBackend) deleteLocked(key string) bool {
	e, exists := b.cache[key]
	if !exists {
		return false
	}
	b.unindexTagsLocked(key, e.value.Tags)
	b.lruList.Remove(e.element)
	delete(b.cache, key)
	return true
}

func (b *InMemoryBackend) indexTagsLocked(key string, tags []string) {
	for _, tag := range tags {
		set, ok := b.tagIndex[tag]
		if !ok {
			set = make(map[string]struct{})
			b.tagIndex[tag] = set
		}
		set[key] = struct{}{}
	}
}

func (b *InMemoryBackend) unindexTagsLocked(key string, tags []string) {
	for _, tag := range tags {
		if set, ok := b.tagIndex[tag]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(b.tagIndex, tag)
			}
		}
	}
}

// InvalidateTag deletes every entry carrying the given tag and
// returns how many were removed. This is an exact tag match (spec.md
// §4.4's invalidate_tag takes a single tag, not a glob) — there is no
// wildcard pattern matching in this path.
func (b *InMemoryBackend) InvalidateTag(tag string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.tagIndex[tag]
	if !ok {
		return 0, nil
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	count := 0
	for _, k := range keys {
		if b.deleteLocked(k) {
			count++
		}
	}
	return count, nil
}

func (b *InMemoryBackend) evictLRULocked() {
	oldest := b.lruList.Back()
	if oldest == nil {
		return
	}
	e := oldest.Value.(*entry)
	b.unindexTagsLocked(e.key, e.value.Tags)
	b.lruList.Remove(oldest)
	delete(b.cache, e.key)
}

// TryLock attempts to acquire a stampede-protection lock on key,
// expiring automatically after ttl so a crashed holder can never wedge
// the lock permanently.
func (b *InMemoryBackend) TryLock(key string, ttl time.Duration) (bool, error) {
	b.locksMu.Lock()
	defer b.locksMu.Unlock()

	if existing, ok := b.locks[key]; ok && time.Now().Before(existing.expiresAt) {
		return false, nil
	}
	b.locks[key] = lockEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (b *InMemoryBackend) Unlock(key string) error {
	b.locksMu.Lock()
	defer b.locksMu.Unlock()
	delete(b.locks, key)
	return nil
}

// CleanupExpired removes fragments whose TTL has elapsed. Unlike the
// teacher's lazy-only L1Cache.Get, this is also exposed as an explicit
// sweep a host can run periodically.
func (b *InMemoryBackend) CleanupExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var expired []string
	for key, e := range b.cache {
		if e.value.IsExpired() || b.policy.ShouldEvict(e.value) {
			expired = append(expired, key)
		}
	}
	count := 0
	for _, key := range expired {
		if b.deleteLocked(key) {
			count++
		}
	}
	return count
}

func (b *InMemoryBackend) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cache)
}

// KnownTags returns every tag currently indexed by at least one live
// entry, satisfying the fragment.TagLister interface for
// Cache.InvalidateByPattern.
func (b *InMemoryBackend) KnownTags() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tags := make([]string, 0, len(b.tagIndex))
	for tag := range b.tagIndex {
		tags = append(tags, tag)
	}
	return tags
}
