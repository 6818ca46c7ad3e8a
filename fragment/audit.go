package fragment

import (
	"sync"
	"time"
)

// AuditEntry records one invalidation event. Field shape re-derived
// from the teacher's invalidation/audit.go AuditLog struct, re-scoped
// from a Postgres-backed compliance log down to an in-process ring
// buffer: nothing in this module persists relationally (see
// DESIGN.md's dropped-pgx entry), and a per-process cache has no
// cross-request audit compliance requirement spec.md asks for.
type AuditEntry struct {
	Tag         string
	KeysRemoved int
	TriggeredBy string
	Timestamp   time.Time
	RequestID   string
	Latency     time.Duration
}

// AuditLog is a bounded, in-memory ring buffer of recent invalidation
// events, useful for an operator debug endpoint or a replay recording
// annotation. It never blocks InvalidateTag on anything external.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	cap     int
	next    int
	full    bool
}

// NewAuditLog creates a ring buffer holding up to capacity entries.
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &AuditLog{entries: make([]AuditEntry, capacity), cap: capacity}
}

// Record appends one invalidation event, overwriting the oldest entry
// once the buffer is full.
func (l *AuditLog) Record(entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next = (l.next + 1) % l.cap
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the buffered entries, oldest first.
func (l *AuditLog) Recent() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		out := make([]AuditEntry, l.next)
		copy(out, l.entries[:l.next])
		return out
	}

	out := make([]AuditEntry, l.cap)
	copy(out, l.entries[l.next:])
	copy(out[l.cap-l.next:], l.entries[:l.next])
	return out
}

// AuditedCache wraps a Cache, recording an AuditEntry for every
// InvalidateTag call.
type AuditedCache struct {
	*Cache
	log *AuditLog
}

// NewAuditedCache attaches an AuditLog to an existing Cache.
func NewAuditedCache(cache *Cache, log *AuditLog) *AuditedCache {
	return &AuditedCache{Cache: cache, log: log}
}

// InvalidateTag invalidates as Cache.InvalidateTag does, additionally
// recording the event with the given triggeredBy/requestID labels.
func (a *AuditedCache) InvalidateTag(tag, triggeredBy, requestID string) (int, error) {
	start := time.Now()
	n, err := a.Cache.InvalidateTag(tag)
	a.log.Record(AuditEntry{
		Tag:         tag,
		KeysRemoved: n,
		TriggeredBy: triggeredBy,
		Timestamp:   start,
		RequestID:   requestID,
		Latency:     time.Since(start),
	})
	return n, err
}
