// Package cache memoizes canonical forms of families.
//
// A Memo is a bounded map from a family's key to its canonical form. When it
// is full, the whole map is cleared before the next insertion; a memo of
// capacity zero stores nothing. Memos are not safe for concurrent use: the
// sequential search shares one per run and each parallel task owns its own.
package cache

import "github.com/matzehuels/semiframes/pkg/family"

// Cache maps a family key (see family.Family.Key) to a canonical form.
type Cache interface {
	// Get returns the stored canonical form for key, if any.
	Get(key string) (family.Family, bool)

	// Set stores the canonical form for key, evicting as needed.
	Set(key string, canonical family.Family)

	// Len returns the number of stored entries.
	Len() int

	// Stats returns the lookup counters accumulated so far.
	Stats() Stats
}

// Stats counts cache traffic.
type Stats struct {
	Hits   int64
	Misses int64
	Clears int64
}

// Add returns the element-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{Hits: s.Hits + o.Hits, Misses: s.Misses + o.Misses, Clears: s.Clears + o.Clears}
}

// New returns a Memo bounded by capacity, or a Null cache when capacity is
// zero or negative.
func New(capacity int) Cache {
	if capacity <= 0 {
		return NewNull()
	}
	return NewMemo(capacity)
}

// Memo is a bounded in-memory cache with whole-cache-clear eviction.
type Memo struct {
	capacity int
	entries  map[string]family.Family
	stats    Stats
}

// NewMemo creates a memo holding at most capacity entries.
func NewMemo(capacity int) *Memo {
	return &Memo{
		capacity: capacity,
		entries:  make(map[string]family.Family),
	}
}

// Get looks up key.
func (m *Memo) Get(key string) (family.Family, bool) {
	f, ok := m.entries[key]
	if ok {
		m.stats.Hits++
	} else {
		m.stats.Misses++
	}
	return f, ok
}

// Set stores canonical under key. If the memo is full, every entry is
// dropped first.
func (m *Memo) Set(key string, canonical family.Family) {
	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.capacity {
		clear(m.entries)
		m.stats.Clears++
	}
	m.entries[key] = canonical
}

// Len returns the number of stored entries.
func (m *Memo) Len() int { return len(m.entries) }

// Stats returns the lookup counters.
func (m *Memo) Stats() Stats { return m.stats }

var _ Cache = (*Memo)(nil)
