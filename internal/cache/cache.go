package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Memo is an in-process cache of analysis results keyed on the xxhash of
// the raw file contents. Identical files analyzed in one run are parsed once.
// A nil *Memo is valid and caches nothing.
type Memo[V any] struct {
	mu      sync.RWMutex
	entries map[uint64]V
	hits    int
	misses  int
}

// Stats reports memo effectiveness.
type Stats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// NewMemo creates an empty memo.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[uint64]V)}
}

// Key hashes raw bytes into a memo key.
func Key(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Get returns the value stored for data, if any.
func (m *Memo[V]) Get(data []byte) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.entries[Key(data)]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return v, ok
}

// Put stores v for data, replacing any previous value.
func (m *Memo[V]) Put(data []byte, v V) {
	if m == nil {
		return
	}

	m.mu.Lock()
	m.entries[Key(data)] = v
	m.mu.Unlock()
}

// GetOrCompute returns the memoized value for data, or calls compute and
// stores its result. Failed computations are not stored. Two goroutines
// racing on the same contents may both compute; the last one wins.
func (m *Memo[V]) GetOrCompute(data []byte, compute func() (V, error)) (V, error) {
	if v, ok := m.Get(data); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	m.Put(data, v)
	return v, nil
}

// Len returns the number of stored entries.
func (m *Memo[V]) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns hit and miss counters.
func (m *Memo[V]) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Entries: len(m.entries), Hits: m.hits, Misses: m.misses}
}
