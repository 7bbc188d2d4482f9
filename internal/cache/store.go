package cache

import (
	"container/list"
	"sync"
	"time"
)

// Hit is the result of a successful store lookup. Stale entries keep
// their data; staleness only changes how callers treat them.
type Hit[T any] struct {
	Data  T
	Stale bool
}

// Store is a concurrency-safe in-memory key/value store with a TTL per
// entry. Expired entries are not removed; staleness is computed
// lazily at read time so a stale value remains usable as a fallback.
//
// An optional capacity bound evicts least-recently-used entries; with
// maxEntries <= 0 the store is unbounded.
type Store[T any] struct {
	mu         sync.RWMutex
	maxEntries int
	items      map[string]*list.Element
	lru        *list.List // Front = most recently used

	now func() time.Time // overridable for tests
}

type storeEntry[T any] struct {
	key      string
	data     T
	storedAt time.Time
	ttl      time.Duration
}

// NewStore creates a store. maxEntries <= 0 means unbounded.
func NewStore[T any](maxEntries int) *Store[T] {
	return &Store[T]{
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		now:        time.Now,
	}
}

// Get returns the current value for key annotated with staleness, or
// ok=false if the key was never set. Absence is not an error.
func (s *Store[T]) Get(key string) (Hit[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		var zero Hit[T]
		return zero, false
	}
	s.lru.MoveToFront(el)

	e := el.Value.(*storeEntry[T])
	return Hit[T]{
		Data:  e.data,
		Stale: s.now().Sub(e.storedAt) > e.ttl,
	}, true
}

// Set writes key unconditionally, overwriting any previous entry and
// resetting its stored-at time.
func (s *Store[T]) Set(key string, data T, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		e := el.Value.(*storeEntry[T])
		e.data = data
		e.storedAt = s.now()
		e.ttl = ttl
		s.lru.MoveToFront(el)
		return
	}

	el := s.lru.PushFront(&storeEntry[T]{
		key:      key,
		data:     data,
		storedAt: s.now(),
		ttl:      ttl,
	})
	s.items[key] = el

	if s.maxEntries > 0 && s.lru.Len() > s.maxEntries {
		oldest := s.lru.Back()
		if oldest != nil {
			s.lru.Remove(oldest)
			delete(s.items, oldest.Value.(*storeEntry[T]).key)
		}
	}
}

// Len returns the number of entries currently held, stale included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
