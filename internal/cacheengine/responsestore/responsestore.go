// Package responsestore implements the cache engine's bounded-memory LRU
// map from entry id to stored response. It does not self-evict; it
// exposes PopLRU so the engine can drive eviction against its own policy.
package responsestore

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// baseOverhead is the fixed per-entry bookkeeping cost folded into every
// entry's size, on top of its payload length.
const baseOverhead = 64

// Payload is the set of response types the store accepts: byte slices for
// the proxy path, strings for the cache-aside path. Both expose a byte
// length, which is all the store's size accounting needs.
type Payload interface {
	~[]byte | ~string
}

type entry[T Payload] struct {
	value T
	size  uint64
}

// Store is a bounded-memory LRU map from id to (response, size). Get
// requires a write lock because it mutates recency; byte accounting is
// kept in an atomic counter so memory predicates can consult it
// lock-free.
type Store[T Payload] struct {
	logger *slog.Logger

	mu        sync.Mutex
	lru       *lru.LRU[uint64, entry[T]]
	byteTotal atomic.Uint64
}

// New creates an empty response store. A nil logger falls back to
// slog.Default().
func New[T Payload](logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	// onEvict is nil and the size is math.MaxInt: the store never
	// self-evicts. The engine drives eviction explicitly via PopLRU.
	l, err := lru.NewLRU[uint64, entry[T]](math.MaxInt, nil)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// math.MaxInt never is.
		panic(err)
	}
	return &Store[T]{logger: logger, lru: l}
}

// Put inserts or replaces the response stored at id, recomputing its
// size and adjusting the byte total by new_size - old_size (negative on
// a replace that shrinks the payload).
func (s *Store[T]) Put(id uint64, response T) {
	newSize := computeSize(response)

	defer s.guardPanic("put")
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.lru.Peek(id); ok {
		s.adjustByteTotal(newSize, old.size)
	} else {
		s.byteTotal.Add(newSize)
	}
	s.lru.Add(id, entry[T]{value: response, size: newSize})
}

// Get returns the response stored at id and marks it most-recently-used.
// The second return value is false if id is absent.
func (s *Store[T]) Get(id uint64) (T, bool) {
	defer s.guardPanic("get")
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Get(id)
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// PopLRU removes the least-recently-used entry, decrements the byte
// total by its size, and returns its id. The second return value is
// false if the store is empty.
func (s *Store[T]) PopLRU() (uint64, bool) {
	defer s.guardPanic("pop_lru")
	s.mu.Lock()
	defer s.mu.Unlock()

	id, e, ok := s.lru.RemoveOldest()
	if !ok {
		return 0, false
	}
	subUint64(&s.byteTotal, e.size)
	return id, true
}

// Len returns the current entry count.
func (s *Store[T]) Len() int {
	defer s.guardPanic("len")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// MemoryUsageBytes returns the current byte total, read lock-free.
func (s *Store[T]) MemoryUsageBytes() uint64 {
	return s.byteTotal.Load()
}

func (s *Store[T]) adjustByteTotal(newSize, oldSize uint64) {
	if newSize >= oldSize {
		s.byteTotal.Add(newSize - oldSize)
	} else {
		subUint64(&s.byteTotal, oldSize-newSize)
	}
}

// subUint64 subtracts delta from an atomic counter via two's-complement
// addition; sync/atomic.Uint64 exposes Add but not Sub.
func subUint64(counter *atomic.Uint64, delta uint64) {
	counter.Add(^delta + 1)
}

// guardPanic mirrors vectorindex's fatal-on-panic-while-locked behavior:
// Go mutexes are never poisoned, so this logs and re-raises to approximate
// the spec's mandated fatal abort rather than leaving corrupted state
// silently in play.
func (s *Store[T]) guardPanic(op string) {
	if r := recover(); r != nil {
		s.logger.Error("response store panicked while holding lock, aborting", "op", op, "panic", r)
		panic(r)
	}
}

func computeSize[T Payload](v T) uint64 {
	return baseOverhead + uint64(len(v))
}
