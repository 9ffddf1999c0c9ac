// Package cacheengine implements the semantic cache engine: the
// concurrent, bounded in-memory store keyed by dense embedding vectors
// that answers queries by approximate-nearest-neighbor search under a
// similarity threshold, backed by an LRU response store and one of two
// eviction triggers.
package cacheengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/blueberrycongee/semcache/internal/cacheengine/responsestore"
	"github.com/blueberrycongee/semcache/internal/cacheengine/vectorindex"
)

// exactMatchThreshold is the internal [0,1] similarity used by TryUpdate
// to decide whether an existing entry is "the same" prompt, chosen to
// absorb float rounding rather than requiring bit-identical vectors.
const exactMatchThreshold = 0.99

// topK is fixed at 1: the engine never needs more than the single best
// candidate, and re-ranking beyond top-1 is an explicit non-goal of the
// core (the optional reranker in internal/httpapi operates on the
// cache-aside surface only, never here).
const topK = 1

// Metrics is the best-effort sink the engine reports hit/miss/size events
// to. A nil Metrics is valid; every call site checks before dereferencing.
type Metrics interface {
	CacheHit()
	CacheMiss()
	CacheSize(entries int)
}

// Cache is the polymorphic engine contract: T is the response payload
// type, either []byte (proxy path) or string (cache-aside path).
type Cache[T responsestore.Payload] struct {
	dimension int
	threshold float64
	policy    EvictionPolicy
	logger    *slog.Logger
	metrics   Metrics

	index vectorindex.Store
	store *responsestore.Store[T]
	nextID atomic.Uint64
}

// Option configures a Cache at construction time.
type Option[T responsestore.Payload] func(*Cache[T])

// WithLogger overrides the default slog logger.
func WithLogger[T responsestore.Payload](logger *slog.Logger) Option[T] {
	return func(c *Cache[T]) { c.logger = logger }
}

// WithMetrics attaches a best-effort metrics sink.
func WithMetrics[T responsestore.Payload](m Metrics) Option[T] {
	return func(c *Cache[T]) { c.metrics = m }
}

// New constructs a Cache over the given vector index backend. threshold
// must be in [0,1]; violating this is a construction-time programmer
// error and New panics, matching spec invariant I5 ("violated thresholds
// are a construction-time programmer error").
func New[T responsestore.Payload](dimension int, threshold float64, policy EvictionPolicy, index vectorindex.Store, opts ...Option[T]) *Cache[T] {
	if threshold < 0 || threshold > 1 {
		panic(fmt.Sprintf("cacheengine: similarity threshold %v out of [0,1]", threshold))
	}
	c := &Cache[T]{
		dimension: dimension,
		threshold: threshold,
		policy:    policy,
		logger:    slog.Default(),
		index:     index,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = responsestore.New[T](c.logger)
	return c
}

// GetIfPresent searches the index at top_k=1 under the configured
// threshold and, on a hit, returns the response store's copy. An id found
// in the index but absent from the response store is an invariant
// violation; it is logged and treated as a miss, never surfaced as an
// error, per spec §4.3.
func (c *Cache[T]) GetIfPresent(ctx context.Context, embedding []float32) (T, bool, error) {
	var zero T
	ids, err := c.index.Get(ctx, embedding, topK, c.threshold)
	if err != nil {
		c.observeMiss()
		return zero, false, &IndexError{Op: "get", Err: err}
	}
	if len(ids) == 0 {
		c.observeMiss()
		return zero, false, nil
	}

	id := ids[0]
	response, ok := c.store.Get(id)
	if !ok {
		violation := &InvariantViolation{Invariant: "I1", Detail: fmt.Sprintf("id %d present in index but absent from response store", id)}
		c.logger.Error("treating as miss", "error", violation)
		c.observeMiss()
		return zero, false, nil
	}
	c.observeHit()
	return response, true, nil
}

// Insert allocates a fresh id and writes the response, then the
// embedding, then runs the eviction loop. Response store first, index
// second: if the index write fails, the orphaned response entry is
// simply LRU-evicted on the next cycle, rather than leaving the index
// pointing at a missing response (which would visibly break invariant I1
// until remediated).
func (c *Cache[T]) Insert(ctx context.Context, embedding []float32, response T) (uint64, error) {
	id := c.nextID.Add(1) - 1

	c.store.Put(id, response)

	if err := c.index.Put(ctx, id, embedding); err != nil {
		return id, &IndexError{Op: "put", Err: err}
	}

	if err := c.evictLoop(ctx); err != nil {
		return id, err
	}
	c.observeSize()
	return id, nil
}

// TryUpdate searches at the exact-match threshold and, if found,
// overwrites the response at that id in place. It never grows the store
// and therefore never evicts.
func (c *Cache[T]) TryUpdate(ctx context.Context, embedding []float32, response T) (bool, error) {
	ids, err := c.index.Get(ctx, embedding, topK, exactMatchThreshold)
	if err != nil {
		return false, &IndexError{Op: "get", Err: err}
	}
	if len(ids) == 0 {
		return false, nil
	}
	c.store.Put(ids[0], response)
	return true, nil
}

// Len reports the current entry count, as tracked by the response store.
func (c *Cache[T]) Len() int {
	return c.store.Len()
}

// SearchCandidates searches the index at an arbitrary top_k under the
// configured threshold and returns the (id, response) pairs found,
// skipping any id whose response-store entry is missing (the same
// invariant-violation tolerance as GetIfPresent). Unlike GetIfPresent
// this is not on the engine's hot path: it exists for collaborators that
// need more than the single best candidate, such as the cache-aside
// handler's optional reranker. It reports no metrics and does not evict,
// though each response it returns is marked most-recently-used in the
// response store.
func (c *Cache[T]) SearchCandidates(ctx context.Context, embedding []float32, k int) ([]uint64, []T, error) {
	ids, err := c.index.Get(ctx, embedding, k, c.threshold)
	if err != nil {
		return nil, nil, &IndexError{Op: "get", Err: err}
	}
	foundIDs := make([]uint64, 0, len(ids))
	responses := make([]T, 0, len(ids))
	for _, id := range ids {
		response, ok := c.store.Get(id)
		if !ok {
			violation := &InvariantViolation{Invariant: "I1", Detail: fmt.Sprintf("id %d present in index but absent from response store", id)}
			c.logger.Error("skipping candidate", "error", violation)
			continue
		}
		foundIDs = append(foundIDs, id)
		responses = append(responses, response)
	}
	return foundIDs, responses, nil
}

// evictLoop pops LRU entries and deletes them from the index until the
// eviction policy's predicate is satisfied or the store is empty. Over-
// eviction under concurrent inserters is acceptable (§5); this loop
// itself does no retrying beyond what the policy predicate already
// requires.
func (c *Cache[T]) evictLoop(ctx context.Context) error {
	for c.policy.IsFull(uint64(c.store.Len()), c.memoryUsageBytes()) {
		id, ok := c.store.PopLRU()
		if !ok {
			return nil
		}
		if err := c.index.Delete(ctx, id); err != nil {
			return &IndexError{Op: "delete", Err: err}
		}
	}
	return nil
}

func (c *Cache[T]) memoryUsageBytes() uint64 {
	return c.store.MemoryUsageBytes() + c.index.MemoryUsageBytes()
}

func (c *Cache[T]) observeHit() {
	if c.metrics != nil {
		c.metrics.CacheHit()
	}
}

func (c *Cache[T]) observeMiss() {
	if c.metrics != nil {
		c.metrics.CacheMiss()
	}
}

func (c *Cache[T]) observeSize() {
	if c.metrics != nil {
		c.metrics.CacheSize(c.store.Len())
	}
}
