// Package cache implements an in-memory cache keyed by string, ordered
// for eviction by an injected PriorityFunc, backed by a skiplist.SkipList.
// It mirrors the teacher's database.go Get/Put/Delete trio, renamed to
// the vocabulary a cache API uses and with the JSON document tree and
// SSE notification calls it was wired to in the teacher stripped out —
// this package is the "simple caching glue" the spec describes as
// peripheral to the priority queue itself, not a persistence layer.
package cache

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/concurrentskip/cpslcache/skiplist"
)

// PriorityFunc assigns an eviction priority to a newly cached value. The
// skip list evicts the minimum priority first, so a recency policy
// should return larger numbers for more recently used entries (so the
// least-recently-used one sorts first) and a cost policy should return
// the value's cost directly (so the cheapest entry is evicted first).
type PriorityFunc[V any] func(key string, value V) int64

// SequencePriority returns a PriorityFunc that assigns strictly
// increasing priorities in call order, so the oldest insertion is always
// the eviction candidate — an insertion-order (FIFO) eviction policy.
// Set/SetOrUpdate call the returned func from whatever goroutine invokes
// them with no external lock, so the counter itself is atomic.
func SequencePriority[V any]() PriorityFunc[V] {
	var seq atomic.Int64
	return func(string, V) int64 {
		return seq.Add(1)
	}
}

// RecencyPriority returns a PriorityFunc that assigns the current Unix
// nanosecond timestamp, so repeated SetOrUpdate calls on the same key push
// it to the back of the eviction order (Set rejects a key that is already
// present, so it never refreshes one) — an LRU-flavored policy, since the
// minimum timestamp (least recently set) is evicted first.
func RecencyPriority[V any]() PriorityFunc[V] {
	return func(string, V) int64 {
		return time.Now().UnixNano()
	}
}

// entry pairs a cached value with the priority it was assigned on Set,
// so Get can hand back the value without re-deriving its priority.
type entry[V any] struct {
	value    V
	priority int64
}

// Cache is an in-memory, capacity-bounded cache. Eviction on overflow is
// handled entirely by the underlying SkipList's TryAdd per its capacity
// invariant; Cache only translates key/value calls into key/priority
// skip list operations.
type Cache[V any] struct {
	list     *skiplist.SkipList[string, entry[V]]
	priority PriorityFunc[V]
	logger   *slog.Logger
}

// Options configures a Cache.
type Options[V any] struct {
	MaxSize              int
	MaxLevels            int
	PromotionProbability float64
	Priority             PriorityFunc[V]
	Orchestrator         skiplist.Orchestrator
	Logger               *slog.Logger
}

func entryComparator[V any]() skiplist.Comparator[entry[V]] {
	return func(a, b entry[V]) int {
		switch {
		case a.priority < b.priority:
			return -1
		case a.priority > b.priority:
			return 1
		default:
			return 0
		}
	}
}

// New constructs an empty Cache. If opts.Priority is nil, entries are
// evicted in insertion order (SequencePriority). If opts.Orchestrator is
// nil, physical unlinking runs inline on the calling goroutine.
func New[V any](opts Options[V]) (*Cache[V], error) {
	priority := opts.Priority
	if priority == nil {
		priority = SequencePriority[V]()
	}
	orchestrator := opts.Orchestrator
	if orchestrator == nil {
		orchestrator = skiplist.InlineOrchestrator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	list, err := skiplist.New[string, entry[V]](entryComparator[V](), orchestrator, skiplist.Options{
		MaxSize:              opts.MaxSize,
		MaxLevels:            opts.MaxLevels,
		PromotionProbability: opts.PromotionProbability,
		Logger:               logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: failed to construct backing skiplist: %w", err)
	}

	return &Cache[V]{list: list, priority: priority, logger: logger}, nil
}

// Get retrieves the value cached under key. It returns false if key has
// no live entry, mirroring database.go's GetDatabase "not found" path.
func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.list.TryGetValue(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set inserts value under key with a priority assigned by the cache's
// PriorityFunc. It reports false if key already has a live entry —
// callers that want to overwrite an existing key should call Delete
// first, or use SetOrUpdate.
func (c *Cache[V]) Set(key string, value V) bool {
	added := c.list.TryAdd(key, entry[V]{value: value, priority: c.priority(key, value)})
	if !added {
		c.logger.Warn("cache: set rejected, key already present", "key", key)
	}
	return added
}

// SetOrUpdate inserts value under key, replacing any existing live entry
// for key (logical-delete-then-insert, the same mechanism skiplist.Update
// uses, so readers never observe key briefly absent as a distinct state
// from "never had a value"). When two callers race to SetOrUpdate the
// same not-yet-existing key, both may see Update fail; the loser then
// retries the whole attempt instead of assuming TryAdd will succeed, since
// the winner's insert means TryAdd would otherwise fail too and silently
// drop the loser's value.
func (c *Cache[V]) SetOrUpdate(key string, value V) {
	for {
		newEntry := entry[V]{value: value, priority: c.priority(key, value)}
		if err := c.list.Update(key, func(string, entry[V]) entry[V] { return newEntry }); err == nil {
			return
		}
		if c.list.TryAdd(key, newEntry) {
			return
		}
	}
}

// Delete removes key's cached value, mirroring database.go's
// DeleteDatabase. It reports false if key had no live entry.
func (c *Cache[V]) Delete(key string) bool {
	return c.list.TryRemove(key)
}

// EvictOldest evicts and returns the lowest-priority live entry's key,
// the cache's direct exercise of TryRemoveMin.
func (c *Cache[V]) EvictOldest() (string, bool) {
	return c.list.TryRemoveMin()
}

// Len returns the number of live entries currently cached.
func (c *Cache[V]) Len() int {
	return c.list.GetCount()
}

// Keys returns every live key in ascending eviction-priority order — the
// range-query analogue of database.go's GetDatabase(start, end), reduced
// to "everything" since the cache has no document-path range concept.
func (c *Cache[V]) Keys() []string {
	entries := c.list.ToArray()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}
