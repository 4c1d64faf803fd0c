// Package skiplist implements a concurrent priority queue as a lock-based
// probabilistic skip list with logical deletion and deferred physical
// unlinking. Writers splice new nodes in under per-predecessor locks;
// readers (Contains, TryGetValue, Iterate) never block. Physical removal
// of logically deleted nodes is handed off to an injected Orchestrator so
// writer critical sections stay short.
package skiplist

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultMaxSize, DefaultMaxLevels and DefaultPromotionProbability match
// the constructor defaults described by the spec this package implements.
const (
	DefaultMaxSize              = 10_000
	DefaultMaxLevels            = 32
	DefaultPromotionProbability = 0.5

	// Unbounded, passed as Options.MaxSize, disables capacity-triggered
	// eviction entirely; TryAdd never calls TryRemoveMin on its own
	// behalf. Callers that evict on their own schedule (sessionexpiry's
	// Reaper, for instance) want this instead of a very large MaxSize.
	Unbounded = -1
)

// Comparator orders two priorities, returning a negative number if a < b,
// zero if equal, and positive if a > b. It must be pure and safe to call
// concurrently from any number of goroutines.
type Comparator[P any] func(a, b P) int

// Orchestrator runs a deferred job on a background worker. Implementations
// are free to use a dedicated goroutine, a worker pool, or inline
// execution (useful in tests, see InlineOrchestrator).
type Orchestrator interface {
	Run(job func())
}

// InlineOrchestrator runs every job synchronously on the calling
// goroutine. It exists for tests and for callers who would rather pay the
// physical-unlink cost inline than stand up a worker pool.
type InlineOrchestrator struct{}

// Run implements Orchestrator by invoking job immediately.
func (InlineOrchestrator) Run(job func()) { job() }

// Options configures a SkipList beyond the required comparator and
// orchestrator.
type Options struct {
	MaxSize              int
	MaxLevels            int
	PromotionProbability float64
	Logger               *slog.Logger
}

// SkipList is a concurrent priority queue ordered by Comparator and keyed
// by K. At most one non-deleted entry with a given key exists at any time
// (invariant 6); entries are ordered by priority, with a secondary
// key->node index resolving the lookup-by-key operations (Contains,
// TryGetValue, TryRemove, Update) that the underlying chain, ordered by
// priority alone, cannot answer on its own. See DESIGN.md "Keyed by key
// vs. ordered by priority" for why this index exists instead of assuming
// key and priority coincide.
type SkipList[K comparable, P any] struct {
	head *node[K, P]
	tail *node[K, P]

	maxLevels            int
	promotionProbability float64
	maxSize              int

	cmp          Comparator[P]
	orchestrator Orchestrator
	levels       *levelGenerator
	logger       *slog.Logger
	metrics      *metrics

	count atomic.Int64

	byKey sync.Map // K -> *node[K, P]
}

// New constructs an empty SkipList. comparator and orchestrator are
// required; maxLevels must not be negative and promotionProbability must
// lie in [0, 1], or New returns ErrInvalidArgument. A zero MaxLevels,
// PromotionProbability or MaxSize selects DefaultMaxLevels,
// DefaultPromotionProbability or DefaultMaxSize, so a promotion
// probability of exactly 0 cannot be requested.
func New[K comparable, P any](comparator Comparator[P], orchestrator Orchestrator, opts Options) (*SkipList[K, P], error) {
	if comparator == nil || orchestrator == nil {
		return nil, ErrInvalidArgument
	}

	maxLevels := opts.MaxLevels
	if maxLevels == 0 {
		maxLevels = DefaultMaxLevels
	}
	if maxLevels <= 0 {
		return nil, ErrInvalidArgument
	}

	promotionProbability := opts.PromotionProbability
	if promotionProbability == 0 {
		promotionProbability = DefaultPromotionProbability
	}
	if promotionProbability < 0 || promotionProbability > 1 {
		return nil, ErrInvalidArgument
	}

	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	if maxSize < 0 && maxSize != Unbounded {
		return nil, ErrInvalidArgument
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	head := newSentinel[K, P](kindHead, maxLevels)
	tail := newSentinel[K, P](kindTail, maxLevels)
	for level := 0; level < maxLevels; level++ {
		head.next[level].Store(tail)
	}

	return &SkipList[K, P]{
		head:                 head,
		tail:                 tail,
		maxLevels:            maxLevels,
		promotionProbability: promotionProbability,
		maxSize:              maxSize,
		cmp:                  comparator,
		orchestrator:         orchestrator,
		levels:               newLevelGenerator(promotionProbability, maxLevels),
		logger:               logger,
		metrics:              newMetrics(),
	}, nil
}

// less reports whether n's ordering position is strictly before priority.
// head is less than everything, tail is less than nothing.
func (s *SkipList[K, P]) less(n *node[K, P], priority P) bool {
	switch n.kind {
	case kindHead:
		return true
	case kindTail:
		return false
	default:
		return s.cmp(n.loadPriority(), priority) < 0
	}
}

// equalPriority reports whether a data node's priority equals priority.
func (s *SkipList[K, P]) equalPriority(n *node[K, P], priority P) bool {
	if n.kind != kindData {
		return false
	}
	return s.cmp(n.loadPriority(), priority) == 0
}

// GetCount returns the atomic element count. It may be loosely consistent
// with concurrent mutation in flight (Non-goal: strict linearizability).
func (s *SkipList[K, P]) GetCount() int {
	return int(s.count.Load())
}

// Metrics exposes the list's contention and orchestrator counters, the
// observable health signal required for background unlink failures (§4.10).
func (s *SkipList[K, P]) Metrics() Metrics {
	return s.metrics.snapshot()
}

// Contains reports whether key has a live (inserted, not deleted) entry.
func (s *SkipList[K, P]) Contains(key K) bool {
	n, ok := s.loadLive(key)
	return ok && n != nil
}

// TryGetValue returns the priority stored for key and true if key has a
// live entry, or the zero value and false otherwise. It reads the
// priority without locking, which is safe because Update is implemented
// as logical-delete-then-insert rather than an in-place mutation (§4.6).
func (s *SkipList[K, P]) TryGetValue(key K) (P, bool) {
	n, ok := s.loadLive(key)
	if !ok {
		var zero P
		return zero, false
	}
	return n.loadPriority(), true
}

// loadLive returns the node registered for key if it is both inserted and
// not (yet) logically deleted.
func (s *SkipList[K, P]) loadLive(key K) (*node[K, P], bool) {
	v, ok := s.byKey.Load(key)
	if !ok {
		return nil, false
	}
	n := v.(*node[K, P])
	if !n.isInserted.Load() || n.isDeleted.Load() {
		return nil, false
	}
	return n, true
}

// UpdateFunc computes a new priority for key given its current priority.
type UpdateFunc[K comparable, P any] func(key K, oldPriority P) P

// Update replaces the priority stored for key. Per the spec this
// implements (b) from §4.6's open question: a logical delete of the old
// entry followed by a fresh TryAdd, which never violates the ordering
// invariant the way an in-place priority mutation would. It fails with
// ErrNotFoundOrDeleted if key has no live entry.
func (s *SkipList[K, P]) Update(key K, fn UpdateFunc[K, P]) error {
	n, ok := s.loadLive(key)
	if !ok {
		return ErrNotFoundOrDeleted
	}
	newPriority := fn(key, n.loadPriority())

	if !s.TryRemove(key) {
		return ErrNotFoundOrDeleted
	}
	// A concurrent TryAdd for the same key between TryRemove publishing
	// isDeleted and this call is indistinguishable from a fresh insert
	// racing ours; TryAdd's key claim via byKey resolves that the same
	// way two concurrent TryAdd(key, ...) calls would.
	s.TryAdd(key, newPriority)
	return nil
}

// UpdateValue is a convenience wrapper around Update for callers that just
// want to overwrite the priority unconditionally.
func (s *SkipList[K, P]) UpdateValue(key K, priority P) error {
	return s.Update(key, func(K, P) P { return priority })
}
