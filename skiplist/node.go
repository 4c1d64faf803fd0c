package skiplist

import (
	"sync"
	"sync/atomic"
)

// kind distinguishes the two sentinels from ordinary data nodes. head
// compares less than every priority, tail compares greater than every
// priority; neither ever carries a key or a priority value.
type kind uint8

const (
	kindHead kind = iota
	kindTail
	kindData
)

// node is a skip list entry with a fixed-size tower of forward pointers.
// next is allocated once at construction (length topLevel+1) and never
// resized; levels above a node's height simply don't link through it,
// which keeps the subset invariant (level L+1 data nodes subset level L)
// automatic.
//
// isInserted and isDeleted are loaded/stored with acquire/release
// semantics: observing isInserted == true after a WeakSearch also makes
// every write to next[*] performed before publication visible (§4.1).
type node[K comparable, P any] struct {
	kind kind

	key      K
	priority atomic.Pointer[P]

	topLevel int
	next     []atomic.Pointer[node[K, P]]

	mu sync.Mutex

	isInserted atomic.Bool
	isDeleted  atomic.Bool
}

func newSentinel[K comparable, P any](k kind, levels int) *node[K, P] {
	return &node[K, P]{
		kind: k,
		next: make([]atomic.Pointer[node[K, P]], levels),
	}
}

func newDataNode[K comparable, P any](key K, priority P, topLevel int) *node[K, P] {
	n := &node[K, P]{
		kind:     kindData,
		key:      key,
		topLevel: topLevel,
		next:     make([]atomic.Pointer[node[K, P]], topLevel+1),
	}
	n.priority.Store(&priority)
	return n
}

// loadPriority reads the node's current priority without locking. Safe to
// call once isInserted has been observed true; Update replaces the whole
// node (logical delete + re-insert) rather than mutating priority in
// place, so a live node's priority pointer never changes underfoot.
func (n *node[K, P]) loadPriority() P {
	return *n.priority.Load()
}
