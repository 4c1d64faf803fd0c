package skiplist

import "runtime"

// TryRemove logically deletes key's entry and schedules its physical
// unlink on the orchestrator. It returns false if key has no live entry.
// Once isDeleted is published, TryRemove never leaves the key claimed:
// removing the byKey entry here (rather than waiting for the background
// unlink) lets a racing TryAdd for the same key proceed without waiting
// on the orchestrator.
func (s *SkipList[K, P]) TryRemove(key K) bool {
	n, ok := s.loadLive(key)
	if !ok {
		return false
	}

	n.mu.Lock()
	if n.isDeleted.Load() {
		n.mu.Unlock()
		return false
	}
	n.isDeleted.Store(true)
	n.mu.Unlock()

	s.byKey.CompareAndDelete(key, n)
	s.unschedulePredecessors(n)
	s.count.Add(-1)
	return true
}

// TryRemoveMin logically deletes and schedules the unlink of the
// minimum-priority entry, repeating past already-deleted or
// not-yet-published head successors until it either claims a live node
// or observes the list empty. It returns (false, zero) on an empty list.
func (s *SkipList[K, P]) TryRemoveMin() (K, bool) {
	for {
		candidate := s.head.next[0].Load()
		if candidate.kind == kindTail {
			var zero K
			return zero, false
		}

		if !candidate.isInserted.Load() {
			s.metrics.incRemoveRetry()
			runtime.Gosched()
			continue
		}

		candidate.mu.Lock()
		if candidate.isDeleted.Load() {
			candidate.mu.Unlock()
			// Already logically deleted but not yet physically unlinked
			// by the orchestrator; yield instead of hammering the same
			// head.next[0] read.
			s.metrics.incRemoveRetry()
			runtime.Gosched()
			continue
		}
		candidate.isDeleted.Store(true)
		candidate.mu.Unlock()

		s.byKey.CompareAndDelete(candidate.key, candidate)
		s.unschedulePredecessors(candidate)
		s.count.Add(-1)
		return candidate.key, true
	}
}

// unschedulePredecessors hands the node's unlink job to the orchestrator.
// It does not search for predecessors itself: physicalUnlink re-locates
// them by walking each level from head when the job runs (they may have
// changed since the node was spliced in), satisfying §4.5's idempotence
// requirement: physicalUnlink is a no-op if the node was already
// unlinked by the time the job runs. A job that panics is counted in
// Metrics.UnlinkJobsFailed before the panic continues to the orchestrator.
func (s *SkipList[K, P]) unschedulePredecessors(n *node[K, P]) {
	topLevel := n.topLevel
	s.orchestrator.Run(func() {
		defer func() {
			if r := recover(); r != nil {
				s.metrics.incUnlinkFailed()
				panic(r)
			}
		}()
		s.physicalUnlink(n, topLevel)
	})
}
