package skiplist

import "runtime"

// TryAdd inserts key with the given priority. It returns false without
// error if key already has a live entry (duplicate keys are rejected, not
// treated as an error — §4.10). Validation failures against concurrent
// mutators are retried internally and never surface to the caller.
//
// Uniqueness is enforced through a key->node index rather than the
// priority-keyed WeakSearch the source text describes (see §4.2/§9 open
// question 2): the public API only ever receives a key for Contains,
// TryRemove, TryGetValue and Update, so priority-based duplicate
// detection cannot answer "does this key already exist" on its own.
func (s *SkipList[K, P]) TryAdd(key K, priority P) bool {
	for {
		if duplicate, settled := s.probeExisting(key); settled {
			return !duplicate
		}

		insertLevel := s.levels.generate()
		candidate := newDataNode[K, P](key, priority, insertLevel)

		actual, loaded := s.byKey.LoadOrStore(key, candidate)
		if loaded {
			existing := actual.(*node[K, P])
			if existing.isDeleted.Load() {
				// Stale mapping left by a remover that hasn't gotten to
				// cleaning up the index yet; help it along and retry.
				s.byKey.CompareAndDelete(key, existing)
				continue
			}
			s.spinUntilSettled(existing)
			continue
		}

		if s.spliceIn(candidate, insertLevel, priority) {
			candidate.isInserted.Store(true)
			newCount := s.count.Add(1)
			if s.maxSize != Unbounded && newCount > int64(s.maxSize) {
				s.TryRemoveMin()
			}
			return true
		}

		// Lost the splice race; give the key back and retry the whole op.
		s.byKey.CompareAndDelete(key, candidate)
		s.metrics.incAddRetry()
	}
}

// probeExisting checks whether key already maps to a node and, if so,
// waits for it to settle (become inserted or deleted). It reports
// (duplicate, settled): settled is true when the caller can act on
// duplicate immediately; settled is false when there was nothing mapped
// and the caller should proceed to claim the key itself.
func (s *SkipList[K, P]) probeExisting(key K) (duplicate bool, settled bool) {
	existing, ok := s.byKey.Load(key)
	if !ok {
		return false, false
	}
	n := existing.(*node[K, P])
	if n.isDeleted.Load() {
		// Already gone (or never published); let the caller race to
		// claim the key fresh rather than treating it as a duplicate.
		return false, false
	}
	s.spinUntilSettled(n)
	if n.isDeleted.Load() {
		return false, false
	}
	return true, true
}

// spinUntilSettled busy-waits until n is inserted or deleted.
func (s *SkipList[K, P]) spinUntilSettled(n *node[K, P]) {
	for !n.isInserted.Load() && !n.isDeleted.Load() {
		runtime.Gosched()
	}
}

// spliceIn performs the lock-bottom-up, validate, link sequence from §4.3
// steps 3-5. It reports whether the node was linked; on false the caller
// must retry from a fresh WeakSearch. Setting isInserted and updating the
// count are left to the caller (TryAdd), after spliceIn has returned and
// released its locks.
//
// preds[level] is frequently the same node across several levels (every
// insert near head, for one), so locking is tracked in lockedNodes and
// skipped for a predecessor already held, mirroring the teacher's
// lockedNodes discipline in Upsert; without it a repeated predecessor's
// non-reentrant mutex would deadlock the goroutine against itself.
func (s *SkipList[K, P]) spliceIn(candidate *node[K, P], insertLevel int, priority P) bool {
	_, preds, succs := s.weakSearch(priority)

	lockedNodes := make(map[*node[K, P]]bool, insertLevel+1)
	defer func() {
		for n := range lockedNodes {
			n.mu.Unlock()
		}
	}()

	valid := true
	for level := 0; level <= insertLevel; level++ {
		pred := preds[level]
		succ := succs[level]

		if !lockedNodes[pred] {
			pred.mu.Lock()
			lockedNodes[pred] = true
		}

		if pred.isDeleted.Load() {
			valid = false
			break
		}
		if succ.kind == kindData && succ.isDeleted.Load() {
			valid = false
			break
		}
		if pred.next[level].Load() != succ {
			valid = false
			break
		}
	}

	if !valid {
		return false
	}

	for level := 0; level <= insertLevel; level++ {
		candidate.next[level].Store(succs[level])
	}
	for level := 0; level <= insertLevel; level++ {
		preds[level].next[level].Store(candidate)
	}
	return true
}
