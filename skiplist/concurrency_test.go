package skiplist

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

func TestConcurrentDisjointInsertsLandInOrder(t *testing.T) {
	list, err := New[int, int](intCmp, InlineOrchestrator{}, Options{MaxSize: 10_000})
	require.NoError(t, err)

	const n = 1000
	var wg sync.WaitGroup
	half := n / 2
	for _, rng := range [][2]int{{1, half + 1}, {half + 1, n + 1}} {
		rng := rng
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := rng[0]; k < rng[1]; k++ {
				list.TryAdd(k, k)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, n, list.GetCount())

	var keys []int
	for _, e := range list.ToArray() {
		keys = append(keys, e.Key)
	}
	require.Len(t, keys, n)
	assert.True(t, slices.IsSorted(keys), "level-0 enumeration must be ascending by priority")
	for i, k := range keys {
		assert.Equal(t, i+1, k)
	}
}

func TestConcurrentAddRemoveMinConservesCount(t *testing.T) {
	list, err := New[int, int](intCmp, InlineOrchestrator{}, Options{MaxSize: 1_000_000})
	require.NoError(t, err)

	const goroutines = 8
	const opsPerGoroutine = 500

	var addTrue, removeTrue int64
	var mu sync.Mutex

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			localAdds, localRemoves := 0, 0
			for i := 0; i < opsPerGoroutine; i++ {
				key := g*opsPerGoroutine + i
				if list.TryAdd(key, key) {
					localAdds++
				}
				if _, ok := list.TryRemoveMin(); ok {
					localRemoves++
				}
			}
			mu.Lock()
			addTrue += int64(localAdds)
			removeTrue += int64(localRemoves)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int(addTrue-removeTrue), list.GetCount())
}

func TestConcurrentMixedOperationsStorm(t *testing.T) {
	list, err := New[int, int](intCmp, InlineOrchestrator{}, Options{MaxSize: 10_000})
	require.NoError(t, err)

	seed := time.Now().UnixNano()
	t.Logf("seed=%d", seed)

	const keySpace = 128
	goroutines := max(2*runtime.GOMAXPROCS(0), 4)
	const opsPerGoroutine = 2000

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		g := g
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := newXorshift(uint64(seed))
			for i := 0; i < opsPerGoroutine; i++ {
				key := int(r.next() % keySpace)
				switch r.next() % 4 {
				case 0:
					list.TryAdd(key, key)
				case 1:
					list.TryRemove(key)
				case 2:
					list.Contains(key)
				case 3:
					list.TryGetValue(key)
				}
			}
		}(seed + int64(g))
	}
	wg.Wait()

	entries := list.ToArray()
	seen := map[int]bool{}
	for i, e := range entries {
		assert.False(t, seen[e.Key], "duplicate key %d in snapshot", e.Key)
		seen[e.Key] = true
		if i > 0 {
			assert.LessOrEqual(t, entries[i-1].Priority, e.Priority)
		}
	}
}

// xorshift is a tiny deterministic PRNG so storm tests are reproducible
// from a logged seed without dragging in math/rand's global lock.
type xorshift struct{ state uint64 }

func newXorshift(seed uint64) *xorshift {
	if seed == 0 {
		seed = 0xdeadbeefcafebabe
	}
	return &xorshift{state: seed}
}

func (x *xorshift) next() uint64 {
	x.state ^= x.state << 13
	x.state ^= x.state >> 7
	x.state ^= x.state << 17
	return x.state
}

func TestUpdateUnderConcurrentRemove(t *testing.T) {
	list := newTestList(t)
	require.True(t, list.TryAdd("a", 1))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		list.TryRemove("a")
	}()
	go func() {
		defer wg.Done()
		_ = list.UpdateValue("a", 2)
	}()
	wg.Wait()

	// Either order is acceptable: the key ends up absent, or present with
	// priority 2 if Update's re-insert raced ahead of the remover.
	if priority, ok := list.TryGetValue("a"); ok {
		assert.Equal(t, 2, priority)
	}
}
