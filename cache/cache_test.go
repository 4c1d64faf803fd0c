package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	c, err := New[string](Options[string]{MaxSize: 10})
	require.NoError(t, err)

	assert.True(t, c.Set("a", "apple"))
	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "apple", value)

	assert.True(t, c.Delete("a"))
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestSetRejectsDuplicateKey(t *testing.T) {
	c, err := New[int](Options[int]{MaxSize: 10})
	require.NoError(t, err)

	require.True(t, c.Set("k", 1))
	assert.False(t, c.Set("k", 2), "Set must not silently overwrite")

	value, _ := c.Get("k")
	assert.Equal(t, 1, value)
}

func TestSetOrUpdateOverwritesExisting(t *testing.T) {
	c, err := New[int](Options[int]{MaxSize: 10})
	require.NoError(t, err)

	c.SetOrUpdate("k", 1)
	c.SetOrUpdate("k", 2)

	value, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, value)
	assert.Equal(t, 1, c.Len())
}

func TestSetOrUpdateConcurrentFirstWriteNeverLosesAValue(t *testing.T) {
	c, err := New[int](Options[int]{MaxSize: 10})
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			c.SetOrUpdate("k", 1)
		}()
	}
	wg.Wait()

	_, ok := c.Get("k")
	assert.True(t, ok, "one of the racing writers must win, not silently vanish")
	assert.Equal(t, 1, c.Len())
}

func TestSequencePriorityEvictsInsertionOrder(t *testing.T) {
	c, err := New[string](Options[string]{MaxSize: 2})
	require.NoError(t, err)

	require.True(t, c.Set("a", "1"))
	require.True(t, c.Set("b", "2"))
	require.True(t, c.Set("c", "3"))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest insertion should have been evicted")
}

func TestEvictOldestOnEmptyCache(t *testing.T) {
	c, err := New[int](Options[int]{MaxSize: 10})
	require.NoError(t, err)

	_, ok := c.EvictOldest()
	assert.False(t, ok)
}

func TestKeysOrderedByPriority(t *testing.T) {
	c, err := New[int](Options[int]{MaxSize: 10})
	require.NoError(t, err)

	require.True(t, c.Set("a", 1))
	require.True(t, c.Set("b", 2))
	require.True(t, c.Set("c", 3))

	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())
}
