package skiplist

import (
	"math/rand"
	"sync"
	"time"
)

// levelGenerator produces geometrically distributed insertion levels. Each
// goroutine borrows a *rand.Rand from a pool instead of sharing one RNG
// behind a mutex, the same trade-off the corpus's pooled-RNG skip lists
// make to keep GenerateLevel off the critical section entirely.
type levelGenerator struct {
	promotionProbability float64
	maxLevels            int
	pool                 sync.Pool
}

func newLevelGenerator(promotionProbability float64, maxLevels int) *levelGenerator {
	return &levelGenerator{
		promotionProbability: promotionProbability,
		maxLevels:            maxLevels,
		pool: sync.Pool{
			New: func() any {
				return rand.New(rand.NewSource(time.Now().UnixNano()))
			},
		},
	}
}

// generate returns the smallest L >= 0 such that a Bernoulli(p) trial
// fails, capped at maxLevels-1.
func (g *levelGenerator) generate() int {
	r := g.pool.Get().(*rand.Rand)
	defer g.pool.Put(r)

	level := 0
	for level < g.maxLevels-1 && r.Float64() < g.promotionProbability {
		level++
	}
	return level
}
