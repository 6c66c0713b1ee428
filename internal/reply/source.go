package reply

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the random source used for delays and pool selection.
// Implementations must return values in [0, n).
type Source interface {
	IntN(n int) int
	Int64N(n int64) int64
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a goroutine-safe PCG source. A zero seed is replaced by
// the current time.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Int64N(n)
}

// pick selects one element of pool uniformly; it returns "" for an empty pool.
func pick(src Source, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[src.IntN(len(pool))]
}
