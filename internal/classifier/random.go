package classifier

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mikey/phishing-scanner/internal/core"
)

// lockedSource serializes access to a *rand.Rand, which is not safe for
// concurrent use
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource returns a goroutine-safe random source.
// A zero seed seeds from the clock.
func NewRandomSource(seed uint64) core.RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// IntN returns a uniform integer in [0,n)
func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
