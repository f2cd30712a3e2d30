package game

import (
	mathrand "math/rand"
	"sync"
	"time"
)

// Rand is the source of every random draw the engine makes.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// LockedRand serializes access to a math/rand source so one Engine can
// serve concurrent requests.
type LockedRand struct {
	mu  sync.Mutex
	src *mathrand.Rand
}

// NewLockedRand seeds from the clock when seed is zero.
func NewLockedRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{src: mathrand.New(mathrand.NewSource(seed))}
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

func (r *LockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// randInt draws uniformly from [lo, hi] inclusive.
func randInt(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// randFloat draws uniformly from [lo, hi).
func randFloat(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func chance(r Rand, p float64) bool {
	return r.Float64() < p
}

func pick[T any](r Rand, options []T) T {
	if len(options) == 0 {
		var zero T
		return zero
	}
	return options[r.Intn(len(options))]
}
