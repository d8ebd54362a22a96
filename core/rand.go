package core

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the minimal random source consumed by the negotiation core. Every
// stochastic decision (bias assignment, round ordering, validation jitter,
// name fusion) flows through this interface so a fixed-seed implementation
// makes the full pipeline deterministic in tests.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Perm(n int) []int
}

// lockedRand guards a *rand.Rand with a mutex. math/rand sources are not
// safe for concurrent use and directory audits may run from other goroutines.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRand returns a seedable Rand. Use a fixed seed for deterministic tests.
func NewRand(seed int64) Rand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

// NewTimeRand returns a Rand seeded from the wall clock.
func NewTimeRand() Rand {
	return NewRand(time.Now().UnixNano())
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

func (l *lockedRand) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Perm(n)
}
