// internal/game/rand.go
package game

import (
	"math/rand"
	"time"
)

// Rand is the randomness the engine consumes. *rand.Rand satisfies it; tests can inject a seeded
// source or a scripted implementation to assert exact outcomes.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewSeededRand returns a deterministic source.
func NewSeededRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

func newTimeRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
