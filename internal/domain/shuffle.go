package domain

import "encoding/binary"

const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// LCG is the linear congruential generator that drives a seeded draw.
// Arithmetic wraps modulo 2^64.
type LCG struct {
	state uint64
}

// NewLCG initialises the generator from the first 8 bytes of seed (little-endian).
func NewLCG(seed Seed) *LCG {
	return &LCG{state: binary.LittleEndian.Uint64(seed[:8])}
}

// Next advances the generator one step and returns the new state.
func (g *LCG) Next() uint64 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	return g.state
}

func (g *LCG) Intn(n int) int {
	return int(g.Next() % uint64(n))
}

// DrawThree selects three distinct cards from the pool for seed.
// The result is a pure function of the seed.
func DrawThree(seed Seed) [3]CardID {
	return DrawThreeWith(NewLCG(seed))
}

// DrawThreeWith runs a full Fisher-Yates descent over the pool using rng and
// returns the cards that land in positions 0, 1 and 2.
func DrawThreeWith(rng RNG) [3]CardID {
	var pool [PoolSize]CardID
	for i := range pool {
		pool[i] = CardID(i)
	}
	// Position 0 consumes a step too, so every draw advances the generator
	// exactly PoolSize times.
	for i := PoolSize - 1; i >= 0; i-- {
		j := rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return [3]CardID{pool[0], pool[1], pool[2]}
}
