package domain

import "sync"

// TierOdds holds the exact number of unordered three-card combinations that
// classify into each tier. Classification ignores slot order, so the ratios
// also hold for ordered draws.
type TierOdds struct {
	Counts map[Rarity]int
	Total  int
}

// Probability returns the chance of r under a uniform draw.
func (o TierOdds) Probability(r Rarity) float64 {
	if o.Total == 0 {
		return 0
	}
	return float64(o.Counts[r]) / float64(o.Total)
}

var computeOdds = sync.OnceValue(func() TierOdds {
	odds := TierOdds{Counts: make(map[Rarity]int, len(Rarities))}
	for a := 0; a < PoolSize; a++ {
		for b := a + 1; b < PoolSize; b++ {
			for c := b + 1; c < PoolSize; c++ {
				odds.Counts[Classify([3]CardID{CardID(a), CardID(b), CardID(c)})]++
				odds.Total++
			}
		}
	}
	return odds
})

// ExactTierOdds enumerates all C(78,3) combinations once and caches the result.
// Callers must not mutate the returned map.
func ExactTierOdds() TierOdds {
	return computeOdds()
}
