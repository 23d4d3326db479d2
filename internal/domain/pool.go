package domain

import "fmt"

// Pool geometry. Major arcana occupy ids [0,22), the minor arcana follow as
// four suits of fourteen consecutive ids each.
const (
	PoolSize   = 78
	MajorCount = 22
	SuitCount  = 4
	SuitSize   = 14
)

// CardID identifies one card of the 78-card pool.
type CardID uint8

// Valid reports whether the id lies inside the pool.
func (c CardID) Valid() bool { return c < PoolSize }

// IsMajor reports whether the card belongs to the major arcana.
func (c CardID) IsMajor() bool { return c < MajorCount }

// Suit returns the suit of a minor card. ok is false for major cards.
func (c CardID) Suit() (s Suit, ok bool) {
	if c.IsMajor() {
		return 0, false
	}
	return Suit((c - MajorCount) / SuitSize), true
}

// Rank returns the 1-based rank of a minor card within its suit
// (1 = Ace, 11 = Page, 12 = Knight, 13 = Queen, 14 = King), or 0 for a major card.
func (c CardID) Rank() int {
	if c.IsMajor() {
		return 0
	}
	return int(c-MajorCount)%SuitSize + 1
}

// Suit is one of the four minor arcana suits.
type Suit uint8

const (
	Wands Suit = iota
	Cups
	Swords
	Pentacles
)

var suitNames = [SuitCount]string{"Wands", "Cups", "Swords", "Pentacles"}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return fmt.Sprintf("Suit(%d)", uint8(s))
}

// mustValid panics with an InvariantViolation when any card is outside the pool.
func mustValid(op string, cards ...CardID) {
	for _, c := range cards {
		if !c.Valid() {
			panic(InvariantViolation{Op: op, Card: c})
		}
	}
}
