package domain

import (
	"fmt"
	"slices"
)

// Rarity is the ordered classification of a three-card draw.
type Rarity uint8

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
)

// Rarities lists every tier from lowest to highest.
var Rarities = []Rarity{Common, Uncommon, Rare, Epic, Legendary}

var rarityNames = [...]string{"Common", "Uncommon", "Rare", "Epic", "Legendary"}

func (r Rarity) String() string {
	if int(r) < len(rarityNames) {
		return rarityNames[r]
	}
	return fmt.Sprintf("Rarity(%d)", uint8(r))
}

// ParseRarity is the inverse of Rarity.String.
func ParseRarity(s string) (Rarity, error) {
	for i, name := range rarityNames {
		if name == s {
			return Rarity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

// Classify scores a draw. Rules are checked from Legendary downwards and the
// first match wins.
func Classify(cards [3]CardID) Rarity {
	mustValid("classify", cards[:]...)

	majors := 0
	for _, c := range cards {
		if c.IsMajor() {
			majors++
		}
	}

	switch {
	case majors == 3:
		return Legendary
	case isSequential(cards):
		return Epic
	case sameMinorSuit(cards):
		return Rare
	case majors == 2:
		return Uncommon
	default:
		return Common
	}
}

func isSequential(cards [3]CardID) bool {
	sorted := cards
	slices.Sort(sorted[:])
	return sorted[1] == sorted[0]+1 && sorted[2] == sorted[1]+1
}

// sameMinorSuit reports whether at least two cards are minor and all minor
// cards share a suit. Major cards are ignored.
func sameMinorSuit(cards [3]CardID) bool {
	var suits []Suit
	for _, c := range cards {
		if s, ok := c.Suit(); ok {
			suits = append(suits, s)
		}
	}
	if len(suits) < 2 {
		return false
	}
	for _, s := range suits[1:] {
		if s != suits[0] {
			return false
		}
	}
	return true
}
