package domain

import (
	"fmt"
	"strconv"
)

var majorNames = [MajorCount]string{
	"The Fool",
	"The Magician",
	"The High Priestess",
	"The Empress",
	"The Emperor",
	"The Hierophant",
	"The Lovers",
	"The Chariot",
	"Strength",
	"The Hermit",
	"Wheel of Fortune",
	"Justice",
	"The Hanged Man",
	"Death",
	"Temperance",
	"The Devil",
	"The Tower",
	"The Star",
	"The Moon",
	"The Sun",
	"Judgement",
	"The World",
}

var courtRanks = map[int]string{
	1:  "Ace",
	11: "Page",
	12: "Knight",
	13: "Queen",
	14: "King",
}

// CardName returns the display name of a card, e.g. "The Fool" or "Queen of Cups".
// It panics with InvariantViolation for ids outside the pool.
func CardName(c CardID) string {
	mustValid("card name", c)
	if c.IsMajor() {
		return majorNames[c]
	}
	suit, _ := c.Suit()
	rank, ok := courtRanks[c.Rank()]
	if !ok {
		rank = strconv.Itoa(c.Rank())
	}
	return rank + " of " + suit.String()
}

// FormatReading renders a draw as four lines: the tier, then past, present and future.
func FormatReading(cards [3]CardID, r Rarity) string {
	mustValid("format reading", cards[:]...)
	label := r.String()
	if r == Legendary {
		label += " ⭐"
	}
	return fmt.Sprintf(
		"🔮 Fortune Reading [%s]\n📍 Past: %s (%d)\n⚡ Present: %s (%d)\n🌟 Future: %s (%d)",
		label,
		CardName(cards[SlotPast]), cards[SlotPast],
		CardName(cards[SlotPresent]), cards[SlotPresent],
		CardName(cards[SlotFuture]), cards[SlotFuture],
	)
}
