package stackem

import (
	"casino-hub/internal/cards"

	"github.com/shopspring/decimal"
)

const Target = 21

var lineMultipliers = map[int]decimal.Decimal{
	2: decimal.RequireFromString("1.5"),
	3: decimal.RequireFromString("2.0"),
	4: decimal.RequireFromString("2.5"),
	5: decimal.RequireFromString("3.0"),
}

// Multiplier returns the payout multiplier for a line of exactly 21 built
// from the given number of cards.
func Multiplier(cardsUsed int) (decimal.Decimal, bool) {
	m, ok := lineMultipliers[cardsUsed]
	return m, ok
}

// Payout is ante × cardsUsed × multiplier(cardsUsed), truncated to whole chips.
func Payout(ante int64, cardsUsed int) int64 {
	m, ok := Multiplier(cardsUsed)
	if !ok || ante <= 0 {
		return 0
	}
	return decimal.NewFromInt(ante).
		Mul(decimal.NewFromInt(int64(cardsUsed))).
		Mul(m).
		IntPart()
}

// LineTotal counts one ace as 11 when that keeps the line at or under 21.
func LineTotal(line []cards.Card) int {
	total := hardTotal(line)
	for _, c := range line {
		if c.Rank == cards.Ace && total+10 <= Target {
			return total + 10
		}
	}
	return total
}

func hardTotal(line []cards.Card) int {
	total := 0
	for _, c := range line {
		total += c.Points()
	}
	return total
}
