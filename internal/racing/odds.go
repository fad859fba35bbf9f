package racing

import "github.com/shopspring/decimal"

const (
	FinishLine        = 6
	PreRaceMultiplier = 4
)

var (
	minLiveOdds  = decimal.RequireFromString("1.2")
	maxLiveOdds  = decimal.RequireFromString("4.0")
	liveOddsBase = decimal.NewFromInt(4)
)

// LiveOdds prices a bet on a suit sitting at position. Odds shrink linearly
// towards the finish line, rounded to one decimal and held in [1.2, 4.0].
func LiveOdds(position int) decimal.Decimal {
	if position < 0 {
		position = 0
	}
	odds := liveOddsBase.
		Mul(decimal.NewFromInt(int64(FinishLine - position))).
		Div(decimal.NewFromInt(FinishLine)).
		Round(1)
	if odds.LessThan(minLiveOdds) {
		return minLiveOdds
	}
	if odds.GreaterThan(maxLiveOdds) {
		return maxLiveOdds
	}
	return odds
}

// PreRacePayout is the credit for a winning bet placed before the start.
func PreRacePayout(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount * PreRaceMultiplier
}

// LivePayout is floor(amount × odds) for a winning live bet.
func LivePayout(amount int64, odds decimal.Decimal) int64 {
	if amount <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(odds).Floor().IntPart()
}
