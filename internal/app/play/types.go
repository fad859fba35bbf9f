package play

import (
	"time"

	"casino-hub/internal/racing"
	"casino-hub/internal/stackem"
)

const (
	XPPerScoredCard = 25
	XPPerWinningBet = 100
)

type DealView struct {
	ID           string    `json:"id"`
	ExpiresAt    time.Time `json:"expires_at"`
	UnpaidPayout int64     `json:"unpaid_payout,omitempty"`
	stackem.Snapshot
}

type PlaceTileResult struct {
	Placement  stackem.Placement `json:"placement"`
	Balance    int64             `json:"balance"`
	Experience int64             `json:"experience_gained"`
	Deal       DealView          `json:"deal"`
}

type RaceView struct {
	ID           string    `json:"id"`
	ExpiresAt    time.Time `json:"expires_at"`
	UnpaidPayout int64     `json:"unpaid_payout,omitempty"`
	racing.Snapshot
}

type BetResult struct {
	Bet     racing.Bet `json:"bet"`
	Balance int64      `json:"balance"`
	Race    RaceView   `json:"race"`
}

type AdvanceResult struct {
	Step        racing.Step         `json:"step"`
	Settlements []racing.Settlement `json:"settlements,omitempty"`
	Balance     *int64              `json:"balance,omitempty"`
	Experience  int64               `json:"experience_gained"`
	Race        RaceView            `json:"race"`
}
