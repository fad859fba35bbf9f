package profile

import (
	"time"

	"casino-hub/internal/achievements"
	"casino-hub/internal/progression"
	"casino-hub/internal/store"
)

type WalletView struct {
	Chips     int64     `json:"chips"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	progression.Status
}

type AchievementsResponse struct {
	Items []achievements.Progress `json:"items"`
}

type ClaimResponse struct {
	Achievement achievements.Achievement `json:"achievement"`
	Wallet      WalletView               `json:"wallet"`
}

type LedgerResponse struct {
	Items  []store.LedgerEntry `json:"items"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}
