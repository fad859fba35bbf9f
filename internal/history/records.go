package history

import (
	"encoding/json"
	"time"
)

// MaxTransactions bounds the per-user transaction log; the oldest entries are
// dropped first.
const MaxTransactions = 1000

type PurchaseRecord struct {
	ID          string    `json:"id"`
	PackageID   string    `json:"packageId,omitempty"`
	Chips       int64     `json:"chips"`
	AmountCents int64     `json:"amountCents"`
	EventID     string    `json:"eventId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type TransactionKind string

const (
	KindWager  TransactionKind = "wager"
	KindPayout TransactionKind = "payout"
	KindAdjust TransactionKind = "adjust"
)

// TransactionRecord is one chip movement. Amount is signed: wagers are
// negative, payouts positive.
type TransactionRecord struct {
	ID        string          `json:"id"`
	Game      string          `json:"game"`
	Kind      TransactionKind `json:"kind"`
	Amount    int64           `json:"amount"`
	Balance   int64           `json:"balance"`
	Ref       string          `json:"ref,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GameData holds one opaque JSON document per game.
type GameData map[string]json.RawMessage

type Export struct {
	Purchases    []PurchaseRecord    `json:"purchases"`
	Transactions []TransactionRecord `json:"transactions"`
	GameData     GameData            `json:"gameData"`
	ExportDate   time.Time           `json:"exportDate"`
}

type Stats struct {
	GamesPlayed    int   `json:"gamesPlayed"`
	Wins           int   `json:"wins"`
	TotalWagered   int64 `json:"totalWagered"`
	TotalWon       int64 `json:"totalWon"`
	BiggestWin     int64 `json:"biggestWin"`
	Net            int64 `json:"net"`
	PurchaseCount  int   `json:"purchaseCount"`
	ChipsPurchased int64 `json:"chipsPurchased"`
}
