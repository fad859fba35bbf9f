package store

import "time"

type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Wallet is the remote chip balance and progression record for one user.
type Wallet struct {
	UserID     string    `json:"user_id"`
	Chips      int64     `json:"chips"`
	Level      int       `json:"level"`
	Experience int64     `json:"experience"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	RefType   string    `json:"ref_type"`
	RefID     string    `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentCredit is one verified payment event resolved to a chip amount.
type PaymentCredit struct {
	EventID     string
	Kind        string
	UserID      string
	Chips       int64
	AmountCents int64
	ItemID      string
}

type PaymentResult struct {
	Balance   int64
	Duplicate bool
}

// Reward is credited chips plus experience; level is derived by the caller's
// curve inside the same transaction.
type Reward struct {
	Chips      int64
	Experience int64
}
