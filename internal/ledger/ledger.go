// Package ledger is the only path through which game and purchase flows move
// chips. Every method maps a domain event to a typed ledger entry.
package ledger

import (
	"context"

	"casino-hub/internal/progression"
	"casino-hub/internal/store"
)

// Accounts is the wallet persistence the ledger needs; *store.Store satisfies it.
type Accounts interface {
	GetWallet(ctx context.Context, userID string) (*store.Wallet, error)
	GetChips(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error)
	SetChips(ctx context.Context, userID string, chips, expectedVersion int64, refType, refID string) (*store.Wallet, error)
	GrantReward(ctx context.Context, userID string, r store.Reward, levelFor func(int64) int, refType, refID string) (*store.Wallet, error)
	PlayTotals(ctx context.Context, userID string, k store.TotalsKinds) (store.PlayTotals, error)
}

const (
	EntryAnteDebit    = "ante_debit"
	EntryLineCredit   = "line_credit"
	EntryBetDebit     = "bet_debit"
	EntryBetCredit    = "bet_credit"
	EntryAdjustDebit  = "adjust_debit"
	EntryAdjustCredit = "adjust_credit"

	// Refunds return a stake whose placement failed; they are neither wins
	// nor wagers.
	EntryAnteRefund = "ante_refund"
	EntryBetRefund  = "bet_refund"

	EntryPurchaseCredit = "purchase_credit"
)

var playKinds = store.TotalsKinds{
	Wager:    []string{EntryAnteDebit, EntryBetDebit},
	Win:      []string{EntryLineCredit, EntryBetCredit},
	Purchase: []string{EntryPurchaseCredit},
}

type Ledger struct {
	Accounts Accounts
}

func New(a Accounts) *Ledger {
	return &Ledger{Accounts: a}
}

func (l *Ledger) Wallet(ctx context.Context, userID string) (*store.Wallet, error) {
	return l.Accounts.GetWallet(ctx, userID)
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	return l.Accounts.GetChips(ctx, userID)
}

func (l *Ledger) DebitAnte(ctx context.Context, userID, dealID string, amount int64) (int64, error) {
	return l.Accounts.Debit(ctx, userID, amount, EntryAnteDebit, "stackem_deal", dealID)
}

func (l *Ledger) CreditLine(ctx context.Context, userID, dealID string, amount int64) (int64, error) {
	return l.Accounts.Credit(ctx, userID, amount, EntryLineCredit, "stackem_deal", dealID)
}

func (l *Ledger) RefundAnte(ctx context.Context, userID, dealID string, amount int64) (int64, error) {
	return l.Accounts.Credit(ctx, userID, amount, EntryAnteRefund, "stackem_deal", dealID)
}

func (l *Ledger) DebitBet(ctx context.Context, userID, raceID string, amount int64) (int64, error) {
	return l.Accounts.Debit(ctx, userID, amount, EntryBetDebit, "race", raceID)
}

func (l *Ledger) CreditBet(ctx context.Context, userID, raceID string, amount int64) (int64, error) {
	return l.Accounts.Credit(ctx, userID, amount, EntryBetCredit, "race", raceID)
}

func (l *Ledger) RefundBet(ctx context.Context, userID, raceID string, amount int64) (int64, error) {
	return l.Accounts.Credit(ctx, userID, amount, EntryBetRefund, "race", raceID)
}

// Adjust applies a signed delta. A zero delta reads the balance back.
func (l *Ledger) Adjust(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	switch {
	case delta < 0:
		return l.Accounts.Debit(ctx, userID, -delta, EntryAdjustDebit, "manual", reason)
	case delta > 0:
		return l.Accounts.Credit(ctx, userID, delta, EntryAdjustCredit, "manual", reason)
	default:
		return l.Accounts.GetChips(ctx, userID)
	}
}

// SetChips overwrites the balance if expectedVersion still matches the wallet.
func (l *Ledger) SetChips(ctx context.Context, userID string, chips, expectedVersion int64) (*store.Wallet, error) {
	return l.Accounts.SetChips(ctx, userID, chips, expectedVersion, "manual", "set_chips")
}

// GrantReward credits chips and experience; the stored level follows the
// progression curve.
func (l *Ledger) GrantReward(ctx context.Context, userID string, r store.Reward, refType, refID string) (*store.Wallet, error) {
	return l.Accounts.GrantReward(ctx, userID, r, progression.LevelFromXP, refType, refID)
}

// PlayTotals counts wagers, wins and purchases from the chip ledger.
// Manual adjustments and refunds are not play.
func (l *Ledger) PlayTotals(ctx context.Context, userID string) (store.PlayTotals, error) {
	return l.Accounts.PlayTotals(ctx, userID, playKinds)
}
