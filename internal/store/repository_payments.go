package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// CreditPayment records the payment event and credits its chips in one
// transaction. An event id seen before credits nothing and reports Duplicate.
// A wallet is opened with zero chips if the buyer has none yet.
func (s *Store) CreditPayment(ctx context.Context, p PaymentCredit) (PaymentResult, error) {
	if p.Chips <= 0 {
		return PaymentResult{}, ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return PaymentResult{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO payment_events (event_id, kind, user_id, chips, amount_cents, item_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`,
		p.EventID, p.Kind, p.UserID, p.Chips, p.AmountCents, p.ItemID)
	if err != nil {
		return PaymentResult{}, err
	}
	if tag.RowsAffected() == 0 {
		var chips int64
		err := tx.QueryRow(ctx, `SELECT chips FROM wallets WHERE user_id = $1`, p.UserID).Scan(&chips)
		if err != nil {
			return PaymentResult{}, mapNotFound(err)
		}
		return PaymentResult{Balance: chips, Duplicate: true}, nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO wallets (user_id, chips) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`,
		p.UserID); err != nil {
		return PaymentResult{}, err
	}
	w, err := lockWallet(ctx, tx, p.UserID)
	if err != nil {
		return PaymentResult{}, err
	}
	w.Chips += p.Chips
	if err := saveWallet(ctx, tx, w); err != nil {
		return PaymentResult{}, err
	}
	if err := insertLedgerEntry(ctx, tx, p.UserID, "purchase_credit", p.Chips, p.Kind, p.EventID); err != nil {
		return PaymentResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{Balance: w.Chips}, nil
}

func (s *Store) PaymentEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var ok bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payment_events WHERE event_id = $1)`, eventID).Scan(&ok)
	return ok, err
}
