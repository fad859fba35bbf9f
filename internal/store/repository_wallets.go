package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

const walletColumns = `user_id::text, chips, level, experience, version, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*Wallet, error) {
	var w Wallet
	if err := row.Scan(&w.UserID, &w.Chips, &w.Level, &w.Experience, &w.Version, &w.UpdatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &w, nil
}

// EnsureAccount mirrors the auth user and opens a wallet with initial chips
// the first time a user is seen. Existing rows are left untouched.
func (s *Store) EnsureAccount(ctx context.Context, userID, email string, initial int64) error {
	if initial < 0 {
		return ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if email = strings.TrimSpace(email); email != "" {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id, email) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, email); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO wallets (user_id, chips) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		userID, initial); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetWallet(ctx context.Context, userID string) (*Wallet, error) {
	return scanWallet(s.Pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID))
}

func (s *Store) GetChips(ctx context.Context, userID string) (int64, error) {
	var chips int64
	if err := s.Pool.QueryRow(ctx, `SELECT chips FROM wallets WHERE user_id = $1`, userID).Scan(&chips); err != nil {
		return 0, mapNotFound(err)
	}
	return chips, nil
}

func (s *Store) Debit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if w.Chips < amount {
		return 0, ErrInsufficientChips
	}
	w.Chips -= amount
	if err := saveWallet(ctx, tx, w); err != nil {
		return 0, err
	}
	if err := insertLedgerEntry(ctx, tx, userID, entryType, -amount, refType, refID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return w.Chips, nil
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	w.Chips += amount
	if err := saveWallet(ctx, tx, w); err != nil {
		return 0, err
	}
	if err := insertLedgerEntry(ctx, tx, userID, entryType, amount, refType, refID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return w.Chips, nil
}

// SetChips writes an absolute balance when the caller's version is current.
func (s *Store) SetChips(ctx context.Context, userID string, chips, expectedVersion int64, refType, refID string) (*Wallet, error) {
	if chips < 0 {
		return nil, ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if w.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	delta := chips - w.Chips
	w.Chips = chips
	if err := saveWallet(ctx, tx, w); err != nil {
		return nil, err
	}
	if delta != 0 {
		if err := insertLedgerEntry(ctx, tx, userID, "balance_set", delta, refType, refID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// GrantReward credits chips and experience together; levelFor derives the
// stored level from the new experience total.
func (s *Store) GrantReward(ctx context.Context, userID string, r Reward, levelFor func(int64) int, refType, refID string) (*Wallet, error) {
	if r.Chips < 0 || r.Experience < 0 {
		return nil, ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	w.Chips += r.Chips
	w.Experience += r.Experience
	if levelFor != nil {
		w.Level = levelFor(w.Experience)
	}
	if err := saveWallet(ctx, tx, w); err != nil {
		return nil, err
	}
	if r.Chips > 0 {
		if err := insertLedgerEntry(ctx, tx, userID, "reward_credit", r.Chips, refType, refID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func lockWallet(ctx context.Context, tx pgx.Tx, userID string) (*Wallet, error) {
	return scanWallet(tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID))
}

func saveWallet(ctx context.Context, tx pgx.Tx, w *Wallet) error {
	err := tx.QueryRow(ctx, `
		UPDATE wallets
		SET chips = $2, level = $3, experience = $4, version = version + 1, updated_at = now()
		WHERE user_id = $1
		RETURNING version, updated_at`,
		w.UserID, w.Chips, w.Level, w.Experience,
	).Scan(&w.Version, &w.UpdatedAt)
	if isCheckViolation(err) {
		return ErrInsufficientChips
	}
	return mapNotFound(err)
}
