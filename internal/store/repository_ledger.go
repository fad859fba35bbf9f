package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type LedgerFilter struct {
	UserID string
	Type   string
}

func insertLedgerEntry(ctx context.Context, tx pgx.Tx, userID, entryType string, amount int64, refType, refID string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO chip_ledger (id, user_id, type, amount, ref_type, ref_id) VALUES ($1, $2, $3, $4, $5, $6)`,
		NewID(), userID, entryType, amount, refType, refID)
	return err
}

func (s *Store) ListLedgerEntries(ctx context.Context, f LedgerFilter, limit, offset int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, user_id::text, type, amount, ref_type, ref_id, created_at
		FROM chip_ledger
		WHERE user_id = $1 AND ($2::text IS NULL OR type = $2)
		ORDER BY id DESC
		LIMIT $3 OFFSET $4`,
		f.UserID, textParam(f.Type), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LedgerEntry, 0, limit)
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TotalsKinds names the ledger entry types counted as wagers, wins and
// purchases.
type TotalsKinds struct {
	Wager    []string
	Win      []string
	Purchase []string
}

// PlayTotals aggregates the chip ledger of one user. Wagered is positive.
type PlayTotals struct {
	Wagers         int
	Wins           int
	Wagered        int64
	Won            int64
	BiggestWin     int64
	Purchases      int
	ChipsPurchased int64
}

func (s *Store) PlayTotals(ctx context.Context, userID string, k TotalsKinds) (PlayTotals, error) {
	var t PlayTotals
	err := s.Pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE type = ANY($2::text[])),
			count(*) FILTER (WHERE type = ANY($3::text[])),
			COALESCE(-sum(amount) FILTER (WHERE type = ANY($2::text[])), 0),
			COALESCE(sum(amount) FILTER (WHERE type = ANY($3::text[])), 0),
			COALESCE(max(amount) FILTER (WHERE type = ANY($3::text[])), 0),
			count(*) FILTER (WHERE type = ANY($4::text[])),
			COALESCE(sum(amount) FILTER (WHERE type = ANY($4::text[])), 0)
		FROM chip_ledger
		WHERE user_id = $1`,
		userID, nonNil(k.Wager), nonNil(k.Win), nonNil(k.Purchase),
	).Scan(&t.Wagers, &t.Wins, &t.Wagered, &t.Won, &t.BiggestWin, &t.Purchases, &t.ChipsPurchased)
	return t, err
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
