// Package history keeps the per-user purchase and game transaction log used
// for statistics, achievements and export. It is a display cache and never
// the source of truth for balances.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"casino-hub/internal/store"
)

var ErrInvalidExport = errors.New("invalid_export")

const (
	keyPurchases    = "purchases"
	keyTransactions = "transactions"
	keyGameData     = "game_data"
	keyClaimed      = "claimed_achievements"
)

type Store struct {
	storage Storage
	prefix  string
	now     func() time.Time

	// mu serializes read-modify-write appends.
	mu sync.Mutex
}

func New(storage Storage) *Store {
	return &Store{storage: storage, prefix: "hub:history", now: time.Now}
}

func (s *Store) key(userID, name string) string {
	return s.prefix + ":" + userID + ":" + name
}

func (s *Store) AppendPurchase(ctx context.Context, userID string, rec PurchaseRecord) (PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = store.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	var list []PurchaseRecord
	if err := s.load(ctx, s.key(userID, keyPurchases), &list); err != nil {
		return PurchaseRecord{}, err
	}
	list = append(list, rec)
	return rec, s.save(ctx, s.key(userID, keyPurchases), list)
}

// AppendTransaction appends rec and evicts the oldest entries past
// MaxTransactions.
func (s *Store) AppendTransaction(ctx context.Context, userID string, rec TransactionRecord) (TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = store.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	var list []TransactionRecord
	if err := s.load(ctx, s.key(userID, keyTransactions), &list); err != nil {
		return TransactionRecord{}, err
	}
	list = append(list, rec)
	if over := len(list) - MaxTransactions; over > 0 {
		list = append([]TransactionRecord(nil), list[over:]...)
	}
	return rec, s.save(ctx, s.key(userID, keyTransactions), list)
}

func (s *Store) Purchases(ctx context.Context, userID string) ([]PurchaseRecord, error) {
	list := []PurchaseRecord{}
	err := s.load(ctx, s.key(userID, keyPurchases), &list)
	return list, err
}

func (s *Store) Transactions(ctx context.Context, userID string) ([]TransactionRecord, error) {
	list := []TransactionRecord{}
	err := s.load(ctx, s.key(userID, keyTransactions), &list)
	return list, err
}

func (s *Store) GameData(ctx context.Context, userID string) (GameData, error) {
	data := GameData{}
	err := s.load(ctx, s.key(userID, keyGameData), &data)
	return data, err
}

// SetGameData replaces the document stored for one game.
func (s *Store) SetGameData(ctx context.Context, userID, game string, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return ErrInvalidExport
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data := GameData{}
	if err := s.load(ctx, s.key(userID, keyGameData), &data); err != nil {
		return err
	}
	data[game] = doc
	return s.save(ctx, s.key(userID, keyGameData), data)
}

func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	txs, err := s.Transactions(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	purchases, err := s.Purchases(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return computeStats(txs, purchases), nil
}

func computeStats(txs []TransactionRecord, purchases []PurchaseRecord) Stats {
	var st Stats
	for _, tx := range txs {
		switch tx.Kind {
		case KindWager:
			st.GamesPlayed++
			st.TotalWagered += -tx.Amount
		case KindPayout:
			st.Wins++
			st.TotalWon += tx.Amount
			if tx.Amount > st.BiggestWin {
				st.BiggestWin = tx.Amount
			}
		}
	}
	st.Net = st.TotalWon - st.TotalWagered
	for _, p := range purchases {
		st.PurchaseCount++
		st.ChipsPurchased += p.Chips
	}
	return st
}

func (s *Store) Export(ctx context.Context, userID string) (Export, error) {
	purchases, err := s.Purchases(ctx, userID)
	if err != nil {
		return Export{}, err
	}
	txs, err := s.Transactions(ctx, userID)
	if err != nil {
		return Export{}, err
	}
	data, err := s.GameData(ctx, userID)
	if err != nil {
		return Export{}, err
	}
	return Export{
		Purchases:    purchases,
		Transactions: txs,
		GameData:     data,
		ExportDate:   s.now().UTC(),
	}, nil
}

// Import overwrites the purchase, transaction and game data keys with doc.
// The claimed achievement set is left untouched.
func (s *Store) Import(ctx context.Context, userID string, doc Export) error {
	if len(doc.Transactions) > MaxTransactions {
		doc.Transactions = doc.Transactions[len(doc.Transactions)-MaxTransactions:]
	}
	if doc.Purchases == nil {
		doc.Purchases = []PurchaseRecord{}
	}
	if doc.Transactions == nil {
		doc.Transactions = []TransactionRecord{}
	}
	if doc.GameData == nil {
		doc.GameData = GameData{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, s.key(userID, keyPurchases), doc.Purchases); err != nil {
		return err
	}
	if err := s.save(ctx, s.key(userID, keyTransactions), doc.Transactions); err != nil {
		return err
	}
	return s.save(ctx, s.key(userID, keyGameData), doc.GameData)
}

// Clear drops purchases, transactions and game data. Claimed achievements
// survive so a reward cannot be claimed twice.
func (s *Store) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Delete(ctx,
		s.key(userID, keyPurchases),
		s.key(userID, keyTransactions),
		s.key(userID, keyGameData),
	)
}

func (s *Store) ClaimedAchievements(ctx context.Context, userID string) (map[string]bool, error) {
	var ids []string
	if err := s.load(ctx, s.key(userID, keyClaimed), &ids); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// MarkClaimed adds id to the claimed set and reports false if it was
// already there.
func (s *Store) MarkClaimed(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	if err := s.load(ctx, s.key(userID, keyClaimed), &ids); err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return false, nil
		}
	}
	ids = append(ids, id)
	return true, s.save(ctx, s.key(userID, keyClaimed), ids)
}

// UnmarkClaimed drops id from the claimed set.
func (s *Store) UnmarkClaimed(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	if err := s.load(ctx, s.key(userID, keyClaimed), &ids); err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return s.save(ctx, s.key(userID, keyClaimed), kept)
}

func (s *Store) load(ctx context.Context, key string, dst any) error {
	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, key, raw)
}
