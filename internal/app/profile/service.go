// Package profile serves a player's wallet, achievements and local history.
package profile

import (
	"context"
	"errors"

	"casino-hub/internal/achievements"
	"casino-hub/internal/history"
	"casino-hub/internal/progression"
	"casino-hub/internal/store"

	"github.com/rs/zerolog/log"
)

// Wallets is the slice of *ledger.Ledger the profile needs.
type Wallets interface {
	Wallet(ctx context.Context, userID string) (*store.Wallet, error)
	Adjust(ctx context.Context, userID string, delta int64, reason string) (int64, error)
	SetChips(ctx context.Context, userID string, chips, expectedVersion int64) (*store.Wallet, error)
	GrantReward(ctx context.Context, userID string, r store.Reward, refType, refID string) (*store.Wallet, error)
	PlayTotals(ctx context.Context, userID string) (store.PlayTotals, error)
}

type Accounts interface {
	EnsureAccount(ctx context.Context, userID, email string, initial int64) error
	ListLedgerEntries(ctx context.Context, f store.LedgerFilter, limit, offset int) ([]store.LedgerEntry, error)
}

type Service struct {
	wallets       Wallets
	accounts      Accounts
	history       *history.Store
	startingChips int64
}

func NewService(w Wallets, a Accounts, h *history.Store, startingChips int64) *Service {
	return &Service{wallets: w, accounts: a, history: h, startingChips: startingChips}
}

// EnsureAccount opens the wallet with the starting balance on first sight.
func (s *Service) EnsureAccount(ctx context.Context, userID, email string) error {
	return s.accounts.EnsureAccount(ctx, userID, email, s.startingChips)
}

func (s *Service) Wallet(ctx context.Context, userID string) (*WalletView, error) {
	w, err := s.wallets.Wallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := walletView(w)
	return &v, nil
}

// AdjustChips applies a signed delta atomically; the balance never goes
// below zero.
func (s *Service) AdjustChips(ctx context.Context, userID string, delta int64, reason string) (*WalletView, error) {
	if reason == "" {
		reason = "client"
	}
	balance, err := s.wallets.Adjust(ctx, userID, delta, reason)
	if err != nil {
		return nil, err
	}
	if delta != 0 {
		s.recordAdjust(ctx, userID, delta, balance, reason)
	}
	return s.Wallet(ctx, userID)
}

// SetChips writes an absolute balance guarded by the wallet version.
func (s *Service) SetChips(ctx context.Context, userID string, chips, version int64) (*WalletView, error) {
	if chips < 0 || version <= 0 {
		return nil, ErrInvalidRequest
	}
	before, err := s.wallets.Wallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	w, err := s.wallets.SetChips(ctx, userID, chips, version)
	if err != nil {
		return nil, err
	}
	if delta := w.Chips - before.Chips; delta != 0 {
		s.recordAdjust(ctx, userID, delta, w.Chips, "set_chips")
	}
	v := walletView(w)
	return &v, nil
}

func (s *Service) recordAdjust(ctx context.Context, userID string, delta, balance int64, reason string) {
	if _, err := s.history.AppendTransaction(ctx, userID, history.TransactionRecord{
		Game: "wallet", Kind: history.KindAdjust, Amount: delta, Balance: balance, Ref: reason,
	}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("record adjustment failed")
	}
}

func (s *Service) Ledger(ctx context.Context, userID, entryType string, limit, offset int) (*LedgerResponse, error) {
	items, err := s.accounts.ListLedgerEntries(ctx, store.LedgerFilter{UserID: userID, Type: entryType}, limit, offset)
	if err != nil {
		return nil, err
	}
	return &LedgerResponse{Items: items, Limit: limit, Offset: offset}, nil
}

func (s *Service) Achievements(ctx context.Context, userID string) (*AchievementsResponse, error) {
	stats, level, claimed, err := s.achievementInputs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AchievementsResponse{Items: achievements.Evaluate(stats, level, claimed)}, nil
}

// ClaimAchievement marks the achievement claimed before granting its reward,
// so concurrent claims pay out at most once.
func (s *Service) ClaimAchievement(ctx context.Context, userID, id string) (*ClaimResponse, error) {
	stats, level, claimed, err := s.achievementInputs(ctx, userID)
	if err != nil {
		return nil, err
	}
	a, err := achievements.CheckClaim(id, stats, level, claimed)
	if err != nil {
		return nil, err
	}
	added, err := s.history.MarkClaimed(ctx, userID, a.ID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, achievements.ErrAlreadyClaimed
	}
	w, err := s.wallets.GrantReward(ctx, userID, store.Reward{Chips: a.Reward.Chips, Experience: a.Reward.Experience}, "achievement", a.ID)
	if err != nil {
		if uerr := s.history.UnmarkClaimed(ctx, userID, a.ID); uerr != nil {
			log.Error().Err(uerr).Str("user_id", userID).Str("achievement", a.ID).Msg("unmark claim failed")
		}
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("achievement", a.ID).Int64("chips", a.Reward.Chips).Msg("achievement claimed")
	return &ClaimResponse{Achievement: a, Wallet: walletView(w)}, nil
}

// achievementInputs reads progress from the chip ledger. History can be
// replaced by an import, so it never decides a reward.
func (s *Service) achievementInputs(ctx context.Context, userID string) (history.Stats, int, map[string]bool, error) {
	totals, err := s.wallets.PlayTotals(ctx, userID)
	if err != nil {
		return history.Stats{}, 0, nil, err
	}
	w, err := s.wallets.Wallet(ctx, userID)
	if err != nil {
		return history.Stats{}, 0, nil, err
	}
	claimed, err := s.history.ClaimedAchievements(ctx, userID)
	if err != nil {
		return history.Stats{}, 0, nil, err
	}
	return statsFromTotals(totals), progression.LevelFromXP(w.Experience), claimed, nil
}

func statsFromTotals(t store.PlayTotals) history.Stats {
	return history.Stats{
		GamesPlayed:    t.Wagers,
		Wins:           t.Wins,
		TotalWagered:   t.Wagered,
		TotalWon:       t.Won,
		BiggestWin:     t.BiggestWin,
		Net:            t.Won - t.Wagered,
		PurchaseCount:  t.Purchases,
		ChipsPurchased: t.ChipsPurchased,
	}
}

func (s *Service) Stats(ctx context.Context, userID string) (history.Stats, error) {
	return s.history.Stats(ctx, userID)
}

func (s *Service) Export(ctx context.Context, userID string) (history.Export, error) {
	return s.history.Export(ctx, userID)
}

func (s *Service) Import(ctx context.Context, userID string, doc history.Export) error {
	if err := s.history.Import(ctx, userID, doc); err != nil {
		if errors.Is(err, history.ErrInvalidExport) {
			return ErrInvalidRequest
		}
		return err
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.history.Clear(ctx, userID)
}

func walletView(w *store.Wallet) WalletView {
	return WalletView{
		Chips:     w.Chips,
		Version:   w.Version,
		UpdatedAt: w.UpdatedAt,
		Status:    progression.StatusFor(w.Experience),
	}
}
