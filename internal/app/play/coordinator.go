// Package play hosts in-memory game sessions and routes every chip movement
// they cause through the ledger.
package play

import (
	"context"
	"sync"
	"time"

	"casino-hub/internal/cards"
	"casino-hub/internal/history"
	"casino-hub/internal/racing"
	"casino-hub/internal/stackem"
	"casino-hub/internal/store"

	"github.com/rs/zerolog/log"
)

const defaultSessionTTL = 30 * time.Minute

// Wallets is the chip movement surface of *ledger.Ledger.
type Wallets interface {
	DebitAnte(ctx context.Context, userID, dealID string, amount int64) (int64, error)
	CreditLine(ctx context.Context, userID, dealID string, amount int64) (int64, error)
	RefundAnte(ctx context.Context, userID, dealID string, amount int64) (int64, error)
	DebitBet(ctx context.Context, userID, raceID string, amount int64) (int64, error)
	CreditBet(ctx context.Context, userID, raceID string, amount int64) (int64, error)
	RefundBet(ctx context.Context, userID, raceID string, amount int64) (int64, error)
	GrantReward(ctx context.Context, userID string, r store.Reward, refType, refID string) (*store.Wallet, error)
}

type Recorder interface {
	AppendTransaction(ctx context.Context, userID string, rec history.TransactionRecord) (history.TransactionRecord, error)
}

type dealSession struct {
	mu        sync.Mutex
	id        string
	userID    string
	deal      *stackem.Deal
	expiresAt time.Time

	unpaid []int64
	owedXP int64
}

type raceSession struct {
	mu        sync.Mutex
	id        string
	userID    string
	race      *racing.Race
	expiresAt time.Time

	settlements []racing.Settlement
	unpaid      []racing.Settlement
	owedXP      int64
}

type Coordinator struct {
	wallets  Wallets
	recorder Recorder
	ttl      time.Duration
	now      func() time.Time
	newDeck  func() *cards.Deck

	mu    sync.Mutex
	deals map[string]*dealSession
	races map[string]*raceSession
}

func NewCoordinator(w Wallets, rec Recorder, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Coordinator{
		wallets:  w,
		recorder: rec,
		ttl:      ttl,
		now:      time.Now,
		newDeck:  cards.NewShuffledDeck,
		deals:    map[string]*dealSession{},
		races:    map[string]*raceSession{},
	}
}

// StartJanitor closes idle sessions until ctx is done.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := c.expireSessions(ctx, now); n > 0 {
					log.Info().Int("count", n).Msg("expired game sessions")
				}
			}
		}
	}()
}

func (c *Coordinator) expireSessions(ctx context.Context, now time.Time) int {
	var deals []*dealSession
	var races []*raceSession
	c.mu.Lock()
	for id, s := range c.deals {
		if s.expiresAt.Before(now) {
			deals = append(deals, s)
			delete(c.deals, id)
		}
	}
	for id, s := range c.races {
		if s.expiresAt.Before(now) {
			races = append(races, s)
			delete(c.races, id)
		}
	}
	c.mu.Unlock()

	closed := 0
	for _, s := range deals {
		if err := c.closeExpiredDeal(ctx, s); err != nil {
			log.Error().Err(err).Str("deal_id", s.id).Str("user_id", s.userID).Msg("expired deal kept for unpaid payout")
			c.requeueDeal(s)
			continue
		}
		closed++
	}
	for _, s := range races {
		if err := c.finishAbandonedRace(ctx, s); err != nil {
			log.Error().Err(err).Str("race_id", s.id).Str("user_id", s.userID).Msg("expired race kept for unpaid payout")
			c.requeueRace(s)
			continue
		}
		closed++
	}
	return closed
}

// finishAbandonedRace runs an expired race to the finish so open bets are
// settled rather than lost.
func (c *Coordinator) finishAbandonedRace(ctx context.Context, s *raceSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.race.Snapshot().Bets) == 0 {
		return nil
	}
	if s.race.Phase() == racing.PhaseBetting {
		if err := s.race.Start(); err != nil {
			return err
		}
	}
	for s.race.Phase() == racing.PhaseRunning {
		if _, err := s.race.Advance(); err != nil {
			return err
		}
	}
	_, _, _, err := c.settleLocked(ctx, s)
	return err
}

func (c *Coordinator) requeueDeal(s *dealSession) {
	s.mu.Lock()
	s.expiresAt = c.expiry()
	s.mu.Unlock()
	c.mu.Lock()
	c.deals[s.id] = s
	c.mu.Unlock()
}

func (c *Coordinator) requeueRace(s *raceSession) {
	s.mu.Lock()
	s.expiresAt = c.expiry()
	s.mu.Unlock()
	c.mu.Lock()
	c.races[s.id] = s
	c.mu.Unlock()
}

func (c *Coordinator) expiry() time.Time {
	return c.now().Add(c.ttl)
}

func (c *Coordinator) dealFor(userID, id string) (*dealSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.deals[id]
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (c *Coordinator) raceFor(userID, id string) (*raceSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.races[id]
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (c *Coordinator) record(ctx context.Context, userID string, rec history.TransactionRecord) {
	if c.recorder == nil {
		return
	}
	if _, err := c.recorder.AppendTransaction(ctx, userID, rec); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("game", rec.Game).Msg("record transaction failed")
	}
}

func (c *Coordinator) grantXP(ctx context.Context, userID, refType, refID string, xp int64) int64 {
	if xp <= 0 {
		return 0
	}
	if _, err := c.wallets.GrantReward(ctx, userID, store.Reward{Experience: xp}, refType, refID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Int64("xp", xp).Msg("grant experience failed")
		return 0
	}
	return xp
}
