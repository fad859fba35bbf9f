package play

import (
	"context"

	"casino-hub/internal/cards"
	"casino-hub/internal/history"
	"casino-hub/internal/racing"
	"casino-hub/internal/store"

	"github.com/rs/zerolog/log"
)

const gameRacing = "racing"

func (c *Coordinator) CreateRace(userID string) (*RaceView, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	s := &raceSession{id: store.NewID(), userID: userID, race: racing.NewRace(c.newDeck()), expiresAt: c.expiry()}
	c.mu.Lock()
	c.races[s.id] = s
	c.mu.Unlock()
	v := raceView(s)
	return &v, nil
}

func (c *Coordinator) Race(userID, raceID string) (*RaceView, error) {
	s, err := c.raceFor(userID, raceID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := raceView(s)
	return &v, nil
}

// PlaceBet stakes amount on suit before the start.
func (c *Coordinator) PlaceBet(ctx context.Context, userID, raceID string, suit cards.Suit, amount int64) (*BetResult, error) {
	return c.bet(ctx, userID, raceID, suit, amount, false)
}

// PlaceLiveBet stakes amount on a running suit at its current odds.
func (c *Coordinator) PlaceLiveBet(ctx context.Context, userID, raceID string, suit cards.Suit, amount int64) (*BetResult, error) {
	return c.bet(ctx, userID, raceID, suit, amount, true)
}

func (c *Coordinator) bet(ctx context.Context, userID, raceID string, suit cards.Suit, amount int64, live bool) (*BetResult, error) {
	s, err := c.raceFor(userID, raceID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if live {
		_, err = s.race.CheckLiveBet(suit, amount)
	} else {
		err = s.race.CheckBet(suit, amount)
	}
	if err != nil {
		return nil, err
	}
	balance, err := c.wallets.DebitBet(ctx, userID, s.id, amount)
	if err != nil {
		return nil, err
	}
	var b racing.Bet
	if live {
		b, err = s.race.PlaceLiveBet(suit, amount)
	} else {
		b, err = s.race.PlaceBet(suit, amount)
	}
	if err != nil {
		if _, rerr := c.wallets.RefundBet(ctx, userID, s.id, amount); rerr != nil {
			log.Error().Err(rerr).Str("race_id", s.id).Int64("amount", amount).Msg("refund bet failed")
		}
		return nil, err
	}
	c.record(ctx, userID, history.TransactionRecord{
		Game: gameRacing, Kind: history.KindWager, Amount: -amount, Balance: balance, Ref: s.id,
	})
	s.expiresAt = c.expiry()
	return &BetResult{Bet: b, Balance: balance, Race: raceView(s)}, nil
}

func (c *Coordinator) StartRace(userID, raceID string) (*RaceView, error) {
	s, err := c.raceFor(userID, raceID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.race.Start(); err != nil {
		return nil, err
	}
	s.expiresAt = c.expiry()
	v := raceView(s)
	return &v, nil
}

// Advance moves the race one card. When a suit crosses the line every bet is
// settled and winnings credited. If crediting failed earlier, Advance on the
// finished race retries the unpaid winnings instead of drawing.
func (c *Coordinator) Advance(ctx context.Context, userID, raceID string) (*AdvanceResult, error) {
	s, err := c.raceFor(userID, raceID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.race.Phase() == racing.PhaseFinished {
		return c.finishLocked(ctx, s, s.race.LastStep())
	}
	step, err := s.race.Advance()
	if err != nil {
		return nil, err
	}
	s.expiresAt = c.expiry()
	if step.Finished {
		return c.finishLocked(ctx, s, step)
	}
	return &AdvanceResult{Step: step, Race: raceView(s)}, nil
}

// finishLocked settles a finished race and drops the session once every
// winning bet is credited.
func (c *Coordinator) finishLocked(ctx context.Context, s *raceSession, step racing.Step) (*AdvanceResult, error) {
	s.expiresAt = c.expiry()
	res := &AdvanceResult{Step: step}
	var err error
	res.Settlements, res.Balance, res.Experience, err = c.settleLocked(ctx, s)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	delete(c.races, s.id)
	c.mu.Unlock()
	res.Race = raceView(s)
	return res, nil
}

// settleLocked settles the race once and credits winning bets that are not
// paid yet. A failed credit leaves it and the rest unpaid on the session. The
// returned balance is nil when nothing was credited by this call.
func (c *Coordinator) settleLocked(ctx context.Context, s *raceSession) ([]racing.Settlement, *int64, int64, error) {
	if !s.race.Settled() {
		settlements, err := s.race.Settle()
		if err != nil {
			return nil, nil, 0, err
		}
		s.settlements = settlements
		for _, st := range settlements {
			if st.Won && st.Payout > 0 {
				s.unpaid = append(s.unpaid, st)
			}
		}
	}
	var balance *int64
	for len(s.unpaid) > 0 {
		st := s.unpaid[0]
		bal, err := c.wallets.CreditBet(ctx, s.userID, s.id, st.Payout)
		if err != nil {
			log.Error().Err(err).Str("race_id", s.id).Int64("payout", st.Payout).Msg("credit race payout failed")
			return s.settlements, balance, 0, err
		}
		s.unpaid = s.unpaid[1:]
		balance = &bal
		c.record(ctx, s.userID, history.TransactionRecord{
			Game: gameRacing, Kind: history.KindPayout, Amount: st.Payout, Balance: bal, Ref: s.id,
		})
		s.owedXP += XPPerWinningBet
	}
	xp := c.grantXP(ctx, s.userID, "race", s.id, s.owedXP)
	s.owedXP = 0
	winner, _ := s.race.Winner()
	log.Info().Str("race_id", s.id).Str("user_id", s.userID).Str("winner", string(winner)).Int64("xp", xp).Msg("race settled")
	return s.settlements, balance, xp, nil
}

func raceView(s *raceSession) RaceView {
	var unpaid int64
	for _, st := range s.unpaid {
		unpaid += st.Payout
	}
	return RaceView{ID: s.id, ExpiresAt: s.expiresAt, UnpaidPayout: unpaid, Snapshot: s.race.Snapshot()}
}
