package play

import (
	"context"

	"casino-hub/internal/history"
	"casino-hub/internal/stackem"
	"casino-hub/internal/store"

	"github.com/rs/zerolog/log"
)

const gameStackem = "stackem"

func (c *Coordinator) StartDeal(ctx context.Context, userID string, ante int64) (*DealView, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	deal, err := stackem.NewDeal(ante, c.newDeck())
	if err != nil {
		return nil, err
	}
	s := &dealSession{id: store.NewID(), userID: userID, deal: deal, expiresAt: c.expiry()}
	c.mu.Lock()
	c.deals[s.id] = s
	c.mu.Unlock()
	log.Info().Str("user_id", userID).Str("deal_id", s.id).Int64("ante", ante).Msg("stackem deal started")
	v := dealView(s)
	return &v, nil
}

func (c *Coordinator) Deal(userID, dealID string) (*DealView, error) {
	s, err := c.dealFor(userID, dealID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := dealView(s)
	return &v, nil
}

// SetAnte changes the ante of a deal that has no tiles yet.
func (c *Coordinator) SetAnte(userID, dealID string, ante int64) (*DealView, error) {
	s, err := c.dealFor(userID, dealID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deal.SetAnte(ante); err != nil {
		return nil, err
	}
	v := dealView(s)
	return &v, nil
}

// PlaceTile charges the ante and then places the current card. A rejected
// debit leaves both the grid and the wallet unchanged. A line payout that
// cannot be credited stays on the deal as unpaid.
func (c *Coordinator) PlaceTile(ctx context.Context, userID, dealID string, row, col int) (*PlaceTileResult, error) {
	s, err := c.dealFor(userID, dealID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deal.CheckPlacement(row, col); err != nil {
		return nil, err
	}
	ante := s.deal.Ante()
	balance, err := c.wallets.DebitAnte(ctx, userID, s.id, ante)
	if err != nil {
		return nil, err
	}
	c.record(ctx, userID, history.TransactionRecord{
		Game: gameStackem, Kind: history.KindWager, Amount: -ante, Balance: balance, Ref: s.id,
	})

	p, err := s.deal.PlaceTile(row, col)
	if err != nil {
		if _, rerr := c.wallets.RefundAnte(ctx, userID, s.id, ante); rerr != nil {
			log.Error().Err(rerr).Str("deal_id", s.id).Int64("ante", ante).Msg("refund ante failed")
		}
		return nil, err
	}
	if p.Payout > 0 {
		s.unpaid = append(s.unpaid, p.Payout)
	}
	s.owedXP += int64(p.ScoredCards() * XPPerScoredCard)
	s.expiresAt = c.expiry()

	paid, xp, err := c.payDealLocked(ctx, s)
	if err != nil {
		return nil, err
	}
	if paid != nil {
		balance = *paid
	}
	return &PlaceTileResult{
		Placement:  p,
		Balance:    balance,
		Experience: xp,
		Deal:       dealView(s),
	}, nil
}

// payDealLocked credits line payouts still owed by the deal. A failed credit
// stays owed and is retried by the next placement, EndDeal and the janitor.
func (c *Coordinator) payDealLocked(ctx context.Context, s *dealSession) (*int64, int64, error) {
	var balance *int64
	for len(s.unpaid) > 0 {
		amount := s.unpaid[0]
		bal, err := c.wallets.CreditLine(ctx, s.userID, s.id, amount)
		if err != nil {
			log.Error().Err(err).Str("deal_id", s.id).Int64("payout", amount).Msg("credit line payout failed")
			return balance, 0, err
		}
		s.unpaid = s.unpaid[1:]
		balance = &bal
		c.record(ctx, s.userID, history.TransactionRecord{
			Game: gameStackem, Kind: history.KindPayout, Amount: amount, Balance: bal, Ref: s.id,
		})
	}
	xp := c.grantXP(ctx, s.userID, "stackem_deal", s.id, s.owedXP)
	s.owedXP = 0
	return balance, xp, nil
}

// EndDeal pays anything still owed, then closes the deal and returns its
// final state. The deal stays open while a payout cannot be credited.
func (c *Coordinator) EndDeal(ctx context.Context, userID, dealID string) (*DealView, error) {
	s, err := c.dealFor(userID, dealID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, err := c.payDealLocked(ctx, s); err != nil {
		return nil, err
	}
	c.mu.Lock()
	delete(c.deals, dealID)
	c.mu.Unlock()

	s.deal.End()
	v := dealView(s)
	return &v, nil
}

// closeExpiredDeal ends a deal removed by the janitor once its payouts are
// credited.
func (c *Coordinator) closeExpiredDeal(ctx context.Context, s *dealSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, err := c.payDealLocked(ctx, s); err != nil {
		return err
	}
	s.deal.End()
	return nil
}

func dealView(s *dealSession) DealView {
	var unpaid int64
	for _, amount := range s.unpaid {
		unpaid += amount
	}
	return DealView{ID: s.id, ExpiresAt: s.expiresAt, UnpaidPayout: unpaid, Snapshot: s.deal.Snapshot()}
}
