package racing

import (
	"errors"

	"casino-hub/internal/cards"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSuit     = errors.New("invalid_suit")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrBettingClosed   = errors.New("betting_closed")
	ErrRaceNotRunning  = errors.New("race_not_running")
	ErrRaceNotFinished = errors.New("race_not_finished")
	ErrAlreadySettled  = errors.New("race_already_settled")
	ErrSuitFinished    = errors.New("suit_finished")
)

type Phase string

const (
	PhaseBetting  Phase = "betting"
	PhaseRunning  Phase = "running"
	PhaseFinished Phase = "finished"
)

type BetKind string

const (
	BetPreRace BetKind = "pre_race"
	BetLive    BetKind = "live"
)

type Bet struct {
	ID       int             `json:"id"`
	Suit     cards.Suit      `json:"suit"`
	Amount   int64           `json:"amount"`
	Kind     BetKind         `json:"kind"`
	Odds     decimal.Decimal `json:"odds"`
	Position int             `json:"position_at_bet"`
}

type Step struct {
	Card     cards.Card `json:"card"`
	Suit     cards.Suit `json:"suit"`
	Position int        `json:"position"`
	Finished bool       `json:"finished"`
	Winner   cards.Suit `json:"winner,omitempty"`
}

type Settlement struct {
	Bet    Bet   `json:"bet"`
	Won    bool  `json:"won"`
	Payout int64 `json:"payout"`
}

// Race is one Racing Suits race. It is not safe for concurrent use.
type Race struct {
	phase     Phase
	positions map[cards.Suit]int
	deck      *cards.Deck
	bets      []Bet
	winner    cards.Suit
	lastStep  *Step
	settled   bool
}

func NewRace(deck *cards.Deck) *Race {
	if deck == nil {
		deck = cards.NewShuffledDeck()
	}
	positions := make(map[cards.Suit]int, len(cards.Suits))
	for _, s := range cards.Suits {
		positions[s] = 0
	}
	return &Race{phase: PhaseBetting, positions: positions, deck: deck}
}

func (r *Race) Phase() Phase { return r.phase }

func (r *Race) Winner() (cards.Suit, bool) {
	return r.winner, r.phase == PhaseFinished
}

func (r *Race) Position(s cards.Suit) int { return r.positions[s] }

func (r *Race) Settled() bool { return r.settled }

// LastStep is the most recent card drawn, zero before the first draw.
func (r *Race) LastStep() Step {
	if r.lastStep == nil {
		return Step{}
	}
	return *r.lastStep
}

// CheckBet validates a pre-race bet without placing it.
func (r *Race) CheckBet(suit cards.Suit, amount int64) error {
	if !suit.Valid() {
		return ErrInvalidSuit
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if r.phase != PhaseBetting {
		return ErrBettingClosed
	}
	return nil
}

func (r *Race) PlaceBet(suit cards.Suit, amount int64) (Bet, error) {
	if err := r.CheckBet(suit, amount); err != nil {
		return Bet{}, err
	}
	return r.addBet(Bet{
		Suit:   suit,
		Amount: amount,
		Kind:   BetPreRace,
		Odds:   decimal.NewFromInt(PreRaceMultiplier),
	}), nil
}

// CheckLiveBet validates a live bet and returns the odds it would get.
func (r *Race) CheckLiveBet(suit cards.Suit, amount int64) (decimal.Decimal, error) {
	if !suit.Valid() {
		return decimal.Zero, ErrInvalidSuit
	}
	if amount <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	if r.phase != PhaseRunning {
		return decimal.Zero, ErrRaceNotRunning
	}
	pos := r.positions[suit]
	if pos >= FinishLine {
		return decimal.Zero, ErrSuitFinished
	}
	return LiveOdds(pos), nil
}

func (r *Race) PlaceLiveBet(suit cards.Suit, amount int64) (Bet, error) {
	odds, err := r.CheckLiveBet(suit, amount)
	if err != nil {
		return Bet{}, err
	}
	return r.addBet(Bet{
		Suit:     suit,
		Amount:   amount,
		Kind:     BetLive,
		Odds:     odds,
		Position: r.positions[suit],
	}), nil
}

func (r *Race) Start() error {
	if r.phase != PhaseBetting {
		return ErrBettingClosed
	}
	r.phase = PhaseRunning
	return nil
}

// Advance flips the next card and moves its suit one step.
func (r *Race) Advance() (Step, error) {
	if r.phase != PhaseRunning {
		return Step{}, ErrRaceNotRunning
	}
	c, err := r.deck.Deal()
	if errors.Is(err, cards.ErrDeckEmpty) {
		r.deck = cards.NewShuffledDeck()
		c, err = r.deck.Deal()
	}
	if err != nil {
		return Step{}, err
	}
	r.positions[c.Suit]++
	step := Step{Card: c, Suit: c.Suit, Position: r.positions[c.Suit]}
	if step.Position >= FinishLine {
		r.phase = PhaseFinished
		r.winner = c.Suit
		step.Finished = true
		step.Winner = c.Suit
	}
	r.lastStep = &step
	return step, nil
}

// Settle resolves every bet once the race has a winner.
func (r *Race) Settle() ([]Settlement, error) {
	if r.phase != PhaseFinished {
		return nil, ErrRaceNotFinished
	}
	if r.settled {
		return nil, ErrAlreadySettled
	}
	r.settled = true
	out := make([]Settlement, 0, len(r.bets))
	for _, b := range r.bets {
		s := Settlement{Bet: b, Won: b.Suit == r.winner}
		if s.Won {
			switch b.Kind {
			case BetPreRace:
				s.Payout = PreRacePayout(b.Amount)
			case BetLive:
				s.Payout = LivePayout(b.Amount, b.Odds)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Race) addBet(b Bet) Bet {
	b.ID = len(r.bets) + 1
	r.bets = append(r.bets, b)
	return b
}

type Snapshot struct {
	Phase     Phase                  `json:"phase"`
	Positions map[cards.Suit]int     `json:"positions"`
	LiveOdds  map[cards.Suit]float64 `json:"live_odds,omitempty"`
	Bets      []Bet                  `json:"bets"`
	LastStep  *Step                  `json:"last_step,omitempty"`
	Winner    cards.Suit             `json:"winner,omitempty"`
	Settled   bool                   `json:"settled"`
}

func (r *Race) Snapshot() Snapshot {
	s := Snapshot{
		Phase:     r.phase,
		Positions: make(map[cards.Suit]int, len(r.positions)),
		Bets:      append([]Bet(nil), r.bets...),
		Winner:    r.winner,
		Settled:   r.settled,
	}
	for suit, pos := range r.positions {
		s.Positions[suit] = pos
	}
	if r.phase == PhaseRunning {
		s.LiveOdds = make(map[cards.Suit]float64, len(r.positions))
		for suit, pos := range r.positions {
			s.LiveOdds[suit] = LiveOdds(pos).InexactFloat64()
		}
	}
	if r.lastStep != nil {
		step := *r.lastStep
		s.LastStep = &step
	}
	return s
}
