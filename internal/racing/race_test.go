package racing

import (
	"errors"
	"testing"

	"casino-hub/internal/cards"
)

func suitDeck(suits ...cards.Suit) *cards.Deck {
	out := make([]cards.Card, 0, len(suits))
	for i, s := range suits {
		out = append(out, cards.Card{Rank: cards.Rank(i%13 + 1), Suit: s})
	}
	return cards.NewDeckFrom(out)
}

func TestRaceLifecycleAndSettlement(t *testing.T) {
	h, s := cards.Hearts, cards.Spades
	r := NewRace(suitDeck(s, h, h, h, h, h, h))

	if _, err := r.PlaceBet(h, 10); err != nil {
		t.Fatalf("pre-race bet: %v", err)
	}
	if _, err := r.PlaceBet(s, 20); err != nil {
		t.Fatalf("pre-race bet: %v", err)
	}
	if _, err := r.PlaceLiveBet(h, 10); !errors.Is(err, ErrRaceNotRunning) {
		t.Fatalf("expected ErrRaceNotRunning before start, got %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.PlaceBet(h, 10); !errors.Is(err, ErrBettingClosed) {
		t.Fatalf("expected ErrBettingClosed, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := r.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if r.Position(h) != 2 || r.Position(s) != 1 {
		t.Fatalf("unexpected positions hearts=%d spades=%d", r.Position(h), r.Position(s))
	}
	live, err := r.PlaceLiveBet(h, 10)
	if err != nil {
		t.Fatalf("live bet: %v", err)
	}
	if live.Odds.String() != "2.7" || live.Position != 2 {
		t.Fatalf("unexpected live bet %+v", live)
	}

	if _, err := r.Settle(); !errors.Is(err, ErrRaceNotFinished) {
		t.Fatalf("expected ErrRaceNotFinished, got %v", err)
	}

	var last Step
	for r.Phase() == PhaseRunning {
		last, err = r.Advance()
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if !last.Finished || last.Winner != h {
		t.Fatalf("expected hearts to win, got %+v", last)
	}
	if w, ok := r.Winner(); !ok || w != h {
		t.Fatalf("Winner() = %v %v", w, ok)
	}

	settlements, err := r.Settle()
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(settlements) != 3 {
		t.Fatalf("expected 3 settlements, got %d", len(settlements))
	}
	wantPayouts := []int64{40, 0, 27}
	for i, st := range settlements {
		if st.Payout != wantPayouts[i] {
			t.Fatalf("settlement %d payout = %d, want %d (%+v)", i, st.Payout, wantPayouts[i], st)
		}
	}
	if _, err := r.Settle(); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	if _, err := r.Advance(); !errors.Is(err, ErrRaceNotRunning) {
		t.Fatalf("expected ErrRaceNotRunning after finish, got %v", err)
	}
}

func TestBetValidation(t *testing.T) {
	r := NewRace(nil)
	if _, err := r.PlaceBet(cards.Suit("stars"), 10); !errors.Is(err, ErrInvalidSuit) {
		t.Fatalf("expected ErrInvalidSuit, got %v", err)
	}
	if _, err := r.PlaceBet(cards.Clubs, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(r.Snapshot().Bets) != 0 {
		t.Fatal("rejected bets must not be recorded")
	}
}

func TestSnapshotShowsLiveOddsWhileRunning(t *testing.T) {
	r := NewRace(nil)
	if snap := r.Snapshot(); snap.LiveOdds != nil {
		t.Fatal("no live odds before the start")
	}
	_ = r.Start()
	snap := r.Snapshot()
	if snap.LiveOdds[cards.Diamonds] != 4.0 {
		t.Fatalf("expected 4.0 odds at start, got %v", snap.LiveOdds)
	}
	if len(snap.Positions) != 4 {
		t.Fatalf("expected 4 suits, got %d", len(snap.Positions))
	}
}
