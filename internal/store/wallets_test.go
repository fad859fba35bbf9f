package store_test

import (
	"errors"
	"sync"
	"testing"

	"casino-hub/internal/progression"
	"casino-hub/internal/store"
	"casino-hub/internal/testutil"
)

func TestEnsureAccountIsIdempotent(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := testutil.NewAccount(t, st, ctx, 1000)

	if err := st.EnsureAccount(ctx, userID, "", 5000); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	w, err := st.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Chips != 1000 || w.Level != 1 || w.Experience != 0 || w.Version != 1 {
		t.Fatalf("unexpected wallet: %+v", w)
	}
	if _, err := st.GetWallet(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDebitCreditConsistency(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := testutil.NewAccount(t, st, ctx, 1000)

	if _, err := st.Debit(ctx, userID, 2000, "bet_debit", "race", store.NewID()); !errors.Is(err, store.ErrInsufficientChips) {
		t.Fatalf("expected insufficient chips, got %v", err)
	}
	bal, err := st.Credit(ctx, userID, 300, "win_credit", "race", store.NewID())
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if bal != 1300 {
		t.Fatalf("expected 1300, got %d", bal)
	}
	bal, err = st.Debit(ctx, userID, 500, "bet_debit", "race", store.NewID())
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if bal != 800 {
		t.Fatalf("expected 800, got %d", bal)
	}

	entries, err := st.ListLedgerEntries(ctx, store.LedgerFilter{UserID: userID}, 10, 0)
	if err != nil {
		t.Fatalf("list ledger entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Amount != -500 || entries[1].Amount != 300 {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
	debits, err := st.ListLedgerEntries(ctx, store.LedgerFilter{UserID: userID, Type: "bet_debit"}, 10, 0)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(debits) != 1 {
		t.Fatalf("expected 1 debit, got %d", len(debits))
	}
}

func TestConcurrentCreditsDoNotLoseUpdates(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := testutil.NewAccount(t, st, ctx, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.Credit(ctx, userID, 10, "win_credit", "test", store.NewID()); err != nil {
				t.Errorf("credit: %v", err)
			}
		}()
	}
	wg.Wait()

	chips, err := st.GetChips(ctx, userID)
	if err != nil {
		t.Fatalf("get chips: %v", err)
	}
	if chips != 200 {
		t.Fatalf("expected 200 chips after 20 concurrent credits, got %d", chips)
	}
}

func TestSetChipsRequiresCurrentVersion(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := testutil.NewAccount(t, st, ctx, 100)

	w, err := st.SetChips(ctx, userID, 250, 1, "manual", "")
	if err != nil {
		t.Fatalf("set chips: %v", err)
	}
	if w.Chips != 250 || w.Version != 2 {
		t.Fatalf("unexpected wallet after set: %+v", w)
	}
	if _, err := st.SetChips(ctx, userID, 999, 1, "manual", ""); !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if _, err := st.SetChips(ctx, userID, -1, 2, "manual", ""); !errors.Is(err, store.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGrantRewardRecomputesLevel(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := testutil.NewAccount(t, st, ctx, 0)

	w, err := st.GrantReward(ctx, userID, store.Reward{Chips: 50, Experience: 3200}, progression.LevelFromXP, "achievement", "first_win")
	if err != nil {
		t.Fatalf("grant reward: %v", err)
	}
	if w.Chips != 50 || w.Experience != 3200 || w.Level != 2 {
		t.Fatalf("unexpected wallet: %+v", w)
	}
}

func TestPlayTotalsAggregatesLedger(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := testutil.NewAccount(t, st, ctx, 1000)

	moves := []struct {
		credit bool
		amount int64
		typ    string
	}{
		{false, 10, "ante_debit"},
		{false, 10, "ante_debit"},
		{true, 30, "line_credit"},
		{false, 25, "bet_debit"},
		{true, 100, "bet_credit"},
		{true, 10, "ante_refund"},
		{true, 50, "adjust_credit"},
	}
	for _, m := range moves {
		var err error
		if m.credit {
			_, err = st.Credit(ctx, userID, m.amount, m.typ, "test", "r1")
		} else {
			_, err = st.Debit(ctx, userID, m.amount, m.typ, "test", "r1")
		}
		if err != nil {
			t.Fatalf("%s %d: %v", m.typ, m.amount, err)
		}
	}
	if _, err := st.CreditPayment(ctx, store.PaymentCredit{EventID: "evt_totals", Kind: "checkout_completed", UserID: userID, Chips: 5000, AmountCents: 499}); err != nil {
		t.Fatalf("credit payment: %v", err)
	}

	got, err := st.PlayTotals(ctx, userID, store.TotalsKinds{
		Wager:    []string{"ante_debit", "bet_debit"},
		Win:      []string{"line_credit", "bet_credit"},
		Purchase: []string{"purchase_credit"},
	})
	if err != nil {
		t.Fatalf("play totals: %v", err)
	}
	want := store.PlayTotals{Wagers: 3, Wins: 2, Wagered: 45, Won: 130, BiggestWin: 100, Purchases: 1, ChipsPurchased: 5000}
	if got != want {
		t.Fatalf("totals = %+v, want %+v", got, want)
	}

	empty, err := st.PlayTotals(ctx, testutil.NewAccount(t, st, ctx, 0), store.TotalsKinds{})
	if err != nil || empty != (store.PlayTotals{}) {
		t.Fatalf("empty ledger totals = %+v %v", empty, err)
	}
}
