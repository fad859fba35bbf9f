package store_test

import (
	"testing"

	"casino-hub/internal/store"
	"casino-hub/internal/testutil"

	"github.com/google/uuid"
)

func TestCreditPaymentCreditsOncePerEvent(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := testutil.NewAccount(t, st, ctx, 1000)

	credit := store.PaymentCredit{
		EventID:     "evt_checkout_1",
		Kind:        "checkout_completed",
		UserID:      userID,
		Chips:       5000,
		AmountCents: 499,
	}
	first, err := st.CreditPayment(ctx, credit)
	if err != nil {
		t.Fatalf("first credit: %v", err)
	}
	if first.Duplicate || first.Balance != 6000 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	replay, err := st.CreditPayment(ctx, credit)
	if err != nil {
		t.Fatalf("replayed credit: %v", err)
	}
	if !replay.Duplicate || replay.Balance != 6000 {
		t.Fatalf("replay must not credit again: %+v", replay)
	}
	seen, err := st.PaymentEventProcessed(ctx, credit.EventID)
	if err != nil || !seen {
		t.Fatalf("expected event to be recorded, got %v %v", seen, err)
	}
}

func TestCreditPaymentOpensMissingWallet(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := uuid.NewString()

	res, err := st.CreditPayment(ctx, store.PaymentCredit{
		EventID: "evt_pi_1",
		Kind:    "payment_intent_succeeded",
		UserID:  userID,
		Chips:   12000,
		ItemID:  "value_pack",
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if res.Balance != 12000 {
		t.Fatalf("expected 12000, got %d", res.Balance)
	}
}

func TestEmailExists(t *testing.T) {
	st, ctx := testutil.OpenTestStore(t)
	userID := uuid.NewString()
	if err := st.EnsureAccount(ctx, userID, "Player@Example.com", 0); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	ok, err := st.EmailExists(ctx, "player@example.com")
	if err != nil || !ok {
		t.Fatalf("expected email to exist, got %v %v", ok, err)
	}
	ok, err = st.EmailExists(ctx, "nobody@example.com")
	if err != nil || ok {
		t.Fatalf("expected email to be missing, got %v %v", ok, err)
	}
	u, err := st.GetUser(ctx, userID)
	if err != nil || u.Email != "Player@Example.com" {
		t.Fatalf("unexpected user %+v %v", u, err)
	}
}
