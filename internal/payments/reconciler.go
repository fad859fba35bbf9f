package payments

import (
	"context"
	"errors"
	"fmt"

	"casino-hub/internal/history"
	"casino-hub/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownAmount  = errors.New("unknown_amount")
	ErrUnknownPackage = errors.New("unknown_package")
	ErrMissingUser    = errors.New("missing_user")
)

type Crediter interface {
	CreditPayment(ctx context.Context, p store.PaymentCredit) (store.PaymentResult, error)
}

type PurchaseRecorder interface {
	AppendPurchase(ctx context.Context, userID string, rec history.PurchaseRecord) (history.PurchaseRecord, error)
}

type Outcome struct {
	Handled   bool
	Duplicate bool
	UserID    string
	Chips     int64
	Balance   int64
}

// Reconciler turns verified events into wallet credits.
type Reconciler struct {
	Wallets   Crediter
	Purchases PurchaseRecorder
}

func NewReconciler(w Crediter, p PurchaseRecorder) *Reconciler {
	return &Reconciler{Wallets: w, Purchases: p}
}

// Apply credits the chips for ev exactly once per event id. Unhandled event
// types are acknowledged without effect.
func (r *Reconciler) Apply(ctx context.Context, ev Event) (Outcome, error) {
	credit, err := resolve(ev)
	if err != nil || credit == nil {
		return Outcome{}, err
	}
	res, err := r.Wallets.CreditPayment(ctx, *credit)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{
		Handled:   true,
		Duplicate: res.Duplicate,
		UserID:    credit.UserID,
		Chips:     credit.Chips,
		Balance:   res.Balance,
	}
	if res.Duplicate {
		log.Info().Str("event_id", credit.EventID).Str("user_id", credit.UserID).Msg("payment event already processed")
		return out, nil
	}
	log.Info().
		Str("event_id", credit.EventID).
		Str("user_id", credit.UserID).
		Int64("chips", credit.Chips).
		Int64("balance", res.Balance).
		Msg("chips credited")

	if r.Purchases != nil {
		if _, err := r.Purchases.AppendPurchase(ctx, credit.UserID, history.PurchaseRecord{
			PackageID:   credit.ItemID,
			Chips:       credit.Chips,
			AmountCents: credit.AmountCents,
			EventID:     credit.EventID,
		}); err != nil {
			log.Warn().Err(err).Str("user_id", credit.UserID).Msg("record purchase failed")
		}
	}
	return out, nil
}

// checkUser rejects events whose user reference is not an account id. These
// can never be credited, so they must not reach the store and fail there.
func checkUser(id string) error {
	if id == "" {
		return ErrMissingUser
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q is not a user id", ErrMissingUser, id)
	}
	return nil
}

func resolve(ev Event) (*store.PaymentCredit, error) {
	switch e := ev.(type) {
	case CheckoutCompleted:
		if err := checkUser(e.UserID); err != nil {
			return nil, err
		}
		pkg, ok := PackageByAmount(e.AmountTotal)
		if !ok {
			return nil, ErrUnknownAmount
		}
		return &store.PaymentCredit{
			EventID:     e.ID,
			Kind:        "checkout_completed",
			UserID:      e.UserID,
			Chips:       pkg.Chips,
			AmountCents: e.AmountTotal,
			ItemID:      pkg.ID,
		}, nil
	case PaymentIntentSucceeded:
		if err := checkUser(e.UserID); err != nil {
			return nil, err
		}
		pkg, ok := PackageByItem(e.ItemID)
		if !ok {
			return nil, ErrUnknownPackage
		}
		return &store.PaymentCredit{
			EventID:     e.ID,
			Kind:        "payment_intent_succeeded",
			UserID:      e.UserID,
			Chips:       pkg.Chips,
			AmountCents: e.Amount,
			ItemID:      pkg.ID,
		}, nil
	default:
		return nil, nil
	}
}
