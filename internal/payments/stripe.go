package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrNotConfigured    = errors.New("payments_not_configured")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrMalformedEvent   = errors.New("malformed_event")
)

const (
	eventCheckoutCompleted      = "checkout.session.completed"
	eventPaymentIntentSucceeded = "payment_intent.succeeded"

	metaUserID = "userId"
	metaItemID = "itemId"
)

type IntentRequest struct {
	AmountCents int64
	Currency    string
	UserID      string
	ItemID      string
}

// StripeGateway talks to Stripe. Either secret may be empty; the operation
// needing it then fails with ErrNotConfigured.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		g.api = &client.API{}
		g.api.Init(secretKey, nil)
	}
	return g
}

// CreatePaymentIntent returns the client secret of a new intent tagged with
// the buyer and item so the webhook can credit it.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metaUserID, req.UserID)
	params.AddMetadata(metaItemID, req.ItemID)
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}

// VerifyEvent checks the Stripe-Signature header over the raw body and
// decodes the event into one of the typed events.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (Event, error) {
	if g.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(ev)
}

func decodeEvent(ev stripe.Event) (Event, error) {
	var raw json.RawMessage
	if ev.Data != nil {
		raw = ev.Data.Raw
	}
	switch string(ev.Type) {
	case eventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		userID := cs.ClientReferenceID
		if userID == "" {
			userID = cs.Metadata[metaUserID]
		}
		return CheckoutCompleted{
			ID:          ev.ID,
			SessionID:   cs.ID,
			UserID:      userID,
			AmountTotal: cs.AmountTotal,
		}, nil
	case eventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return PaymentIntentSucceeded{
			ID:              ev.ID,
			PaymentIntentID: pi.ID,
			UserID:          pi.Metadata[metaUserID],
			ItemID:          pi.Metadata[metaItemID],
			Amount:          pi.Amount,
		}, nil
	default:
		return Unhandled{ID: ev.ID, Type: string(ev.Type)}, nil
	}
}
