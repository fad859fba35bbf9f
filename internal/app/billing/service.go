// Package billing creates payment intents for catalog packages and answers
// account existence checks for the checkout form.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"casino-hub/internal/payments"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrAmountMismatch = errors.New("amount_mismatch")
)

type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req payments.IntentRequest) (string, error)
}

type EmailDirectory interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

type CreateIntentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	ItemID string          `json:"itemId"`
	UserID string          `json:"userId"`
}

type Service struct {
	gateway  IntentCreator
	emails   EmailDirectory
	currency string
}

func NewService(g IntentCreator, e EmailDirectory, currency string) *Service {
	if currency == "" {
		currency = "usd"
	}
	return &Service{gateway: g, emails: e, currency: currency}
}

func (s *Service) Packages() []payments.Package {
	return payments.Packages()
}

func validUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CreatePaymentIntent converts the major-unit amount to cents and requires
// it to be the catalog price of the item.
func (s *Service) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (string, error) {
	itemID := strings.TrimSpace(req.ItemID)
	userID := strings.TrimSpace(req.UserID)
	switch {
	case itemID == "":
		return "", fmt.Errorf("%w: itemId is required", ErrInvalidRequest)
	case userID == "":
		return "", fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	case !validUserID(userID):
		return "", fmt.Errorf("%w: userId must be a uuid", ErrInvalidRequest)
	case !req.Amount.IsPositive():
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	pkg, ok := payments.PackageByItem(itemID)
	if !ok {
		return "", fmt.Errorf("%w: unknown item %q", payments.ErrUnknownPackage, itemID)
	}
	cents := req.Amount.Shift(2).Round(0).IntPart()
	if cents != pkg.PriceCents {
		return "", fmt.Errorf("%w: %s costs %d cents, got %d", ErrAmountMismatch, itemID, pkg.PriceCents, cents)
	}
	return s.gateway.CreatePaymentIntent(ctx, payments.IntentRequest{
		AmountCents: cents,
		Currency:    s.currency,
		UserID:      userID,
		ItemID:      itemID,
	})
}

func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return false, fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	return s.emails.EmailExists(ctx, email)
}
