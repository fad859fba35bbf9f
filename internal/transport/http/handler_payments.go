package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"casino-hub/internal/app/billing"
	"casino-hub/internal/payments"

	"github.com/rs/zerolog/log"
)

const maxWebhookBody = 64 << 10

type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (payments.Event, error)
}

type EventApplier interface {
	Apply(ctx context.Context, ev payments.Event) (payments.Outcome, error)
}

type PaymentHandlers struct {
	billing    *billing.Service
	verifier   EventVerifier
	reconciler EventApplier
}

func NewPaymentHandlers(b *billing.Service, v EventVerifier, rec EventApplier) *PaymentHandlers {
	return &PaymentHandlers{billing: b, verifier: v, reconciler: rec}
}

func writeErrorDetails(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, map[string]any{"error": code, "details": details})
}

func (h *PaymentHandlers) Packages() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": h.billing.Packages()})
	}
}

func (h *PaymentHandlers) CreatePaymentIntent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST, OPTIONS")
			WriteHTTPError(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		metricPaymentIntentTotal.Add(1)
		var body billing.CreateIntentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			metricPaymentIntentErrors.Add(1)
			writeErrorDetails(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		secret, err := h.billing.CreatePaymentIntent(r.Context(), body)
		if err != nil {
			metricPaymentIntentErrors.Add(1)
			switch {
			case errors.Is(err, billing.ErrInvalidRequest):
				writeErrorDetails(w, http.StatusBadRequest, "invalid_request", err.Error())
			case errors.Is(err, billing.ErrAmountMismatch):
				writeErrorDetails(w, http.StatusBadRequest, "amount_mismatch", err.Error())
			case errors.Is(err, payments.ErrUnknownPackage):
				writeErrorDetails(w, http.StatusBadRequest, "unknown_package", err.Error())
			case errors.Is(err, payments.ErrNotConfigured):
				writeErrorDetails(w, http.StatusInternalServerError, "configuration", "payment processor secret key is not set")
			default:
				log.Error().Err(err).Str("item_id", body.ItemID).Msg("create payment intent failed")
				writeErrorDetails(w, http.StatusInternalServerError, "payment_intent_failed", err.Error())
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"clientSecret": secret})
	}
}

// Webhook verifies the raw body before anything else reads it.
func (h *PaymentHandlers) Webhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricWebhookEventsTotal.Add(1)
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			metricWebhookErrorsTotal.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "unreadable_body")
			return
		}
		ev, err := h.verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			metricWebhookErrorsTotal.Add(1)
			if errors.Is(err, payments.ErrNotConfigured) {
				log.Error().Msg("webhook secret is not set")
				WriteHTTPError(w, http.StatusInternalServerError, "configuration")
				return
			}
			log.Warn().Err(err).Msg("webhook verification failed")
			WriteHTTPError(w, http.StatusBadRequest, err.Error())
			return
		}

		out, err := h.reconciler.Apply(r.Context(), ev)
		if err != nil {
			metricWebhookErrorsTotal.Add(1)
			switch {
			case errors.Is(err, payments.ErrUnknownAmount),
				errors.Is(err, payments.ErrUnknownPackage),
				errors.Is(err, payments.ErrMissingUser):
				log.Warn().Err(err).Str("event_id", ev.EventID()).Msg("webhook event rejected")
				WriteHTTPError(w, http.StatusBadRequest, err.Error())
			default:
				log.Error().Err(err).Str("event_id", ev.EventID()).Msg("webhook credit failed")
				WriteHTTPError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		switch {
		case out.Duplicate:
			metricWebhookDuplicatesTotal.Add(1)
		case out.Handled:
			metricChipsPurchasedTotal.Add(out.Chips)
		}
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	}
}

func (h *PaymentHandlers) CheckEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		exists, err := h.billing.EmailExists(r.Context(), body.Email)
		if err != nil {
			if errors.Is(err, billing.ErrInvalidRequest) {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
	}
}
