package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76/webhook"
)

func checkoutEvent(eventID, userID string, total int64) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","amount_total":%d,"client_reference_id":%q}}}`,
		eventID, total, userID))
}

func (e *testEnv) postWebhook(t *testing.T, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func signedHeader(payload []byte) string {
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return sp.Header
}

func TestWebhookCreditsEventOnce(t *testing.T) {
	env := newTestEnv(t, 0)
	userID := uuid.NewString()
	payload := checkoutEvent("evt_once", userID, 499)

	for i := 0; i < 2; i++ {
		rec := env.postWebhook(t, payload, signedHeader(payload))
		if rec.Code != http.StatusOK || decodeBody(t, rec)["received"] != true {
			t.Fatalf("delivery %d: status %d body %s", i, rec.Code, rec.Body.String())
		}
	}
	if got := env.store.chips(userID); got != 5000 {
		t.Fatalf("expected one credit of 5000 chips, got %d", got)
	}
	purchases, err := env.history.Purchases(context.Background(), userID)
	if err != nil {
		t.Fatalf("purchases: %v", err)
	}
	if len(purchases) != 1 || purchases[0].Chips != 5000 {
		t.Fatalf("expected one purchase record, got %+v", purchases)
	}
}

func TestWebhookRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, 0)
	userID := uuid.NewString()

	payload := checkoutEvent("evt_forged", userID, 499)
	rec := env.postWebhook(t, payload, "t=1,v1=deadbeef")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", rec.Code)
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.HasPrefix(msg, "invalid_signature") {
		t.Fatalf("unexpected error %q", msg)
	}

	payload = checkoutEvent("evt_odd_amount", userID, 123)
	if rec := env.postWebhook(t, payload, signedHeader(payload)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown amount, got %d", rec.Code)
	}
	if got := env.store.chips(userID); got != -1 {
		t.Fatalf("rejected events must not open or credit a wallet, chips=%d", got)
	}

	payload = checkoutEvent("evt_bad_user", "bob", 499)
	rec = env.postWebhook(t, payload, signedHeader(payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-uuid user so stripe stops retrying, got %d", rec.Code)
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.HasPrefix(msg, "missing_user") {
		t.Fatalf("unexpected error %q", msg)
	}

	payload = []byte(`{"id":"evt_other","object":"event","type":"customer.created","data":{"object":{}}}`)
	if rec := env.postWebhook(t, payload, signedHeader(payload)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unhandled event type, got %d", rec.Code)
	}
}
