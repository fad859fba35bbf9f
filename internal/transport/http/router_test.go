package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"casino-hub/internal/app/billing"
	"casino-hub/internal/app/play"
	"casino-hub/internal/app/profile"
	"casino-hub/internal/auth"
	"casino-hub/internal/config"
	"casino-hub/internal/history"
	"casino-hub/internal/ledger"
	"casino-hub/internal/payments"
	"casino-hub/internal/store"

	"github.com/google/uuid"
)

const (
	testJWTSecret     = "jwt-test-secret"
	testWebhookSecret = "whsec_router_test"
	testAdminKey      = "admin-key"
)

type fakeStore struct {
	mu      sync.Mutex
	wallets map[string]*store.Wallet
	events  map[string]bool
	emails  map[string]bool
	entries []store.LedgerEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{wallets: map[string]*store.Wallet{}, events: map[string]bool{}, emails: map[string]bool{}}
}

func (f *fakeStore) wallet(userID string) (*store.Wallet, error) {
	w, ok := f.wallets[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return w, nil
}

func (f *fakeStore) chips(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.wallets[userID]; ok {
		return w.Chips
	}
	return -1
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) EnsureAccount(_ context.Context, userID, email string, initial int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.wallets[userID]; !ok {
		f.wallets[userID] = &store.Wallet{UserID: userID, Chips: initial, Level: 1, Version: 1}
	}
	if email != "" {
		f.emails[strings.ToLower(email)] = true
	}
	return nil
}

func (f *fakeStore) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.emails[strings.ToLower(email)], nil
}

func (f *fakeStore) GetWallet(_ context.Context, userID string) (*store.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.wallet(userID)
	if err != nil {
		return nil, err
	}
	cp := *w
	return &cp, nil
}

func (f *fakeStore) GetChips(ctx context.Context, userID string) (int64, error) {
	w, err := f.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return w.Chips, nil
}

func (f *fakeStore) move(userID string, delta int64, typ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.wallet(userID)
	if err != nil {
		return 0, err
	}
	if w.Chips+delta < 0 {
		return 0, store.ErrInsufficientChips
	}
	w.Chips += delta
	w.Version++
	f.entries = append(f.entries, store.LedgerEntry{ID: store.NewID(), UserID: userID, Type: typ, Amount: delta})
	return w.Chips, nil
}

func (f *fakeStore) Debit(_ context.Context, userID string, amount int64, typ, _, _ string) (int64, error) {
	return f.move(userID, -amount, typ)
}

func (f *fakeStore) Credit(_ context.Context, userID string, amount int64, typ, _, _ string) (int64, error) {
	return f.move(userID, amount, typ)
}

func (f *fakeStore) SetChips(_ context.Context, userID string, chips, expected int64, _, _ string) (*store.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.wallet(userID)
	if err != nil {
		return nil, err
	}
	if w.Version != expected {
		return nil, store.ErrVersionConflict
	}
	w.Chips = chips
	w.Version++
	cp := *w
	return &cp, nil
}

func (f *fakeStore) GrantReward(_ context.Context, userID string, r store.Reward, levelFor func(int64) int, _, _ string) (*store.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.wallet(userID)
	if err != nil {
		return nil, err
	}
	w.Chips += r.Chips
	w.Experience += r.Experience
	w.Level = levelFor(w.Experience)
	w.Version++
	cp := *w
	return &cp, nil
}

func (f *fakeStore) ListLedgerEntries(_ context.Context, filter store.LedgerFilter, _, _ int) ([]store.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.LedgerEntry{}
	for _, e := range f.entries {
		if e.UserID == filter.UserID && (filter.Type == "" || e.Type == filter.Type) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) PlayTotals(_ context.Context, userID string, k store.TotalsKinds) (store.PlayTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kind := map[string]string{}
	for _, typ := range k.Wager {
		kind[typ] = "wager"
	}
	for _, typ := range k.Win {
		kind[typ] = "win"
	}
	var t store.PlayTotals
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		switch kind[e.Type] {
		case "wager":
			t.Wagers++
			t.Wagered -= e.Amount
		case "win":
			t.Wins++
			t.Won += e.Amount
			if e.Amount > t.BiggestWin {
				t.BiggestWin = e.Amount
			}
		}
	}
	return t, nil
}

func (f *fakeStore) CreditPayment(_ context.Context, p store.PaymentCredit) (store.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[p.UserID]
	if !ok {
		w = &store.Wallet{UserID: p.UserID, Level: 1, Version: 1}
		f.wallets[p.UserID] = w
	}
	if f.events[p.EventID] {
		return store.PaymentResult{Balance: w.Chips, Duplicate: true}, nil
	}
	f.events[p.EventID] = true
	w.Chips += p.Chips
	return store.PaymentResult{Balance: w.Chips}, nil
}

type testEnv struct {
	handler http.Handler
	store   *fakeStore
	history *history.Store
	auth    *auth.Verifier
}

func newTestEnv(t *testing.T, startingChips int64) *testEnv {
	t.Helper()
	fs := newFakeStore()
	hist := history.New(history.NewMemoryStorage())
	led := ledger.New(fs)
	verifier := auth.NewVerifier(testJWTSecret)
	gateway := payments.NewStripeGateway("", testWebhookSecret)

	svc := Services{
		Admin:      fs,
		Auth:       verifier,
		Profile:    profile.NewService(led, fs, hist, startingChips),
		Billing:    billing.NewService(gateway, fs, "usd"),
		Play:       play.NewCoordinator(led, hist, time.Minute),
		Webhooks:   gateway,
		Reconciler: payments.NewReconciler(fs, hist),
	}
	cfg := config.ServerConfig{AdminAPIKey: testAdminKey}
	return &testEnv{handler: NewRouter(svc, cfg), store: fs, history: hist, auth: verifier}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.auth.Issue(userID, userID[:8]+"@example.com", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 1000)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["db"] != "up" {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestWalletRequiresBearerAndOpensAccount(t *testing.T) {
	env := newTestEnv(t, 1000)

	if rec := env.do(t, http.MethodGet, "/api/wallet", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/wallet", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	userID := uuid.NewString()
	rec := env.do(t, http.MethodGet, "/api/wallet", env.token(t, userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("wallet status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["chips"] != float64(1000) || body["level"] != float64(1) {
		t.Fatalf("unexpected wallet %v", body)
	}
}

func TestWalletChipsDeltaAndVersionedWrite(t *testing.T) {
	env := newTestEnv(t, 100)
	userID := uuid.NewString()
	tok := env.token(t, userID)

	rec := env.do(t, http.MethodPost, "/api/wallet/chips", tok, map[string]any{"delta": -500})
	if rec.Code != http.StatusPaymentRequired || decodeBody(t, rec)["error"] != "insufficient_chips" {
		t.Fatalf("expected 402 insufficient_chips, got %d %s", rec.Code, rec.Body.String())
	}
	if env.store.chips(userID) != 100 {
		t.Fatalf("rejected delta changed chips to %d", env.store.chips(userID))
	}

	rec = env.do(t, http.MethodPost, "/api/wallet/chips", tok, map[string]any{"chips": 250, "version": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("set chips status %d body %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/wallet/chips", tok, map[string]any{"chips": 999, "version": 1})
	if rec.Code != http.StatusConflict || decodeBody(t, rec)["error"] != "version_conflict" {
		t.Fatalf("expected 409 version_conflict, got %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/wallet/chips", tok, map[string]any{"chips": 1, "delta": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for ambiguous body, got %d", rec.Code)
	}
	if env.store.chips(userID) != 250 {
		t.Fatalf("expected 250 chips, got %d", env.store.chips(userID))
	}
}

func TestStackemTileInsufficientChips(t *testing.T) {
	env := newTestEnv(t, 5)
	userID := uuid.NewString()
	tok := env.token(t, userID)

	rec := env.do(t, http.MethodPost, "/api/games/stackem/deals", tok, map[string]any{"ante": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start deal status %d body %s", rec.Code, rec.Body.String())
	}
	dealID, _ := decodeBody(t, rec)["id"].(string)

	rec = env.do(t, http.MethodPost, "/api/games/stackem/deals/"+dealID+"/tiles", tok, map[string]any{"row": 0, "col": 0})
	if rec.Code != http.StatusPaymentRequired || decodeBody(t, rec)["error"] != "insufficient_chips" {
		t.Fatalf("expected 402 insufficient_chips, got %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/games/stackem/deals/"+dealID, tok, nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["tiles_placed"] != float64(0) {
		t.Fatalf("deal mutated after rejected tile: %d %s", rec.Code, rec.Body.String())
	}
	if env.store.chips(userID) != 5 {
		t.Fatalf("chips changed to %d", env.store.chips(userID))
	}

	other := env.token(t, uuid.NewString())
	if rec := env.do(t, http.MethodGet, "/api/games/stackem/deals/"+dealID, other, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's deal, got %d", rec.Code)
	}
}

func TestRacingFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t, 100)
	tok := env.token(t, uuid.NewString())

	rec := env.do(t, http.MethodPost, "/api/games/racing/races", tok, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create race status %d", rec.Code)
	}
	raceID, _ := decodeBody(t, rec)["id"].(string)
	base := "/api/games/racing/races/" + raceID

	if rec := env.do(t, http.MethodPost, base+"/bets", tok, map[string]any{"suit": "stars", "amount": 10}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid suit, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, base+"/bets", tok, map[string]any{"suit": "hearts", "amount": 10}); rec.Code != http.StatusOK {
		t.Fatalf("bet status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, base+"/advance", tok, nil); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 advancing before start, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, base+"/start", tok, nil); rec.Code != http.StatusOK {
		t.Fatalf("start status %d", rec.Code)
	}
	for i := 0; i < 100; i++ {
		rec := env.do(t, http.MethodPost, base+"/advance", tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("advance status %d body %s", rec.Code, rec.Body.String())
		}
		step, _ := decodeBody(t, rec)["step"].(map[string]any)
		if step["finished"] == true {
			return
		}
	}
	t.Fatalf("race did not finish")
}

func TestCreatePaymentIntentEndpoint(t *testing.T) {
	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodGet, "/api/create-payment-intent", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodOptions, "/api/create-payment-intent", "", nil)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight %d %v", rec.Code, rec.Header())
	}
	rec = env.do(t, http.MethodPost, "/api/create-payment-intent", "", map[string]any{"amount": 4.99, "userId": uuid.NewString()})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing item, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "invalid_request" || body["details"] == "" {
		t.Fatalf("expected error and details, got %v", body)
	}
	rec = env.do(t, http.MethodPost, "/api/create-payment-intent", "", map[string]any{"amount": 4.99, "itemId": "starter_pack", "userId": "bob"})
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["error"] != "invalid_request" {
		t.Fatalf("expected 400 invalid_request for non-uuid user, got %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/create-payment-intent", "", map[string]any{"amount": 4.99, "itemId": "starter_pack", "userId": uuid.NewString()})
	if rec.Code != http.StatusInternalServerError || decodeBody(t, rec)["error"] != "configuration" {
		t.Fatalf("expected 500 configuration without secret key, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCheckEmailEndpoint(t *testing.T) {
	env := newTestEnv(t, 0)
	if err := env.store.EnsureAccount(context.Background(), uuid.NewString(), "known@example.com", 0); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	rec := env.do(t, http.MethodPost, "/api/check-email", "", map[string]any{"email": "Known@example.com"})
	if rec.Code != http.StatusOK || decodeBody(t, rec)["exists"] != true {
		t.Fatalf("expected exists=true, got %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/check-email", "", map[string]any{"email": "new@example.com"})
	if rec.Code != http.StatusOK || decodeBody(t, rec)["exists"] != false {
		t.Fatalf("expected exists=false, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestHistoryExportIsAttachment(t *testing.T) {
	env := newTestEnv(t, 100)
	userID := uuid.NewString()
	tok := env.token(t, userID)

	if rec := env.do(t, http.MethodPost, "/api/wallet/chips", tok, map[string]any{"delta": 25}); rec.Code != http.StatusOK {
		t.Fatalf("adjust status %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/history/export", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "casino-hub-export-") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	doc := rec.Body.String()
	for _, key := range []string{`"purchases"`, `"transactions"`, `"gameData"`, `"exportDate"`} {
		if !strings.Contains(doc, key) {
			t.Fatalf("export missing %s: %s", key, doc)
		}
	}

	if rec := env.do(t, http.MethodDelete, "/api/history", tok, nil); rec.Code != http.StatusOK {
		t.Fatalf("clear status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/history/import", tok, doc); rec.Code != http.StatusOK {
		t.Fatalf("import status %d body %s", rec.Code, rec.Body.String())
	}
	txs, _ := env.history.Transactions(context.Background(), userID)
	if len(txs) != 1 || txs[0].Amount != 25 {
		t.Fatalf("import did not restore transactions: %+v", txs)
	}
	if rec := env.do(t, http.MethodPost, "/api/history/import", tok, "{broken"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken import, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireKey(t *testing.T) {
	env := newTestEnv(t, 0)

	if rec := env.do(t, http.MethodGet, "/api/debug/vars", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin key, got %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/debug/vars", testAdminKey, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "webhook_events_total") {
		t.Fatalf("unexpected debug vars %d", rec.Code)
	}
}
