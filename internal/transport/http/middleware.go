package httptransport

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"casino-hub/internal/auth"
	"casino-hub/internal/logging"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/zerolog/log"
)

func APILogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

// CORSMiddleware lets the browser front end, served from any origin, call
// the API. Preflight requests end here.
func CORSMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAuditMiddleware records who changed what through the admin surface.
// Up to maxBytes of the request body go into the audit line; the handler
// still reads the whole body.
func AdminAuditMiddleware(maxBytes int) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 4096
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			head, _ := io.ReadAll(io.LimitReader(r.Body, int64(maxBytes)+1))
			truncated := len(head) > maxBytes
			r.Body = readCloser{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			ev := log.Info().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status", ww.Status())
			var compact bytes.Buffer
			switch {
			case len(head) == 0:
			case !truncated && json.Compact(&compact, head) == nil:
				ev = ev.RawJSON("body", compact.Bytes())
			default:
				ev = ev.Str("body", string(head[:min(len(head), maxBytes)])).Bool("body_truncated", truncated)
			}
			ev.Msg("admin request")
		})
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

func WriteHTTPError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// AccountEnsurer opens a wallet the first time a user calls the API.
type AccountEnsurer interface {
	EnsureAccount(ctx context.Context, userID, email string) error
}

// UserAuthMiddleware verifies the bearer token and makes sure the caller has
// a wallet before any handler runs.
func UserAuthMiddleware(v *auth.Verifier, accounts AccountEnsurer) func(http.Handler) http.Handler {
	var ensured sync.Map
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(auth.BearerToken(r.Header.Get("Authorization")))
			if err != nil {
				code := "invalid_token"
				if errors.Is(err, auth.ErrMissingToken) {
					code = "missing_token"
				}
				WriteHTTPError(w, http.StatusUnauthorized, code)
				return
			}
			if _, ok := ensured.Load(id.UserID); !ok {
				if err := accounts.EnsureAccount(r.Context(), id.UserID, id.Email); err != nil {
					log.Error().Err(err).Str("user_id", id.UserID).Msg("ensure account failed")
					WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
					return
				}
				ensured.Store(id.UserID, struct{}{})
			}
			httplog.SetAttrs(r.Context(), slog.String("user_id", id.UserID))
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func userID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}

// RequireAdminKey guards operator routes with the shared admin key, sent as
// X-Admin-Key or as a bearer token. Without a configured key the routes do
// not exist.
func RequireAdminKey(adminKey string) func(http.Handler) http.Handler {
	want := sha256.Sum256([]byte(adminKey))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				WriteHTTPError(w, http.StatusNotFound, "not_found")
				return
			}
			got := r.Header.Get("X-Admin-Key")
			if got == "" {
				got = auth.BearerToken(r.Header.Get("Authorization"))
			}
			sum := sha256.Sum256([]byte(got))
			if got == "" || !hmac.Equal(sum[:], want[:]) {
				WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// pageParams reads limit and offset, clamping them into range. Values that
// do not parse fall back to the defaults.
func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = min(max(queryInt(q, "limit", defaultPageLimit), 1), maxPageLimit)
	offset = max(queryInt(q, "offset", 0), 0)
	return limit, offset
}

func queryInt(q url.Values, key string, def int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return def
	}
	return n
}
