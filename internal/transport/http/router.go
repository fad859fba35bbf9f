package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"casino-hub/internal/app/billing"
	"casino-hub/internal/app/play"
	"casino-hub/internal/app/profile"
	"casino-hub/internal/auth"
	"casino-hub/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Services are the use cases the router exposes.
type Services struct {
	Admin      AdminStore
	Auth       *auth.Verifier
	Profile    *profile.Service
	Billing    *billing.Service
	Play       *play.Coordinator
	Webhooks   EventVerifier
	Reconciler EventApplier
}

func NewRouter(svc Services, cfg config.ServerConfig) *chi.Mux {
	adminHandlers := NewAdminHandlers(svc.Admin)
	paymentHandlers := NewPaymentHandlers(svc.Billing, svc.Webhooks, svc.Reconciler)
	profileHandlers := NewProfileHandlers(svc.Profile)
	gameHandlers := NewGameHandlers(svc.Play)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(CORSMiddleware())

		r.HandleFunc("/create-payment-intent", paymentHandlers.CreatePaymentIntent())
		r.Post("/webhook", paymentHandlers.Webhook())
		r.Post("/check-email", paymentHandlers.CheckEmail())
		r.Get("/packages", paymentHandlers.Packages())

		r.Group(func(r chi.Router) {
			r.Use(UserAuthMiddleware(svc.Auth, svc.Profile))

			r.Get("/wallet", profileHandlers.Wallet())
			r.Post("/wallet/chips", profileHandlers.Chips())
			r.Get("/wallet/ledger", profileHandlers.Ledger())

			r.Get("/achievements", profileHandlers.Achievements())
			r.Post("/achievements/{achievement_id}/claim", profileHandlers.ClaimAchievement())

			r.Get("/history/stats", profileHandlers.Stats())
			r.Get("/history/export", profileHandlers.Export())
			r.Post("/history/import", profileHandlers.Import())
			r.Delete("/history", profileHandlers.Clear())

			r.Route("/games/stackem/deals", func(r chi.Router) {
				r.Post("/", gameHandlers.StartDeal())
				r.Get("/{deal_id}", gameHandlers.Deal())
				r.Delete("/{deal_id}", gameHandlers.EndDeal())
				r.Put("/{deal_id}/ante", gameHandlers.SetAnte())
				r.Post("/{deal_id}/tiles", gameHandlers.PlaceTile())
			})
			r.Route("/games/racing/races", func(r chi.Router) {
				r.Post("/", gameHandlers.CreateRace())
				r.Get("/{race_id}", gameHandlers.Race())
				r.Post("/{race_id}/bets", gameHandlers.PlaceBet(false))
				r.Post("/{race_id}/start", gameHandlers.StartRace())
				r.Post("/{race_id}/live-bets", gameHandlers.PlaceBet(true))
				r.Post("/{race_id}/advance", gameHandlers.Advance())
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdminKey(cfg.AdminAPIKey))
			r.Use(AdminAuditMiddleware(4096))
			r.Get("/admin/ledger", adminHandlers.Ledger())
			r.Post("/admin/topup", adminHandlers.Topup())
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
