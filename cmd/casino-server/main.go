package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casino-hub/internal/app/billing"
	"casino-hub/internal/app/play"
	"casino-hub/internal/app/profile"
	"casino-hub/internal/auth"
	"casino-hub/internal/config"
	"casino-hub/internal/history"
	"casino-hub/internal/ledger"
	"casino-hub/internal/logging"
	"casino-hub/internal/payments"
	"casino-hub/internal/store"
	httptransport "casino-hub/internal/transport/http"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	hist := history.New(historyStorage(ctx, cfg.Server))
	led := ledger.New(st)

	coord := play.NewCoordinator(led, hist, cfg.Server.GameSessionTTL())
	coord.StartJanitor(ctx, time.Minute)

	if cfg.Server.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, payment intents disabled")
	}
	if cfg.Server.StripeWebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, webhooks disabled")
	}
	gateway := payments.NewStripeGateway(cfg.Server.StripeSecretKey, cfg.Server.StripeWebhookSecret)

	r := httptransport.NewRouter(httptransport.Services{
		Admin:      st,
		Auth:       auth.NewVerifier(cfg.Server.AuthJWTSecret),
		Profile:    profile.NewService(led, st, hist, cfg.Server.StartingChips),
		Billing:    billing.NewService(gateway, st, cfg.Server.Currency),
		Play:       coord,
		Webhooks:   gateway,
		Reconciler: payments.NewReconciler(st, hist),
	}, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

// historyStorage uses Redis when configured and reachable, otherwise an
// in-process map that is lost on restart.
func historyStorage(ctx context.Context, cfg config.ServerConfig) history.Storage {
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set, history kept in memory")
		return history.NewMemoryStorage()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	rs := history.NewRedisStorage(client)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, history kept in memory")
		_ = client.Close()
		return history.NewMemoryStorage()
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("history backed by redis")
	return rs
}
