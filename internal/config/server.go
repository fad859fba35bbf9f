package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey   string `env:"ADMIN_API_KEY"`
	AuthJWTSecret string `env:"AUTH_JWT_SECRET,required,notEmpty"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	Currency            string `env:"CURRENCY" envDefault:"usd"`

	StartingChips         int64 `env:"STARTING_CHIPS" envDefault:"1000"`
	GameSessionTTLMinutes int   `env:"GAME_SESSION_TTL_MINUTES" envDefault:"30"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

func (c ServerConfig) GameSessionTTL() time.Duration {
	if c.GameSessionTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.GameSessionTTLMinutes) * time.Minute
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
