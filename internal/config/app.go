package config

import (
	"errors"
	"fmt"
	"strings"
)

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

// LoadApp reads the whole environment and rejects settings the server could
// start with but not run correctly on.
func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	cfg := AppConfig{Server: serverCfg, Log: logCfg}
	cfg.Server.Currency = strings.ToLower(strings.TrimSpace(cfg.Server.Currency))
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	return errors.Join(c.Log.Validate(), c.Server.Validate())
}

// Validate checks the economy, payment and cache settings. It reports every
// problem at once.
func (c ServerConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	if !isCurrencyCode(c.Currency) {
		errs = append(errs, fmt.Errorf("CURRENCY %q is not a three letter currency code", c.Currency))
	}
	if c.StartingChips < 0 {
		errs = append(errs, fmt.Errorf("STARTING_CHIPS must not be negative, got %d", c.StartingChips))
	}
	if c.GameSessionTTLMinutes < 0 {
		errs = append(errs, fmt.Errorf("GAME_SESSION_TTL_MINUTES must not be negative, got %d", c.GameSessionTTLMinutes))
	}
	if c.StripeSecretKey != "" && !hasAnyPrefix(c.StripeSecretKey, "sk_", "rk_") {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY must be a secret or restricted key"))
	}
	if c.StripeWebhookSecret != "" && !strings.HasPrefix(c.StripeWebhookSecret, "whsec_") {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET must start with whsec_"))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB must not be negative, got %d", c.RedisDB))
	}
	if c.RedisAddr == "" && c.RedisPassword != "" {
		errs = append(errs, errors.New("REDIS_PASSWORD is set without REDIS_ADDR"))
	}
	return errors.Join(errs...)
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
