package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
)

type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
	// Service tags every log line so hub logs can be told apart in a shared sink.
	Service string `env:"LOG_SERVICE" envDefault:"casino-hub"`
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c LogConfig) Validate() error {
	if lvl := strings.ToLower(strings.TrimSpace(c.Level)); lvl != "" && !slices.Contains(logLevels, lvl) {
		return fmt.Errorf("LOG_LEVEL %q is not one of %s", c.Level, strings.Join(logLevels, ", "))
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("LOG_SAMPLE_EVERY must not be negative, got %d", c.SampleEvery)
	}
	if c.MaxMB < 0 {
		return fmt.Errorf("LOG_MAX_MB must not be negative, got %d", c.MaxMB)
	}
	return nil
}
