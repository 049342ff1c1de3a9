package schema

import (
	"errors"
	"time"
)

// ServiceConfig defines defaults and limits for the console service.
type ServiceConfig struct {
	// LogMaxLines bounds the visible log of each console.
	LogMaxLines int
	// ResponseDelay is the synthetic pause between an echoed command and its response.
	ResponseDelay time.Duration
	// TimeScale multiplies every script delay; 1 plays in real time.
	TimeScale float64
	// MaxConsoles bounds concurrently open consoles; 0 means unlimited.
	MaxConsoles int
}

// DefaultLogMaxLines is the default per-console log limit.
const DefaultLogMaxLines = 500

// DefaultResponseDelay is the default pause before a console response.
const DefaultResponseDelay = 400 * time.Millisecond

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.LogMaxLines <= 0 {
		cfg.LogMaxLines = DefaultLogMaxLines
	}
	if cfg.ResponseDelay < 0 {
		return ServiceConfig{}, errors.New("response delay must not be negative")
	}
	if cfg.TimeScale == 0 {
		cfg.TimeScale = 1
	}
	if cfg.TimeScale < 0 {
		return ServiceConfig{}, errors.New("time scale must be positive")
	}
	if cfg.MaxConsoles < 0 {
		return ServiceConfig{}, errors.New("max consoles must not be negative")
	}
	return cfg, nil
}
