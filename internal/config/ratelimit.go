package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

// RateLimits maps a route key to its limit
type RateLimits map[string]RateLimitConfig

func loadRateLimits() RateLimits {
	enabled := parseEnvBool("RATELIMIT_ENABLED", false)

	return RateLimits{
		"global": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_GLOBAL", 1000), // 1000 requests per minute globally
			Window:  time.Minute,
		},
		"chat": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_CHAT", 120),
			Window:  time.Minute,
		},
		"realtime_session": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_REALTIME_SESSION", 20),
			Window:  time.Minute,
		},
	}
}

// Get returns the limit for key, disabled when the key is unknown
func (r RateLimits) Get(key string) RateLimitConfig {
	if cfg, exists := r[key]; exists {
		return cfg
	}

	log.Warn().Str("key", key).Msg("No rate limit config found")
	return RateLimitConfig{Enabled: false}
}
