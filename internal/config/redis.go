package config

import "github.com/rs/zerolog/log"

// RedisConfig is shared by the redis storage backend and the redis event stream
type RedisConfig struct {
	URL      string
	Password string
}

func loadRedis() RedisConfig {
	cfg := RedisConfig{
		URL:      GetEnvOrDefault("REDIS_URL", ""),
		Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
	}

	if cfg.URL == "" {
		log.Debug().Msg("REDIS_URL not set")
	} else {
		log.Info().Msg("Redis URL successfully loaded")
	}

	return cfg
}
