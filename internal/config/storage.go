package config

import (
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// StorageConfig selects the key/value backend for settings and records
type StorageConfig struct {
	Backend string
	Path    string
}

func loadStorage() StorageConfig {
	backend := strings.ToLower(GetEnvOrDefault("STORAGE_BACKEND", StorageSQLite))
	switch backend {
	case StorageMemory, StorageSQLite, StorageRedis:
	default:
		log.Warn().Str("backend", backend).Msg("Unknown STORAGE_BACKEND, falling back to sqlite")
		backend = StorageSQLite
	}

	return StorageConfig{
		Backend: backend,
		Path:    GetEnvOrDefault("STORAGE_PATH", "counsel.db"),
	}
}

// EventsConfig controls where domain events are fanned out
type EventsConfig struct {
	RedisEnabled bool
	Group        string
	Consumer     string
}

func loadEvents() EventsConfig {
	return EventsConfig{
		RedisEnabled: parseEnvBool("EVENTS_REDIS_ENABLED", false),
		Group:        GetEnvOrDefault("EVENTS_REDIS_GROUP", "counsel"),
		Consumer:     GetEnvOrDefault("EVENTS_REDIS_CONSUMER", "counsel-1"),
	}
}
