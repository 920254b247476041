package config

import (
	"fmt"
	"strings"
)

// Config is the process-wide configuration, read once at startup and
// passed to the components that need it
type Config struct {
	Addr string
	// ChatEndpoint is the /api/chat URL conversation sessions post to
	ChatEndpoint string

	OpenAI     OpenAIConfig
	Realtime   RealtimeConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Events     EventsConfig
	RateLimits RateLimits
}

// Load builds the Config from the environment
func Load() *Config {
	addr := GetEnvOrDefault("LISTEN_ADDR", ":8080")

	return &Config{
		Addr:         addr,
		ChatEndpoint: GetEnvOrDefault("CHAT_ENDPOINT", loopbackURL(addr)+"/api/chat"),
		OpenAI:       loadOpenAI(),
		Realtime:     loadRealtime(),
		Storage:      loadStorage(),
		Redis:        loadRedis(),
		Events:       loadEvents(),
		RateLimits:   loadRateLimits(),
	}
}

func loopbackURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return fmt.Sprintf("http://127.0.0.1%s", addr)
	}
	return "http://" + addr
}
