package config

import "github.com/rs/zerolog/log"

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultProxyModel is used by /api/chat when the request names no model
	DefaultProxyModel = "gpt-5"
	// DefaultChatModel is the model conversation sessions ask for
	DefaultChatModel = "gpt-4.1-mini"
)

// OpenAIConfig holds the provider credential and model defaults
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	ProxyModel string
	ChatModel  string
}

func loadOpenAI() OpenAIConfig {
	cfg := OpenAIConfig{
		APIKey:     GetEnvOrDefault("OPENAI_API_KEY", ""),
		BaseURL:    GetEnvOrDefault("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		ProxyModel: GetEnvOrDefault("OPENAI_MODEL", DefaultProxyModel),
		ChatModel:  GetEnvOrDefault("CHAT_MODEL", DefaultChatModel),
	}

	if cfg.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set - /api/chat and /api/realtime/session will fail")
	}

	return cfg
}
