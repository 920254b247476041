// Package openai holds the provider clients used by the proxy routes.
package openai

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/soomgil/counsel/internal/config"
)

type Service struct {
	client     *openai.Client
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewService returns nil when no API key is configured
func NewService(cfg config.OpenAIConfig) *Service {
	if cfg.APIKey == "" {
		log.Warn().Msg("OpenAI service not configured - OPENAI_API_KEY missing")
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	log.Info().Str("base_url", cfg.BaseURL).Msg("Initialising OpenAI service")

	return &Service{
		client:     openai.NewClientWithConfig(clientConfig),
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Service) GetClient() *openai.Client {
	return s.client
}

func (s *Service) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return s.client.CreateChatCompletion(ctx, req)
}
