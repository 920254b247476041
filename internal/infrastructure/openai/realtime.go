package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/config"
)

type transcriptionConfig struct {
	Model string `json:"model"`
}

type sessionRequest struct {
	Model                   string              `json:"model"`
	Voice                   string              `json:"voice"`
	Modalities              []string            `json:"modalities"`
	InputAudioFormat        string              `json:"input_audio_format"`
	OutputAudioFormat       string              `json:"output_audio_format"`
	InputAudioTranscription transcriptionConfig `json:"input_audio_transcription"`
}

// CreateRealtimeSession asks the provider for an ephemeral realtime session
// and returns its JSON unchanged
func (s *Service) CreateRealtimeSession(ctx context.Context, cfg config.RealtimeConfig) (json.RawMessage, error) {
	body, err := json.Marshal(sessionRequest{
		Model:                   cfg.Model,
		Voice:                   cfg.Voice,
		Modalities:              []string{"audio", "text"},
		InputAudioFormat:        "pcm16",
		OutputAudioFormat:       "pcm16",
		InputAudioTranscription: transcriptionConfig{Model: cfg.TranscriptionModel},
	})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	url := strings.TrimRight(s.baseURL, "/") + "/realtime/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "realtime=v1")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request realtime session: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read realtime session: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("model", cfg.Model).
			Msg("Realtime session request rejected")
		return nil, fmt.Errorf("realtime session failed with status %d: %s", resp.StatusCode, providerMessage(raw))
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("realtime session response is not JSON")
	}

	log.Info().Str("model", cfg.Model).Str("voice", cfg.Voice).Msg("Realtime session issued")
	return raw, nil
}

func providerMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
