package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soomgil/counsel/internal/config"
)

var realtimeConfig = config.RealtimeConfig{
	Model:              "gpt-4o-mini-realtime-preview",
	Voice:              "alloy",
	TranscriptionModel: "gpt-4o-mini-transcribe",
}

func TestNewServiceWithoutKey(t *testing.T) {
	assert.Nil(t, NewService(config.OpenAIConfig{}))
}

func TestCreateRealtimeSession(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realtime/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "realtime=v1", r.Header.Get("OpenAI-Beta"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sess_1","client_secret":{"value":"ek_1"}}`))
	}))
	defer server.Close()

	svc := NewService(config.OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL})
	raw, err := svc.CreateRealtimeSession(context.Background(), realtimeConfig)
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"sess_1","client_secret":{"value":"ek_1"}}`, string(raw))
	assert.Equal(t, "gpt-4o-mini-realtime-preview", got["model"])
	assert.Equal(t, []any{"audio", "text"}, got["modalities"])
	assert.Equal(t, "pcm16", got["input_audio_format"])
	assert.Equal(t, map[string]any{"model": "gpt-4o-mini-transcribe"}, got["input_audio_transcription"])
}

func TestCreateRealtimeSessionProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"model not available"}}`))
	}))
	defer server.Close()

	svc := NewService(config.OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL})
	_, err := svc.CreateRealtimeSession(context.Background(), realtimeConfig)
	assert.ErrorContains(t, err, "model not available")
}
