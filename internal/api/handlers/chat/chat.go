// Package chat serves POST /api/chat, the completion proxy used by
// conversation sessions.
package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/services/chat"
	"github.com/soomgil/counsel/pkg/httpext"
)

const (
	missingAPIKey   = "OpenAI API 키가 설정되어 있지 않습니다. 환경 변수 OPENAI_API_KEY를 확인해주세요."
	malformedBody   = "요청 본문을 파싱하지 못했습니다. JSON 형식으로 메시지를 전달해주세요."
	missingMessages = "대화 메시지 배열이 필요합니다."
	providerFailure = "OpenAPI 요청 중 예기치 못한 오류가 발생했습니다."
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

type Request struct {
	Model    string           `json:"model,omitempty"`
	Messages []models.Message `json:"messages" validate:"required,min=1"`
}

type Response struct {
	Message string `json:"message"`
}

// HandleChat answers with the assistant text. chatService is nil when no
// API key is configured.
func HandleChat(chatService chat.Service, w http.ResponseWriter, r *http.Request) {
	if chatService == nil {
		log.Error().Msg("Chat request received without a configured API key")
		httpext.JsonError(w, missingAPIKey, http.StatusInternalServerError)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, malformedBody, http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Client sent empty messages array")
		httpext.JsonError(w, missingMessages, http.StatusBadRequest)
		return
	}

	log.Info().
		Int("message_count", len(req.Messages)).
		Str("model", req.Model).
		Str("client_ip", r.RemoteAddr).
		Msg("Received chat request")

	message, err := chatService.ProcessChat(r.Context(), req.Model, req.Messages)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessages) {
			httpext.JsonError(w, missingMessages, http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Failed to process chat")
		reason := err.Error()
		if reason == "" {
			reason = providerFailure
		}
		httpext.JsonError(w, reason, http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, Response{Message: message}, http.StatusOK)

	log.Info().
		Str("client_ip", r.RemoteAddr).
		Int("status", http.StatusOK).
		Msg("Chat request processed successfully")
}
