package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/soomgil/counsel/internal/conversation/models"
)

const unparsableResponse = "응답을 파싱하는 과정에서 오류가 발생했습니다."

var ErrEmptyMessages = errors.New("empty messages array")

// CompletionClient is the part of the go-openai client the service needs
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Implementation struct {
	client       CompletionClient
	defaultModel string
}

var _ Service = (*Implementation)(nil)

func NewService(client CompletionClient, defaultModel string) (*Implementation, error) {
	if client == nil {
		return nil, fmt.Errorf("OpenAI client is required")
	}
	return &Implementation{client: client, defaultModel: defaultModel}, nil
}

func (s *Implementation) ProcessChat(ctx context.Context, model string, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyMessages
	}
	if model == "" {
		model = s.defaultModel
	}

	log.Debug().
		Str("model", model).
		Int("message_count", len(messages)).
		Msg("Processing chat request")

	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    NormalizeRole(msg.Role),
			Content: msg.Content,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: openaiMessages,
	})
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Failed to get chat completion")
		return "", fmt.Errorf("failed to get chat completion: %w", err)
	}

	return ExtractText(resp), nil
}

// NormalizeRole maps unknown roles to user
func NormalizeRole(role string) string {
	switch role {
	case openai.ChatMessageRoleAssistant, openai.ChatMessageRoleSystem, "developer":
		return role
	default:
		return openai.ChatMessageRoleUser
	}
}

// ExtractText returns the first choice content, then its text parts, then
// the whole response as JSON
func ExtractText(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) > 0 {
		message := resp.Choices[0].Message
		if strings.TrimSpace(message.Content) != "" {
			return message.Content
		}

		var segments []string
		for _, part := range message.MultiContent {
			if part.Type == openai.ChatMessagePartTypeText {
				segments = append(segments, part.Text)
			}
		}
		if merged := strings.TrimSpace(strings.Join(segments, "")); merged != "" {
			return merged
		}
	}

	dump, err := json.Marshal(resp)
	if err != nil {
		return unparsableResponse
	}
	return string(dump)
}
