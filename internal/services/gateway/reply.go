package gateway

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// EmptyReplyMessage replaces a blank assistant reply
const EmptyReplyMessage = "응답이 비어있습니다."

// Reply is the assistant message and distress score the model was asked to return
type Reply struct {
	Message string
	Score   *float64
}

// ParseReply decodes the {"message", "score"} object the counselor prompt
// asks for. Anything else becomes a plain message with an unknown score.
func ParseReply(raw string) Reply {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reply{Message: EmptyReplyMessage}
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		log.Warn().Err(err).Msg("Assistant reply is not JSON, using raw text")
		return Reply{Message: trimmed}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return Reply{Message: trimmed}
	}

	reply := Reply{Message: trimmed}
	if msg, ok := obj["message"].(string); ok && strings.TrimSpace(msg) != "" {
		reply.Message = strings.TrimSpace(msg)
	}
	if score, ok := obj["score"].(float64); ok {
		reply.Score = &score
	}
	return reply
}
