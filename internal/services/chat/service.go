// Package chat is the server side of POST /api/chat and builds the
// counselor system prompt.
package chat

import (
	"context"

	"github.com/soomgil/counsel/internal/conversation/models"
)

// Service defines the interface for chat operations
type Service interface {
	// ProcessChat sends messages to the provider and returns the reply text.
	// An empty model selects the configured default.
	ProcessChat(ctx context.Context, model string, messages []models.Message) (string, error)
}
