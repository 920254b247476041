// Package realtime maps a provider voice session onto transcript turns.
package realtime

import (
	"strings"

	"github.com/soomgil/counsel/internal/conversation/models"
)

const (
	UserPlaceholder      = "음성을 전사하는 중입니다..."
	AssistantPlaceholder = "응답을 준비하는 중입니다..."
)

type ItemStatus string

const (
	ItemCompleted  ItemStatus = "completed"
	ItemInProgress ItemStatus = "in_progress"
	ItemIncomplete ItemStatus = "incomplete"
)

// ContentBlock is one part of a conversation item. Audio blocks carry
// their transcript.
type ContentBlock struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// Item is a conversation item of the provider session history
type Item struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Status  ItemStatus     `json:"status"`
	Content []ContentBlock `json:"content"`
}

func (s ItemStatus) turnStatus() models.Status {
	switch s {
	case ItemCompleted:
		return models.StatusDone
	case ItemInProgress:
		return models.StatusPending
	default:
		return models.StatusError
	}
}

// text joins the readable parts of the item. User parts are separated by a
// space, assistant parts are concatenated.
func (it Item) text() string {
	var parts []string
	for _, block := range it.Content {
		switch block.Type {
		case "input_text", "output_text", "text":
			parts = append(parts, block.Text)
		case "input_audio", "output_audio", "audio":
			parts = append(parts, block.Transcript)
		}
	}

	sep := ""
	if it.Role == string(models.RoleUser) {
		sep = " "
	}
	return strings.TrimSpace(strings.Join(parts, sep))
}

// Merge combines a cached turn with a freshly mapped one. Non-empty content
// wins over empty content, and a resolved status never changes back.
func Merge(previous *models.ChatTurn, incoming models.ChatTurn) models.ChatTurn {
	if previous == nil {
		return incoming
	}

	merged := incoming
	merged.ID = previous.ID
	merged.CreatedAt = previous.CreatedAt

	if strings.TrimSpace(incoming.Content) == "" {
		merged.Content = previous.Content
	}
	if previous.Status.Resolved() {
		merged.Status = previous.Status
	}
	return merged
}

// toTurn maps item without looking at the cache. System and non-message
// items are dropped.
func toTurn(item Item, nowMillis int64) (models.ChatTurn, bool) {
	if item.Type != "" && item.Type != "message" {
		return models.ChatTurn{}, false
	}

	var role models.Role
	switch item.Role {
	case string(models.RoleUser):
		role = models.RoleUser
	case string(models.RoleAssistant):
		role = models.RoleAssistant
	default:
		return models.ChatTurn{}, false
	}

	return models.ChatTurn{
		ID:        item.ID,
		Role:      role,
		Content:   item.text(),
		Status:    item.Status.turnStatus(),
		CreatedAt: nowMillis,
	}, true
}

func placeholder(role models.Role) string {
	if role == models.RoleUser {
		return UserPlaceholder
	}
	return AssistantPlaceholder
}
