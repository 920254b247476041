package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Resolved reports whether the status is final
func (s Status) Resolved() bool {
	return s == StatusDone || s == StatusError
}

// ChatTurn is one entry of the transcript. CreatedAt is Unix milliseconds.
type ChatTurn struct {
	ID        string `json:"id" yaml:"id"`
	Role      Role   `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Status    Status `json:"status" yaml:"status"`
	CreatedAt int64  `json:"createdAt" yaml:"createdAt"`
}

// NewTurn creates a turn with a fresh id and the current time
func NewTurn(role Role, content string, status Status) ChatTurn {
	return ChatTurn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Status:    status,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Message is the role/content pair sent to the completion endpoint
type Message struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

// AsMessage drops the lifecycle fields of a turn
func (t ChatTurn) AsMessage() Message {
	return Message{Role: string(t.Role), Content: t.Content}
}
