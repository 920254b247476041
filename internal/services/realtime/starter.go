package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/soomgil/counsel/internal/config"
)

// Issuer mints an ephemeral realtime session
type Issuer interface {
	CreateRealtimeSession(ctx context.Context, cfg config.RealtimeConfig) (json.RawMessage, error)
}

// Conn is the part of a live session the caller drives
type Conn interface {
	AppendAudio(pcm []byte) error
	Close() error
	Transport() io.Closer
}

// Starter issues a client secret and dials the provider with it
type Starter struct {
	issuer Issuer
	cfg    config.RealtimeConfig
}

func NewStarter(issuer Issuer, cfg config.RealtimeConfig) *Starter {
	return &Starter{issuer: issuer, cfg: cfg}
}

func (s *Starter) Start(ctx context.Context, instructions string, handler Handler) (Conn, error) {
	payload, err := s.issuer.CreateRealtimeSession(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("issue realtime session: %w", err)
	}

	secret, err := ClientSecret(payload)
	if err != nil {
		return nil, err
	}

	conn, err := Dial(ctx, s.cfg, secret, instructions, handler)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
