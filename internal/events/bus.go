// Package events publishes conversation milestones on a watermill bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/pkg/logger"
)

const (
	TopicIntervention = "intervention.triggered"
	TopicSummary      = "summary.updated"
	TopicRecord       = "record.persisted"
	TopicVoice        = "voice.session"
)

// Topics lists every topic the session publishes on
var Topics = []string{TopicIntervention, TopicSummary, TopicRecord, TopicVoice}

// Publisher is what sessions need from the bus
type Publisher interface {
	Publish(topic string, payload any)
}

// Envelope wraps every payload
type Envelope struct {
	SessionID string          `json:"sessionId"`
	At        time.Time       `json:"at"`
	Data      json.RawMessage `json:"data"`
}

type Bus struct {
	local  *gochannel.GoChannel
	fanout message.Publisher
	logger watermill.LoggerAdapter
}

// NewBus creates an in-process bus. When fanout is not nil every message
// is also published there.
func NewBus(fanout message.Publisher) *Bus {
	adapter := newLoggerAdapter(logger.For(logger.EVENTS))
	return &Bus{
		local: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, adapter),
		fanout: fanout,
		logger: adapter,
	}
}

// PublishEvent encodes payload into an envelope for sessionID
func (b *Bus) PublishEvent(sessionID, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	body, err := json.Marshal(Envelope{SessionID: sessionID, At: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set("session_id", sessionID)

	if err := b.local.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	if b.fanout != nil {
		if err := b.fanout.Publish(topic, msg.Copy()); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("Failed to fan out event")
		}
	}
	return nil
}

// Subscribe returns the in-process stream of topic
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.local.Subscribe(ctx, topic)
}

// For binds a publisher to one session. Errors are logged.
func (b *Bus) For(sessionID string) Publisher {
	return sessionPublisher{bus: b, sessionID: sessionID}
}

func (b *Bus) Close() error {
	if err := b.local.Close(); err != nil {
		return err
	}
	if b.fanout != nil {
		return b.fanout.Close()
	}
	return nil
}

type sessionPublisher struct {
	bus       *Bus
	sessionID string
}

func (p sessionPublisher) Publish(topic string, payload any) {
	if err := p.bus.PublishEvent(p.sessionID, topic, payload); err != nil {
		log.Error().Err(err).Str("topic", topic).Str("session_id", p.sessionID).Msg("Failed to publish event")
	}
}

// Discard drops every event
type Discard struct{}

func (Discard) Publish(string, any) {}
