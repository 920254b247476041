package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	topics []string
	closed bool
}

func (c *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	c.topics = append(c.topics, topic)
	return nil
}

func (c *capturePublisher) Close() error {
	c.closed = true
	return nil
}

func TestPublishEnvelope(t *testing.T) {
	fanout := &capturePublisher{}
	bus := NewBus(fanout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx, TopicIntervention)
	require.NoError(t, err)

	bus.For("session-1").Publish(TopicIntervention, InterventionTriggered{Action: "breathing", Score: 92})

	select {
	case msg := <-messages:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
		assert.Equal(t, "session-1", envelope.SessionID)
		assert.Equal(t, "session-1", msg.Metadata.Get("session_id"))
		assert.JSONEq(t, `{"action":"breathing","score":92}`, string(envelope.Data))
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	assert.Equal(t, []string{TopicIntervention}, fanout.topics)

	cancel()
	require.NoError(t, bus.Close())
	assert.True(t, fanout.closed)
}

func TestAuditRouterRunsUntilCanceled(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	router, err := bus.NewAuditRouter()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()

	select {
	case <-router.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("router did not start")
	}

	bus.For("session-2").Publish(TopicRecord, RecordPersisted{Title: "불면", MessageCount: 3})
	bus.For("session-2").Publish(TopicVoice, VoiceSession{State: VoiceConnected})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard{}.Publish(TopicSummary, SummaryUpdated{}) })
}
