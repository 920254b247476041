package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"

	"github.com/soomgil/counsel/pkg/logger"
)

// TailLine is one event as written by Tail
type TailLine struct {
	Topic string `json:"topic"`
	Envelope
}

// Tail writes every event received on topics to w as JSON lines until ctx
// is canceled. Payloads that are not envelopes are acked and skipped.
func Tail(ctx context.Context, sub message.Subscriber, topics []string, w io.Writer) error {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	log := logger.For(logger.EVENTS)

	eg, ctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		topic := topic
		messages, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		eg.Go(func() error {
			for msg := range messages {
				var envelope Envelope
				if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
					log.Warn().Err(err).Str("topic", topic).Str("uuid", msg.UUID).Msg("Skipping malformed event")
					msg.Ack()
					continue
				}

				mu.Lock()
				err := enc.Encode(TailLine{Topic: topic, Envelope: envelope})
				mu.Unlock()
				msg.Ack()
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	return eg.Wait()
}
