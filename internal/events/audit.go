package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/soomgil/counsel/pkg/logger"
)

// NewAuditRouter returns a router that writes every event to the log
func (b *Bus) NewAuditRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, b.logger)
	if err != nil {
		return nil, err
	}

	audit := logger.For(logger.EVENTS)
	for _, topic := range Topics {
		router.AddNoPublisherHandler("audit_"+topic, topic, b.local, auditHandler(audit, topic))
	}
	return router, nil
}

// RunAudit blocks until ctx is done
func (b *Bus) RunAudit(ctx context.Context) error {
	router, err := b.NewAuditRouter()
	if err != nil {
		return err
	}
	return router.Run(ctx)
}

func auditHandler(audit zerolog.Logger, topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var envelope Envelope
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			audit.Warn().Err(err).Str("topic", topic).Msg("Dropping undecodable event")
			return nil
		}

		audit.Info().
			Str("topic", topic).
			Str("session_id", envelope.SessionID).
			Time("at", envelope.At).
			RawJSON("data", envelope.Data).
			Msg("Conversation event")
		return nil
	}
}
