package events

import (
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/soomgil/counsel/pkg/logger"
)

// NewRedisPublisher fans events out to Redis Streams, one stream per topic
func NewRedisPublisher(client redis.UniversalClient) (message.Publisher, error) {
	return rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: rstream.DefaultMarshallerUnmarshaller{},
	}, newLoggerAdapter(logger.For(logger.EVENTS)))
}

// NewRedisSubscriber reads the streams as a member of a consumer group.
// An empty group reads every entry without acknowledging it to Redis.
func NewRedisSubscriber(client redis.UniversalClient, group, consumer string) (message.Subscriber, error) {
	return rstream.NewSubscriber(rstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  rstream.DefaultMarshallerUnmarshaller{},
		ConsumerGroup: group,
		Consumer:      consumer,
	}, newLoggerAdapter(logger.For(logger.EVENTS)))
}
