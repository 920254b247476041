// Package redis is the redis backed kv.Store.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/internal/infrastructure/kv"
)

const keyPrefix = "counsel:"

type Service struct {
	client *redis.Client
}

var _ kv.Store = (*Service)(nil)

// NewService connects to REDIS_URL and fails when the server is unreachable
func NewService(ctx context.Context, cfg config.RedisConfig) (*Service, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis storage selected but REDIS_URL is not set")
	}

	return NewServiceWithClient(ctx, redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       0,
	}))
}

func NewServiceWithClient(ctx context.Context, client *redis.Client) (*Service, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", client.Options().Addr).
			Msg("Failed to establish Redis connection")
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Service{client: client}, nil
}

// Client exposes the connection for the event stream publisher
func (s *Service) Client() *redis.Client {
	return s.client
}

// Set stores a document without expiration
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Critical Redis SET operation failed")
		return err
	}
	return nil
}

// Get retrieves a document, mapping redis.Nil to kv.ErrNotFound
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Critical Redis GET operation failed")
		return "", err
	}
	return val, nil
}

// Ping checks if Redis is accessible
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.client.Close()
}
