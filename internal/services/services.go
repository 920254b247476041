package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/internal/events"
	"github.com/soomgil/counsel/internal/infrastructure/kv"
	"github.com/soomgil/counsel/internal/infrastructure/openai"
	"github.com/soomgil/counsel/internal/infrastructure/redis"
	"github.com/soomgil/counsel/internal/services/chat"
	"github.com/soomgil/counsel/internal/services/gateway"
	"github.com/soomgil/counsel/internal/services/realtime"
	"github.com/soomgil/counsel/internal/services/records"
	"github.com/soomgil/counsel/internal/services/session"
	"github.com/soomgil/counsel/internal/services/settings"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	cfg *config.Config

	store           kv.Store
	redisService    *redis.Service
	recordsService  *records.Service
	settingsService *settings.Service
	openAIService   *openai.Service
	chatService     *chat.Implementation
	gatewayClient   *gateway.Client
	voiceStarter    *realtime.Starter
	bus             *events.Bus
}

// InitializeServices opens the storage backend and builds every service.
// The OpenAI backed services are nil when no API key is configured.
func InitializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	s := &Services{cfg: cfg}

	store, err := s.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	s.store = store
	log.Info().Str("backend", cfg.Storage.Backend).Msg("Initializing storage")

	s.recordsService = records.NewService(store)
	s.settingsService = settings.NewService(store)

	fanout, err := s.eventFanout(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize event stream: %w", err)
	}
	s.bus = events.NewBus(fanout)
	log.Info().Bool("redis_fanout", fanout != nil).Msg("Initializing event bus")

	s.openAIService = openai.NewService(cfg.OpenAI)
	if s.openAIService != nil {
		chatService, err := chat.NewService(s.openAIService, cfg.OpenAI.ProxyModel)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize chat service - required for message processing")
			return nil, fmt.Errorf("failed to initialize chat service: %w", err)
		}
		s.chatService = chatService
		s.voiceStarter = realtime.NewStarter(s.openAIService, cfg.Realtime)
		log.Info().Msg("Initializing chat service")
	}

	s.gatewayClient = gateway.NewClient(cfg.ChatEndpoint, nil)
	log.Info().Str("endpoint", cfg.ChatEndpoint).Msg("Initializing completion gateway")

	log.Info().Msg("All services initialized successfully")
	return s, nil
}

func (s *Services) openStore(ctx context.Context) (kv.Store, error) {
	switch s.cfg.Storage.Backend {
	case config.StorageMemory:
		return kv.NewMemory(), nil
	case config.StorageRedis:
		svc, err := redis.NewService(ctx, s.cfg.Redis)
		if err != nil {
			return nil, err
		}
		s.redisService = svc
		return svc, nil
	default:
		return kv.NewSQLite(s.cfg.Storage.Path)
	}
}

// eventFanout returns the Redis Streams publisher when enabled, reusing the
// storage connection if there is one
func (s *Services) eventFanout(ctx context.Context) (message.Publisher, error) {
	if !s.cfg.Events.RedisEnabled {
		return nil, nil
	}
	if s.redisService == nil {
		svc, err := redis.NewService(ctx, s.cfg.Redis)
		if err != nil {
			return nil, err
		}
		s.redisService = svc
	}
	return events.NewRedisPublisher(s.redisService.Client())
}

// NewSession starts a conversation primed with the saved settings
func (s *Services) NewSession(ctx context.Context, id string, onChange func(session.Snapshot), onAudio func([]byte)) *session.Session {
	servicesMu.RLock()
	defer servicesMu.RUnlock()

	opts := session.Options{
		ID:        id,
		Completer: s.gatewayClient,
		Model:     s.cfg.OpenAI.ChatModel,
		Settings:  s.settingsService.Get(ctx),
		Recorder:  s.recordsService,
		Events:    s.bus.For(id),
		OnChange:  onChange,
		OnAudio:   onAudio,
	}
	if s.voiceStarter != nil {
		opts.Voice = s.voiceStarter
	}
	return session.New(opts)
}

// GetChatService returns the chat service, nil without an API key
func (s *Services) GetChatService() *chat.Implementation {
	return s.chatService
}

// GetOpenAIService returns the provider client, nil without an API key
func (s *Services) GetOpenAIService() *openai.Service {
	return s.openAIService
}

func (s *Services) GetRecordsService() *records.Service {
	return s.recordsService
}

func (s *Services) GetSettingsService() *settings.Service {
	return s.settingsService
}

func (s *Services) GetBus() *events.Bus {
	return s.bus
}

// Close releases the event bus and the storage backend
func (s *Services) Close() error {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	if err := s.bus.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close event bus")
	}

	// the stream publisher closes the redis client it was handed
	redisClosed := s.cfg.Events.RedisEnabled && s.redisService != nil
	if s.cfg.Storage.Backend == config.StorageRedis {
		if redisClosed {
			return nil
		}
		return s.store.Close()
	}

	if err := s.store.Close(); err != nil {
		return err
	}
	if s.redisService != nil && !redisClosed {
		return s.redisService.Close()
	}
	return nil
}
