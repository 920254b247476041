// Package settings stores the patient form used to prime the counselor.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/infrastructure/kv"
)

type Service struct {
	store kv.Store
}

func NewService(store kv.Store) *Service {
	return &Service{store: store}
}

// Get returns the saved settings. Missing, corrupt or unreadable values
// yield empty settings.
func (s *Service) Get(ctx context.Context) models.Settings {
	raw, err := s.store.Get(ctx, kv.SettingsKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read settings")
		}
		return models.Settings{}
	}

	var settings models.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		log.Warn().Err(err).Msg("Stored settings are corrupt, using defaults")
		return models.Settings{}
	}
	return settings
}

func (s *Service) Save(ctx context.Context, settings models.Settings) error {
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.store.Set(ctx, kv.SettingsKey, string(body)); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	log.Info().Msg("Settings saved")
	return nil
}

// Raw returns the stored document as is, or "" when there is none
func (s *Service) Raw(ctx context.Context) string {
	raw, err := s.store.Get(ctx, kv.SettingsKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read settings")
		}
		return ""
	}
	return strings.TrimSpace(raw)
}
