// Package settings serves the patient settings form.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/pkg/httpext"
)

const saveFailure = "설정을 저장하지 못했습니다."

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store loads and saves the settings document
type Store interface {
	Get(ctx context.Context) models.Settings
	Save(ctx context.Context, settings models.Settings) error
}

func HandleGet(store Store, w http.ResponseWriter, r *http.Request) {
	httpext.JsonResponse(w, store.Get(r.Context()), http.StatusOK)
}

func HandlePut(store Store, w http.ResponseWriter, r *http.Request) {
	var req models.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed settings")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Settings validation failed")
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if err := store.Save(r.Context(), req); err != nil {
		log.Error().Err(err).Msg("Failed to save settings")
		httpext.JsonError(w, saveFailure, http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, req, http.StatusOK)
}
