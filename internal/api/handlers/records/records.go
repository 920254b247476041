// Package records serves the dashboard list of persisted conversations.
package records

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/services/records"
	"github.com/soomgil/counsel/pkg/httpext"
)

const readFailure = "상담 기록을 불러오지 못했습니다."

// Dashboard is the part of the records service the routes use
type Dashboard interface {
	Page(ctx context.Context, index int) (records.Page, error)
	Toggle(ctx context.Context, index int) (models.StoredConversationRecord, error)
}

// HandlePage serves GET /api/records?page=N. A missing or invalid page is
// the first page; an out of range one is clamped.
func HandlePage(dashboard Dashboard, w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		index = 0
	}

	page, err := dashboard.Page(r.Context(), index)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read conversation records")
		httpext.JsonError(w, readFailure, http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, page, http.StatusOK)
}

// HandleToggle serves POST /api/records/{index}/toggle
func HandleToggle(dashboard Dashboard, w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		httpext.JsonError(w, "Invalid record index", http.StatusBadRequest)
		return
	}

	record, err := dashboard.Toggle(r.Context(), index)
	if errors.Is(err, records.ErrRecordNotFound) {
		httpext.JsonError(w, "Record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Int("index", index).Msg("Failed to toggle record status")
		httpext.JsonError(w, readFailure, http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, record, http.StatusOK)
}
