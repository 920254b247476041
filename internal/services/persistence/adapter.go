// Package persistence writes the finished conversation to the record list
// once per session.
package persistence

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/timer"
)

const (
	SummaryLimit = 160
	TitleLimit   = 16

	untitled        = "제목 미생성"
	noSummary       = "요약 정보가 준비되지 않았습니다."
	unknownHospital = "병원 정보 없음"
)

// Snapshot is the latest persistable state of a session
type Snapshot struct {
	Messages     []models.ChatTurn
	Summary      models.ConversationSummary
	HospitalName string
}

// Recorder prepends a record to the stored list
type Recorder interface {
	Prepend(ctx context.Context, record models.StoredConversationRecord) error
}

type Adapter struct {
	mu        sync.Mutex
	recorder  Recorder
	clock     timer.Clock
	persisted bool
}

func NewAdapter(recorder Recorder, clock timer.Clock) *Adapter {
	return &Adapter{recorder: recorder, clock: clock}
}

// Persist stores snap as a new record unless this adapter already did, or
// the user never finished a turn. The latch is set only after a successful
// write so a failed attempt can be retried on the next teardown signal.
func (a *Adapter) Persist(ctx context.Context, snap Snapshot) (models.StoredConversationRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.persisted {
		return models.StoredConversationRecord{}, false
	}
	if !hasDoneUserTurn(snap.Messages) {
		log.Debug().Msg("No finished user turn, skipping record")
		return models.StoredConversationRecord{}, false
	}

	record := BuildRecord(snap, a.clock.Now())
	if err := a.recorder.Prepend(ctx, record); err != nil {
		log.Error().Err(err).Msg("Failed to persist conversation record")
		return models.StoredConversationRecord{}, false
	}

	a.persisted = true
	log.Info().
		Str("title", record.Title).
		Int("message_count", len(record.Messages)).
		Msg("Conversation record persisted")
	return record, true
}

// Persisted reports whether a record was written
func (a *Adapter) Persisted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persisted
}

// BuildRecord applies the record fallbacks to snap
func BuildRecord(snap Snapshot, now time.Time) models.StoredConversationRecord {
	summary := snap.Summary.Summary
	if strings.TrimSpace(summary) == "" {
		summary = models.Truncate(models.SerializeDone(snap.Messages), SummaryLimit)
		if summary == "" {
			summary = noSummary
		}
	}

	title := snap.Summary.Title
	if strings.TrimSpace(title) == "" {
		title = untitled
		if hasDoneUserTurn(snap.Messages) {
			title = models.Truncate(models.FirstDoneUserContent(snap.Messages), TitleLimit)
		}
	}

	hospital := snap.HospitalName
	if strings.TrimSpace(hospital) == "" {
		hospital = unknownHospital
	}

	return models.StoredConversationRecord{
		Status:        models.RecordInProgress,
		Title:         title,
		Date:          now.UTC().Format(time.DateOnly),
		Hospital:      hospital,
		Summary:       summary,
		Messages:      append([]models.ChatTurn(nil), snap.Messages...),
		LastUpdatedAt: now.UnixMilli(),
	}
}

func hasDoneUserTurn(turns []models.ChatTurn) bool {
	for _, t := range turns {
		if t.Role == models.RoleUser && t.Status == models.StatusDone {
			return true
		}
	}
	return false
}
