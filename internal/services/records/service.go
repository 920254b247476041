// Package records reads and updates the persisted conversation list.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/infrastructure/kv"
)

const PageSize = 8

var ErrRecordNotFound = errors.New("record not found")

// Entry is a record as listed on a dashboard page. Index is the position in
// the full list and is what Toggle expects.
type Entry struct {
	Index    int                             `json:"index" yaml:"index"`
	Record   models.StoredConversationRecord `json:"record" yaml:"record"`
	Sections []Section                       `json:"sections" yaml:"sections"`
}

type Page struct {
	Entries    []Entry `json:"entries" yaml:"entries"`
	PageIndex  int     `json:"pageIndex" yaml:"pageIndex"`
	TotalPages int     `json:"totalPages" yaml:"totalPages"`
	Total      int     `json:"total" yaml:"total"`
}

type Service struct {
	mu    sync.Mutex
	store kv.Store
}

func NewService(store kv.Store) *Service {
	return &Service{store: store}
}

// List returns the stored records, newest first. A missing or unreadable
// list is empty; entries missing a status, title, date or hospital are
// skipped.
func (s *Service) List(ctx context.Context) ([]models.StoredConversationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(ctx)
}

// Page returns page index of the list, clamped to the available pages
func (s *Service) Page(ctx context.Context, index int) (Page, error) {
	all, err := s.List(ctx)
	if err != nil {
		return Page{}, err
	}

	totalPages := max(1, (len(all)+PageSize-1)/PageSize)
	index = min(max(index, 0), totalPages-1)

	start := index * PageSize
	end := min(start+PageSize, len(all))

	entries := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		entries = append(entries, Entry{
			Index:    i,
			Record:   all[i],
			Sections: NonEmpty(ParseSummarySections(all[i].Summary)),
		})
	}

	return Page{
		Entries:    entries,
		PageIndex:  index,
		TotalPages: totalPages,
		Total:      len(all),
	}, nil
}

// Toggle flips the status of the record at index between 진행중 and 완료.
// Stored entries the dashboard skips are written back untouched.
func (s *Service) Toggle(ctx context.Context, index int) (models.StoredConversationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRawLocked(ctx)
	if err != nil {
		return models.StoredConversationRecord{}, err
	}
	all, positions := decode(raw)
	if index < 0 || index >= len(all) {
		return models.StoredConversationRecord{}, ErrRecordNotFound
	}

	record := all[index]
	record.Status = record.Status.Toggle()
	body, err := json.Marshal(record)
	if err != nil {
		return models.StoredConversationRecord{}, fmt.Errorf("encode record: %w", err)
	}
	raw[positions[index]] = body
	if err := s.writeLocked(ctx, raw); err != nil {
		return models.StoredConversationRecord{}, err
	}

	log.Info().
		Int("index", index).
		Str("status", string(record.Status)).
		Msg("Record status toggled")
	return record, nil
}

// Prepend stores record in front of the existing list. Entries the
// dashboard skips are kept as stored.
func (s *Service) Prepend(ctx context.Context, record models.StoredConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRawLocked(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.writeLocked(ctx, append([]json.RawMessage{body}, raw...))
}

// required mirrors the fields the dashboard needs to render a row
type required struct {
	Status   *string `json:"status"`
	Title    *string `json:"title"`
	Date     *string `json:"date"`
	Hospital *string `json:"hospital"`
}

func (r required) complete() bool {
	return r.Status != nil && r.Title != nil && r.Date != nil && r.Hospital != nil
}

func (s *Service) readLocked(ctx context.Context) ([]models.StoredConversationRecord, error) {
	raw, err := s.readRawLocked(ctx)
	if err != nil {
		return nil, err
	}
	all, _ := decode(raw)
	return all, nil
}

// readRawLocked returns the stored list as is. A missing value or one that
// is not a JSON array reads as empty.
func (s *Service) readRawLocked(ctx context.Context) ([]json.RawMessage, error) {
	value, err := s.store.Get(ctx, kv.RecordsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		log.Warn().Err(err).Msg("Stored records are not a JSON array, treating as empty")
		return nil, nil
	}
	return items, nil
}

// decode keeps the entries the dashboard can render, along with their
// positions in items
func decode(items []json.RawMessage) ([]models.StoredConversationRecord, []int) {
	out := make([]models.StoredConversationRecord, 0, len(items))
	positions := make([]int, 0, len(items))
	for i, item := range items {
		var fields required
		if err := json.Unmarshal(item, &fields); err != nil || !fields.complete() {
			log.Debug().Int("position", i).Msg("Skipping malformed record")
			continue
		}
		var record models.StoredConversationRecord
		if err := json.Unmarshal(item, &record); err != nil {
			log.Debug().Err(err).Int("position", i).Msg("Skipping malformed record")
			continue
		}
		out = append(out, record)
		positions = append(positions, i)
	}
	return out, positions
}

func (s *Service) writeLocked(ctx context.Context, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.store.Set(ctx, kv.RecordsKey, string(body)); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}
