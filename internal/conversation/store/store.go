// Package store holds the ordered transcript of a conversation session.
// Turns are only ever appended; the last turn can be patched in place.
package store

import (
	"sync"

	"github.com/soomgil/counsel/internal/conversation/models"
)

// Predicate decides whether UpdateLast may touch the last turn
type Predicate func(models.ChatTurn) bool

// Patch mutates a turn in place
type Patch func(*models.ChatTurn)

// RoleIs matches turns with the given role
func RoleIs(role models.Role) Predicate {
	return func(t models.ChatTurn) bool {
		return t.Role == role
	}
}

// PendingAssistant matches an unresolved assistant placeholder
func PendingAssistant(t models.ChatTurn) bool {
	return t.Role == models.RoleAssistant && t.Status == models.StatusPending
}

type Store struct {
	mu    sync.RWMutex
	turns []models.ChatTurn
}

func New(initial ...models.ChatTurn) *Store {
	turns := make([]models.ChatTurn, len(initial))
	copy(turns, initial)
	return &Store{turns: turns}
}

// Append adds turns to the end of the transcript
func (s *Store) Append(turns ...models.ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

// UpdateLast applies patch to the last turn when pred accepts it. It is a
// no-op on an empty store or when the last turn does not match.
func (s *Store) UpdateLast(pred Predicate, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) == 0 {
		return false
	}

	last := &s.turns[len(s.turns)-1]
	if !pred(*last) {
		return false
	}

	patched := *last
	patch(&patched)
	// identity and position are fixed
	patched.ID = last.ID
	patched.CreatedAt = last.CreatedAt
	*last = patched
	return true
}

// Snapshot returns a copy of the transcript
func (s *Store) Snapshot() []models.ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Done returns the turns whose status is done
func (s *Store) Done() []models.ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChatTurn, 0, len(s.turns))
	for _, t := range s.turns {
		if t.Status == models.StatusDone {
			out = append(out, t)
		}
	}
	return out
}

// HasPending reports whether an assistant reply is outstanding
func (s *Store) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.turns {
		if t.Status == models.StatusPending {
			return true
		}
	}
	return false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
