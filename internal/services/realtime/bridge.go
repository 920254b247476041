package realtime

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/timer"
)

// AudioSink plays or forwards assistant audio
type AudioSink interface {
	Write(pcm []byte)
	Stop()
}

// Bridge keeps the voice turns of one realtime session. It owns the session,
// its transport and the audio sink until Teardown.
type Bridge struct {
	mu        sync.Mutex
	clock     timer.Clock
	cache     map[string]models.ChatTurn
	turns     []models.ChatTurn
	session   io.Closer
	transport io.Closer
	sink      AudioSink
	// stopped drops events that race with Teardown
	stopped bool
}

func NewBridge(clock timer.Clock) *Bridge {
	return &Bridge{
		clock: clock,
		cache: make(map[string]models.ChatTurn),
	}
}

// Attach hands the live resources to the bridge. Any previous ones are torn
// down first.
func (b *Bridge) Attach(session, transport io.Closer, sink AudioSink) {
	b.Teardown()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = session
	b.transport = transport
	b.sink = sink
	b.stopped = false
}

// SyncHistory replaces the voice turns with the mapped history, merging each
// item with what was cached for its id
func (b *Bridge) SyncHistory(items []Item) []models.ChatTurn {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil
	}

	now := b.clock.Now().UnixMilli()
	next := make([]models.ChatTurn, 0, len(items))
	for _, item := range items {
		incoming, ok := toTurn(item, now)
		if !ok {
			continue
		}

		var merged models.ChatTurn
		if previous, cached := b.cache[item.ID]; cached {
			merged = Merge(&previous, incoming)
		} else {
			merged = Merge(nil, incoming)
		}
		if strings.TrimSpace(merged.Content) == "" {
			merged.Content = placeholder(merged.Role)
		}

		b.cache[item.ID] = merged
		next = append(next, merged)
	}

	sort.SliceStable(next, func(i, j int) bool {
		return next[i].CreatedAt < next[j].CreatedAt
	})
	b.turns = next
	return b.snapshotLocked()
}

// AgentEnd overwrites the last assistant turn with the final output and
// marks it done. Blank output is ignored.
func (b *Bridge) AgentEnd(output string) (models.ChatTurn, bool) {
	final := strings.TrimSpace(output)
	if final == "" {
		return models.ChatTurn{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return models.ChatTurn{}, false
	}

	for i := len(b.turns) - 1; i >= 0; i-- {
		if b.turns[i].Role != models.RoleAssistant {
			continue
		}
		b.turns[i].Content = final
		b.turns[i].Status = models.StatusDone
		b.cache[b.turns[i].ID] = b.turns[i]
		return b.turns[i], true
	}
	return models.ChatTurn{}, false
}

// WriteAudio forwards assistant audio to the attached sink
func (b *Bridge) WriteAudio(pcm []byte) {
	b.mu.Lock()
	sink := b.sink
	b.mu.Unlock()

	if sink != nil {
		sink.Write(pcm)
	}
}

// Turns returns the current voice turns ordered by creation time
func (b *Bridge) Turns() []models.ChatTurn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Active reports whether a session is attached
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil || b.transport != nil
}

// Teardown closes the session and transport, stops the sink and forgets
// every cached turn. Safe to call more than once.
func (b *Bridge) Teardown() {
	b.mu.Lock()
	session, transport, sink := b.session, b.transport, b.sink
	b.session, b.transport, b.sink = nil, nil, nil
	b.stopped = true
	b.cache = make(map[string]models.ChatTurn)
	b.turns = nil
	b.mu.Unlock()

	if session != nil {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close realtime session")
		}
	}
	if transport != nil {
		if err := transport.Close(); err != nil {
			log.Debug().Err(err).Msg("Realtime transport already closed")
		}
	}
	if sink != nil {
		sink.Stop()
	}
}

func (b *Bridge) snapshotLocked() []models.ChatTurn {
	out := make([]models.ChatTurn, len(b.turns))
	copy(out, b.turns)
	return out
}
