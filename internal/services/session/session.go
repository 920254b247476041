// Package session drives one counseling conversation: the transcript, the
// completion round trip, the overlays, the running summary, the voice
// bridge and the record written when the session ends.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/conversation/store"
	"github.com/soomgil/counsel/internal/events"
	"github.com/soomgil/counsel/internal/services/chat"
	"github.com/soomgil/counsel/internal/services/gateway"
	"github.com/soomgil/counsel/internal/services/intervention"
	"github.com/soomgil/counsel/internal/services/persistence"
	"github.com/soomgil/counsel/internal/services/realtime"
	"github.com/soomgil/counsel/internal/services/summary"
	"github.com/soomgil/counsel/internal/timer"
)

const persistTimeout = 5 * time.Second

var (
	ErrClosed     = errors.New("session closed")
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("a reply is still pending")
)

// Options wires a session to its collaborators. Voice may be nil, which
// disables voice mode.
type Options struct {
	ID        string
	Completer gateway.Completer
	Model     string
	Settings  models.Settings
	Recorder  persistence.Recorder
	Voice     VoiceStarter
	Events    events.Publisher
	Clock     timer.Clock

	// OnChange receives a fresh snapshot after state changes. Bursts are
	// coalesced and calls come from a single goroutine.
	OnChange func(Snapshot)
	// OnAudio receives assistant audio while voice mode is on
	OnAudio func(pcm []byte)
}

type Session struct {
	id       string
	opts     Options
	logger   zerolog.Logger
	settings models.Settings

	mu        sync.Mutex
	messages  *store.Store
	notice    string
	closed    bool
	cancelReq context.CancelFunc
	requests  sync.WaitGroup

	engine  *intervention.Engine
	summary *summary.Pipeline
	adapter *persistence.Adapter
	bridge  *realtime.Bridge
	voice   voiceState

	ctx    context.Context
	cancel context.CancelFunc

	dirty    chan struct{}
	stopPump chan struct{}
	pumpDone chan struct{}
}

// New starts a session seeded with the counselor greeting
func New(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = timer.Real()
	}
	if opts.Events == nil {
		opts.Events = events.Discard{}
	}

	// calls back into /api/chat carry the session id for rate limiting
	ctx, cancel := context.WithCancel(gateway.WithSessionID(context.Background(), opts.ID))
	s := &Session{
		id:       opts.ID,
		opts:     opts,
		logger:   log.With().Str("session_id", opts.ID).Logger(),
		settings: opts.Settings,
		messages: store.New(models.NewTurn(models.RoleAssistant, chat.InitialGreeting, models.StatusDone)),
		adapter:  persistence.NewAdapter(opts.Recorder, opts.Clock),
		bridge:   realtime.NewBridge(opts.Clock),
		ctx:      ctx,
		cancel:   cancel,
		dirty:    make(chan struct{}, 1),
		stopPump: make(chan struct{}),
		pumpDone: make(chan struct{}),
	}

	// Overlay and summary listeners may fire while s.mu is held, so they
	// only mark the snapshot dirty.
	overlayChanged := func(intervention.OverlayState) { s.notify() }
	s.engine = intervention.NewEngine(opts.Clock, overlayChanged, overlayChanged)
	s.summary = summary.NewPipeline(ctx, opts.Completer, opts.Model, opts.Clock, s.summaryChanged)

	go s.pump()

	s.logger.Info().Msg("Conversation session started")
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Submit appends the user's message and a pending assistant turn, then
// requests the reply in the background
func (s *Session) Submit(content string) error {
	text := strings.TrimSpace(content)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if text == "" {
		s.mu.Unlock()
		return ErrEmptyInput
	}
	if s.messages.HasPending() {
		s.mu.Unlock()
		return ErrBusy
	}

	payload := s.payloadLocked(text)
	s.messages.Append(
		models.NewTurn(models.RoleUser, text, models.StatusDone),
		models.NewTurn(models.RoleAssistant, "", models.StatusPending),
	)
	s.notice = ""
	s.summary.Update(summary.NewInput(s.messages.Snapshot()))

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelReq = cancel
	s.requests.Add(1)
	s.mu.Unlock()

	s.notify()
	go s.complete(ctx, cancel, payload)
	return nil
}

// payloadLocked is the system prompt, every finished turn and the new
// user message
func (s *Session) payloadLocked(text string) []models.Message {
	done := s.messages.Done()
	payload := make([]models.Message, 0, len(done)+2)
	payload = append(payload, models.Message{
		Role:    string(models.RoleSystem),
		Content: chat.NewSystemPrompt().WithSettings(s.settings).String(),
	})
	for _, turn := range done {
		payload = append(payload, turn.AsMessage())
	}
	return append(payload, models.Message{Role: string(models.RoleUser), Content: text})
}

func (s *Session) complete(ctx context.Context, cancel context.CancelFunc, payload []models.Message) {
	defer s.requests.Done()
	defer cancel()

	completion, err := s.opts.Completer.RequestCompletion(ctx, s.opts.Model, payload)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelReq = nil

	if err != nil {
		reason := gateway.Reason(err)
		s.logger.Error().Err(err).Msg("Completion request failed")
		s.messages.UpdateLast(store.RoleIs(models.RoleAssistant), func(t *models.ChatTurn) {
			t.Content = reason
			t.Status = models.StatusError
		})
		s.notice = reason
	} else {
		reply := gateway.ParseReply(completion.Message)
		s.messages.UpdateLast(store.RoleIs(models.RoleAssistant), func(t *models.ChatTurn) {
			t.Content = reply.Message
			t.Status = models.StatusDone
		})
		if action := s.engine.Inspect(reply.Score); action != intervention.ActionNone {
			s.opts.Events.Publish(events.TopicIntervention, events.InterventionTriggered{
				Action: string(action),
				Score:  *reply.Score,
			})
		}
	}
	s.summary.Update(summary.NewInput(s.messages.Snapshot()))
	s.mu.Unlock()

	s.notify()
}

// Wait blocks until no completion request is in flight
func (s *Session) Wait() {
	s.requests.Wait()
}

func (s *Session) summaryChanged(sum models.ConversationSummary) {
	if sum.Status == models.SummaryReady || sum.Status == models.SummaryError {
		s.opts.Events.Publish(events.TopicSummary, events.SummaryUpdated{
			Status: string(sum.Status),
			Title:  sum.Title,
			Error:  sum.Error,
		})
	}
	s.notify()
}

// Unload persists the conversation without closing the session. It
// corresponds to the page being hidden or unloaded.
func (s *Session) Unload() {
	s.persist()
}

func (s *Session) persist() {
	snap := persistence.Snapshot{
		Messages:     s.messages.Snapshot(),
		Summary:      s.summary.State(),
		HospitalName: s.settings.HospitalName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	record, ok := s.adapter.Persist(ctx, snap)
	if !ok {
		return
	}
	s.opts.Events.Publish(events.TopicRecord, events.RecordPersisted{
		Title:        record.Title,
		Date:         record.Date,
		Hospital:     record.Hospital,
		MessageCount: len(record.Messages),
	})
}

// Close cancels the summary, the overlays and voice mode, then persists
// the conversation. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancelReq != nil {
		s.cancelReq()
		s.cancelReq = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.requests.Wait()
	s.voice.wait()

	s.summary.Close()
	s.engine.Close()
	s.stopVoice(false)
	s.persist()

	close(s.stopPump)
	<-s.pumpDone
	s.logger.Info().Msg("Conversation session closed")
}

func (s *Session) notify() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Session) pump() {
	defer close(s.pumpDone)
	for {
		select {
		case <-s.stopPump:
			return
		case <-s.dirty:
			if s.opts.OnChange != nil {
				s.opts.OnChange(s.Snapshot())
			}
		}
	}
}
