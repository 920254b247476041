package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/soomgil/counsel/internal/events"
	"github.com/soomgil/counsel/internal/services/chat"
	"github.com/soomgil/counsel/internal/services/realtime"
)

const voiceUnavailable = "현재 서버에서는 실시간 음성 대화를 사용할 수 없습니다."

var (
	ErrVoiceUnavailable = errors.New(voiceUnavailable)
	ErrVoiceInactive    = errors.New("voice mode is off")
)

// VoiceStarter opens a realtime session that reports to handler
type VoiceStarter interface {
	Start(ctx context.Context, instructions string, handler realtime.Handler) (realtime.Conn, error)
}

// voiceState is guarded by Session.mu. gen changes whenever voice mode is
// started or stopped so a connect attempt can tell it was superseded.
type voiceState struct {
	conn       realtime.Conn
	connecting bool
	gen        uint64
	cancel     context.CancelFunc
	starts     sync.WaitGroup
}

func (v *voiceState) wait() {
	v.starts.Wait()
}

// resetLocked cancels a connect attempt in flight and detaches the live
// connection, returning it
func (v *voiceState) resetLocked() realtime.Conn {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	conn := v.conn
	v.conn = nil
	v.connecting = false
	v.gen++
	return conn
}

// StartVoice begins connecting a realtime session. It is a no-op while a
// session is live or connecting.
func (s *Session) StartVoice() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.voice.conn != nil || s.voice.connecting {
		s.mu.Unlock()
		return nil
	}
	if s.opts.Voice == nil {
		s.notice = voiceUnavailable
		s.mu.Unlock()
		s.notify()
		return ErrVoiceUnavailable
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.voice.gen++
	s.voice.connecting = true
	s.voice.cancel = cancel
	gen := s.voice.gen
	s.notice = ""
	s.voice.starts.Add(1)
	s.mu.Unlock()

	s.notify()
	go s.connectVoice(ctx, cancel, gen)
	return nil
}

func (s *Session) connectVoice(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer s.voice.starts.Done()
	defer cancel()

	instructions := chat.NewVoicePrompt().WithSettings(s.settings).String()
	conn, err := s.opts.Voice.Start(ctx, instructions, voiceHandler{s: s, gen: gen})

	s.mu.Lock()
	if s.closed || gen != s.voice.gen {
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("Discarding superseded voice connect")
		if err == nil && conn != nil {
			_ = conn.Close()
			_ = conn.Transport().Close()
		}
		return
	}
	s.voice.connecting = false
	s.voice.cancel = nil
	if err != nil {
		s.notice = realtime.FriendlyError(err)
		s.mu.Unlock()

		s.logger.Error().Err(err).Msg("Failed to start voice session")
		s.bridge.Teardown()
		s.opts.Events.Publish(events.TopicVoice, events.VoiceSession{
			State: events.VoiceFailed,
			Error: realtime.FriendlyError(err),
		})
		s.notify()
		return
	}
	s.voice.conn = conn
	s.bridge.Attach(conn, conn.Transport(), &audioSink{session: s})
	s.mu.Unlock()

	s.logger.Info().Msg("Voice session started")
	s.opts.Events.Publish(events.TopicVoice, events.VoiceSession{State: events.VoiceConnected})
	s.notify()
}

// StopVoice ends voice mode and drops the voice turns. A connect still in
// progress is canceled and its connection discarded.
func (s *Session) StopVoice() {
	s.stopVoice(true)
}

func (s *Session) stopVoice(announce bool) {
	s.mu.Lock()
	conn := s.voice.resetLocked()
	s.mu.Unlock()

	if conn != nil {
		s.logger.Info().Int("voice_turns", len(s.bridge.Turns())).Msg("Voice session stopped")
	}
	s.bridge.Teardown()

	if conn != nil {
		s.opts.Events.Publish(events.TopicVoice, events.VoiceSession{State: events.VoiceClosed})
	}
	if announce {
		s.notify()
	}
}

// SendAudio forwards a pcm16 chunk of user speech to the live session
func (s *Session) SendAudio(pcm []byte) error {
	s.mu.Lock()
	conn := s.voice.conn
	s.mu.Unlock()

	if conn == nil {
		return ErrVoiceInactive
	}
	return conn.AppendAudio(pcm)
}

// voiceHandler routes events of one connect attempt. Events from a
// superseded attempt are dropped.
type voiceHandler struct {
	s   *Session
	gen uint64
}

func (h voiceHandler) current() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return !h.s.closed && h.s.voice.gen == h.gen
}

func (h voiceHandler) HistoryUpdated(items []realtime.Item) {
	if !h.current() {
		return
	}
	h.s.bridge.SyncHistory(items)
	h.s.notify()
}

func (h voiceHandler) AgentEnd(output string) {
	if !h.current() {
		return
	}
	if _, ok := h.s.bridge.AgentEnd(output); ok {
		h.s.notify()
	}
}

func (h voiceHandler) Audio(pcm []byte) {
	if !h.current() {
		return
	}
	h.s.bridge.WriteAudio(pcm)
}

func (h voiceHandler) Error(err error) {
	if !h.current() {
		h.s.logger.Debug().Err(err).Msg("Ignoring error from superseded voice session")
		return
	}
	h.s.logger.Error().Err(err).Msg("Voice session error")

	h.s.mu.Lock()
	h.s.notice = realtime.FriendlyError(err)
	h.s.mu.Unlock()
	h.s.notify()
}

// audioSink forwards assistant audio to the client until stopped
type audioSink struct {
	session *Session
	stopped atomic.Bool
}

func (a *audioSink) Write(pcm []byte) {
	if a.stopped.Load() || a.session.opts.OnAudio == nil {
		return
	}
	a.session.opts.OnAudio(pcm)
}

func (a *audioSink) Stop() {
	a.stopped.Store(true)
}
