// Package conversation serves the conversation socket. Each connection
// drives one session: client actions go in, snapshots and assistant audio
// come out.
package conversation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/connections"
	"github.com/soomgil/counsel/internal/services/session"
)

// Client action types
const (
	ActionSubmit     = "submit"
	ActionUnload     = "unload"
	ActionVoiceStart = "voice_start"
	ActionVoiceStop  = "voice_stop"
	ActionVoiceAudio = "voice_audio"
)

// Server message types
const (
	TypeSnapshot = "snapshot"
	TypeAudio    = "audio"
	TypeError    = "error"
)

const outboxSize = 32

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// SessionFactory starts the session behind a new socket
type SessionFactory interface {
	NewSession(ctx context.Context, id string, onChange func(session.Snapshot), onAudio func([]byte)) *session.Session
}

type ClientMessage struct {
	Type    string `json:"type" validate:"required,oneof=submit unload voice_start voice_stop voice_audio"`
	Content string `json:"content,omitempty"`
	// Audio is a base64 pcm16 chunk
	Audio string `json:"audio,omitempty"`
}

type ServerMessage struct {
	Type     string            `json:"type"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Audio    string            `json:"audio,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type socket struct {
	conn    *websocket.Conn
	session *session.Session
	logger  zerolog.Logger
	out     chan ServerMessage
	done    chan struct{}
}

// HandleConversation upgrades the request and runs the session until the
// client goes away
func HandleConversation(factory SessionFactory, manager *connections.Manager, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade conversation socket")
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	manager.AddConnection(conn, id)
	defer manager.RemoveConnection(conn)

	s := &socket{
		conn:   conn,
		logger: log.With().Str("session_id", id).Str("client_ip", r.RemoteAddr).Logger(),
		out:    make(chan ServerMessage, outboxSize),
		done:   make(chan struct{}),
	}
	s.logger.Info().Int("open_connections", manager.GetConnectionCount()).Msg("Conversation socket connected")

	// the session outlives the upgrade request context
	s.session = factory.NewSession(context.WithoutCancel(r.Context()), id, s.sendSnapshot, s.sendAudio)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(manager.GetTimeouts())
	}()

	s.sendSnapshot(s.session.Snapshot())
	manager.Prepare(conn)
	s.readLoop()

	close(s.done)
	s.session.Close()
	<-writerDone
	s.logger.Info().Msg("Conversation socket closed")
}

func (s *socket) send(msg ServerMessage) {
	select {
	case s.out <- msg:
	case <-s.done:
	}
}

func (s *socket) sendSnapshot(snap session.Snapshot) {
	s.send(ServerMessage{Type: TypeSnapshot, Snapshot: &snap})
}

func (s *socket) sendAudio(pcm []byte) {
	s.send(ServerMessage{Type: TypeAudio, Audio: base64.StdEncoding.EncodeToString(pcm)})
}

func (s *socket) sendError(err error) {
	s.send(ServerMessage{Type: TypeError, Error: err.Error()})
}

func (s *socket) writeLoop(timeouts connections.TimeoutConfig) {
	ticker := time.NewTicker(timeouts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to write to conversation socket")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to ping conversation socket")
				return
			}
		}
	}
}

func (s *socket) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Unexpected conversation socket closure")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn().Err(err).Msg("Client sent malformed JSON message")
			s.sendError(fmt.Errorf("invalid message format"))
			continue
		}
		if err := validate.Struct(msg); err != nil {
			s.logger.Warn().Err(err).Str("type", msg.Type).Msg("Client message validation failed")
			s.sendError(fmt.Errorf("invalid message: %w", err))
			continue
		}

		if err := s.dispatch(msg); err != nil {
			s.sendError(err)
		}
	}
}

// dispatch runs one client action. A panic is logged and reported instead
// of tearing down the socket.
func (s *socket) dispatch(msg ClientMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("type", msg.Type).Msg("Conversation action panicked")
			err = fmt.Errorf("internal error handling %s", msg.Type)
		}
	}()

	switch msg.Type {
	case ActionSubmit:
		return s.session.Submit(msg.Content)
	case ActionUnload:
		s.session.Unload()
	case ActionVoiceStart:
		return s.session.StartVoice()
	case ActionVoiceStop:
		s.session.StopVoice()
	case ActionVoiceAudio:
		pcm, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			return fmt.Errorf("invalid audio chunk: %w", err)
		}
		return s.session.SendAudio(pcm)
	}
	return nil
}
