package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/config"
)

const writeWait = 10 * time.Second

// Handler receives the session events the connection derives from the
// provider stream. Calls come from the read goroutine.
type Handler interface {
	HistoryUpdated(items []Item)
	AgentEnd(output string)
	Audio(pcm []byte)
	Error(err error)
}

// Connection is a live realtime session over the provider websocket
type Connection struct {
	ws      *websocket.Conn
	handler Handler
	writeMu sync.Mutex

	mu    sync.Mutex
	items []Item

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

type transcriptionSettings struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type sessionSettings struct {
	Instructions            string                `json:"instructions,omitempty"`
	Modalities              []string              `json:"modalities"`
	Voice                   string                `json:"voice"`
	InputAudioFormat        string                `json:"input_audio_format"`
	OutputAudioFormat       string                `json:"output_audio_format"`
	InputAudioTranscription transcriptionSettings `json:"input_audio_transcription"`
	TurnDetection           turnDetection         `json:"turn_detection"`
}

type serverEvent struct {
	Type         string `json:"type"`
	Item         *Item  `json:"item"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
	Transcript   string `json:"transcript"`
	Text         string `json:"text"`
	Response     *struct {
		Status string `json:"status"`
		Output []Item `json:"output"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Dial opens the provider websocket with the ephemeral client secret and
// configures the session
func Dial(ctx context.Context, cfg config.RealtimeConfig, clientSecret, instructions string, handler Handler) (*Connection, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime URL: %w", err)
	}
	q := u.Query()
	q.Set("model", cfg.Model)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+clientSecret)
	headers.Set("OpenAI-Beta", "realtime=v1")

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("connect realtime session (status %d): %s", resp.StatusCode, providerMessage(body, err))
		}
		return nil, fmt.Errorf("connect realtime session: %w", err)
	}

	c := &Connection{
		ws:      ws,
		handler: handler,
		done:    make(chan struct{}),
	}

	if err := c.writeJSON(map[string]any{
		"type": "session.update",
		"session": sessionSettings{
			Instructions:            instructions,
			Modalities:              []string{"audio", "text"},
			Voice:                   cfg.Voice,
			InputAudioFormat:        "pcm16",
			OutputAudioFormat:       "pcm16",
			InputAudioTranscription: transcriptionSettings{Model: cfg.TranscriptionModel},
			TurnDetection:           turnDetection{Type: "server_vad"},
		},
	}); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("configure realtime session: %w", err)
	}

	log.Info().Str("model", cfg.Model).Str("voice", cfg.Voice).Msg("Realtime session connected")

	go c.readLoop()
	return c, nil
}

// AppendAudio streams a pcm16 chunk of user speech
func (c *Connection) AppendAudio(pcm []byte) error {
	if c.closed.Load() {
		return errors.New("realtime session closed")
	}
	return c.writeJSON(map[string]string{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm),
	})
}

// Close ends the session. Events that arrive afterwards are dropped.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)

		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		err = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

// Transport is the underlying socket
func (c *Connection) Transport() io.Closer {
	return c.ws
}

// Done is closed once Close was called
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *Connection) readLoop() {
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Debug().Msg("Realtime read loop stopped")
				return
			}
			log.Error().Err(err).Msg("Realtime connection lost")
			c.handler.Error(err)
			return
		}

		if c.closed.Load() {
			continue
		}

		var event serverEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Warn().Err(err).Msg("Ignoring malformed realtime event")
			continue
		}
		c.dispatch(event)
	}
}

func (c *Connection) dispatch(event serverEvent) {
	switch event.Type {
	case "conversation.item.created", "response.output_item.added", "response.output_item.done":
		if event.Item == nil {
			return
		}
		item := *event.Item
		if awaitingTranscript(item) {
			item.Status = ItemInProgress
		}
		c.update(func() { c.upsertLocked(item) })

	case "conversation.item.input_audio_transcription.completed":
		c.update(func() {
			it := c.itemLocked(event.ItemID, "user")
			block := blockAt(it, event.ContentIndex, "input_audio")
			block.Transcript = event.Transcript
			it.Status = ItemCompleted
		})

	case "conversation.item.input_audio_transcription.failed":
		c.update(func() {
			c.itemLocked(event.ItemID, "user").Status = ItemIncomplete
		})

	case "response.audio_transcript.delta", "response.output_audio_transcript.delta":
		c.update(func() {
			blockAt(c.itemLocked(event.ItemID, "assistant"), event.ContentIndex, "output_audio").Transcript += event.Delta
		})

	case "response.text.delta", "response.output_text.delta":
		c.update(func() {
			blockAt(c.itemLocked(event.ItemID, "assistant"), event.ContentIndex, "output_text").Text += event.Delta
		})

	case "response.audio_transcript.done", "response.output_audio_transcript.done":
		c.update(func() {
			blockAt(c.itemLocked(event.ItemID, "assistant"), event.ContentIndex, "output_audio").Transcript = event.Transcript
		})

	case "response.text.done", "response.output_text.done":
		c.update(func() {
			blockAt(c.itemLocked(event.ItemID, "assistant"), event.ContentIndex, "output_text").Text = event.Text
		})

	case "response.audio.delta", "response.output_audio.delta":
		pcm, err := base64.StdEncoding.DecodeString(event.Delta)
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring undecodable audio delta")
			return
		}
		c.handler.Audio(pcm)

	case "response.done":
		if event.Response == nil {
			return
		}
		c.update(func() {
			for _, item := range event.Response.Output {
				c.upsertLocked(item)
			}
		})
		c.handler.AgentEnd(finalOutput(event.Response.Output))

	case "error":
		message := "실시간 음성 세션에서 오류가 감지되었습니다."
		if event.Error != nil && event.Error.Message != "" {
			message = event.Error.Message
		}
		c.handler.Error(errors.New(message))
	}
}

// update applies fn to the item list and publishes the new history
func (c *Connection) update(fn func()) {
	c.mu.Lock()
	fn()
	snapshot := make([]Item, len(c.items))
	for i, it := range c.items {
		snapshot[i] = it
		snapshot[i].Content = append([]ContentBlock(nil), it.Content...)
	}
	c.mu.Unlock()

	c.handler.HistoryUpdated(snapshot)
}

func (c *Connection) upsertLocked(item Item) {
	if item.Type == "" {
		item.Type = "message"
	}
	for i := range c.items {
		if c.items[i].ID != item.ID {
			continue
		}
		// transcripts streamed earlier survive an item echo without them
		for j, block := range item.Content {
			if j < len(c.items[i].Content) {
				old := c.items[i].Content[j]
				if block.Transcript == "" {
					item.Content[j].Transcript = old.Transcript
				}
				if block.Text == "" {
					item.Content[j].Text = old.Text
				}
			}
		}
		if len(item.Content) < len(c.items[i].Content) {
			item.Content = append(item.Content, c.items[i].Content[len(item.Content):]...)
		}
		c.items[i] = item
		return
	}
	c.items = append(c.items, item)
}

// itemLocked finds the item by id, creating an in-progress one if unknown
func (c *Connection) itemLocked(id, role string) *Item {
	for i := range c.items {
		if c.items[i].ID == id {
			return &c.items[i]
		}
	}
	c.items = append(c.items, Item{ID: id, Type: "message", Role: role, Status: ItemInProgress})
	return &c.items[len(c.items)-1]
}

func blockAt(it *Item, index int, kind string) *ContentBlock {
	if index < 0 {
		index = 0
	}
	for len(it.Content) <= index {
		it.Content = append(it.Content, ContentBlock{Type: kind})
	}
	return &it.Content[index]
}

// awaitingTranscript reports a user audio item whose transcription has not
// arrived yet
func awaitingTranscript(item Item) bool {
	if item.Role != "user" {
		return false
	}
	for _, block := range item.Content {
		if block.Type == "input_audio" && block.Transcript == "" {
			return true
		}
	}
	return false
}

func finalOutput(output []Item) string {
	for i := len(output) - 1; i >= 0; i-- {
		if output[i].Role == "assistant" {
			return output[i].text()
		}
	}
	return ""
}

func providerMessage(body []byte, fallback error) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	if len(body) > 0 {
		return string(body)
	}
	return fallback.Error()
}
