package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soomgil/counsel/internal/config"
)

type recordingHandler struct {
	mu       sync.Mutex
	history  [][]Item
	outputs  []string
	audio    [][]byte
	errs     []error
	finished chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{finished: make(chan struct{}, 1)}
}

func (h *recordingHandler) HistoryUpdated(items []Item) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, items)
}

func (h *recordingHandler) AgentEnd(output string) {
	h.mu.Lock()
	h.outputs = append(h.outputs, output)
	h.mu.Unlock()
	h.finished <- struct{}{}
}

func (h *recordingHandler) Audio(pcm []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.audio = append(h.audio, pcm)
}

func (h *recordingHandler) Error(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *recordingHandler) lastHistory() []Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history[len(h.history)-1]
}

var providerEvents = []string{
	`{"type":"session.created"}`,
	`{"type":"conversation.item.created","item":{"id":"u1","type":"message","role":"user","status":"completed","content":[{"type":"input_audio"}]}}`,
	`{"type":"conversation.item.input_audio_transcription.completed","item_id":"u1","content_index":0,"transcript":"잠이 안 와요"}`,
	`{"type":"response.output_item.added","item":{"id":"a1","type":"message","role":"assistant","status":"in_progress","content":[]}}`,
	`{"type":"response.audio_transcript.delta","item_id":"a1","content_index":0,"delta":"많이 "}`,
	`{"type":"response.audio_transcript.delta","item_id":"a1","content_index":0,"delta":"힘드셨죠"}`,
	`{"type":"response.audio.delta","item_id":"a1","delta":"` + base64.StdEncoding.EncodeToString([]byte{1, 2, 3}) + `"}`,
	`{"type":"response.done","response":{"status":"completed","output":[{"id":"a1","type":"message","role":"assistant","status":"completed","content":[{"type":"output_audio","transcript":"많이 힘드셨죠."}]}]}}`,
}

func TestConnectionTranslatesProviderEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan map[string]any, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gpt-4o-mini-realtime-preview", r.URL.Query().Get("model"))
		assert.Equal(t, "Bearer ek_test", r.Header.Get("Authorization"))
		assert.Equal(t, "realtime=v1", r.Header.Get("OpenAI-Beta"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
			if msg["type"] == "session.update" {
				for _, event := range providerEvents {
					assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(event)))
				}
			}
		}
	}))
	defer server.Close()

	cfg := config.RealtimeConfig{
		Model:              "gpt-4o-mini-realtime-preview",
		Voice:              "alloy",
		TranscriptionModel: "gpt-4o-mini-transcribe",
		BaseURL:            "ws" + strings.TrimPrefix(server.URL, "http"),
	}
	handler := newRecordingHandler()

	conn, err := Dial(context.Background(), cfg, "ek_test", "한국어만을 사용하여 대화를 진행합니다.", handler)
	require.NoError(t, err)

	update := <-received
	assert.Equal(t, "session.update", update["type"])
	session := update["session"].(map[string]any)
	assert.Equal(t, "alloy", session["voice"])
	assert.Equal(t, "pcm16", session["input_audio_format"])

	select {
	case <-handler.finished:
	case <-time.After(5 * time.Second):
		t.Fatal("agent end never arrived")
	}

	handler.mu.Lock()
	assert.Equal(t, []string{"많이 힘드셨죠."}, handler.outputs)
	assert.Equal(t, [][]byte{{1, 2, 3}}, handler.audio)
	assert.Empty(t, handler.errs)
	handler.mu.Unlock()

	history := handler.lastHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "잠이 안 와요", history[0].text())
	assert.Equal(t, ItemCompleted, history[0].Status)
	assert.Equal(t, "많이 힘드셨죠.", history[1].text())

	require.NoError(t, conn.AppendAudio([]byte{9, 9}))
	appended := <-received
	assert.Equal(t, "input_audio_buffer.append", appended["type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{9, 9}), appended["audio"])

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	_ = conn.Transport().Close()
	assert.Error(t, conn.AppendAudio([]byte{1}))
}

func TestConnectionIntermediateStatus(t *testing.T) {
	item := Item{ID: "u", Role: "user", Status: ItemCompleted, Content: []ContentBlock{{Type: "input_audio"}}}
	assert.True(t, awaitingTranscript(item))

	item.Content[0].Transcript = "네"
	assert.False(t, awaitingTranscript(item))

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"transcript":"네"`)
}

func TestDialRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid client secret"}}`))
	}))
	defer server.Close()

	cfg := config.RealtimeConfig{Model: "m", BaseURL: "ws" + strings.TrimPrefix(server.URL, "http")}
	_, err := Dial(context.Background(), cfg, "bad", "", newRecordingHandler())
	assert.ErrorContains(t, err, "invalid client secret")
}
