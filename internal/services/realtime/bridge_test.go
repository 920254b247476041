package realtime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/timer/timertest"
)

type closer struct {
	closed int
	err    error
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

type sink struct {
	chunks  [][]byte
	stopped int
}

func (s *sink) Write(pcm []byte) { s.chunks = append(s.chunks, pcm) }
func (s *sink) Stop()            { s.stopped++ }

func userItem(id string, status ItemStatus, transcript string) Item {
	return Item{ID: id, Type: "message", Role: "user", Status: status, Content: []ContentBlock{
		{Type: "input_audio", Transcript: transcript},
	}}
}

func assistantItem(id string, status ItemStatus, parts ...string) Item {
	item := Item{ID: id, Type: "message", Role: "assistant", Status: status}
	for _, p := range parts {
		item.Content = append(item.Content, ContentBlock{Type: "output_audio", Transcript: p})
	}
	return item
}

func TestMerge(t *testing.T) {
	prev := models.ChatTurn{ID: "a", Role: models.RoleUser, Content: "안녕하세요", Status: models.StatusDone, CreatedAt: 1}

	tests := []struct {
		name     string
		incoming models.ChatTurn
		want     models.ChatTurn
	}{
		{
			name:     "pending recomputation keeps done",
			incoming: models.ChatTurn{ID: "a", Role: models.RoleUser, Status: models.StatusPending, CreatedAt: 9},
			want:     prev,
		},
		{
			name:     "non-empty content replaces",
			incoming: models.ChatTurn{ID: "a", Role: models.RoleUser, Content: "안녕하세요 선생님", Status: models.StatusPending, CreatedAt: 9},
			want:     models.ChatTurn{ID: "a", Role: models.RoleUser, Content: "안녕하세요 선생님", Status: models.StatusDone, CreatedAt: 1},
		},
		{
			name:     "error does not replace done",
			incoming: models.ChatTurn{ID: "a", Role: models.RoleUser, Status: models.StatusError, CreatedAt: 9},
			want:     prev,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(&prev, tt.incoming))
		})
	}

	fresh := models.ChatTurn{ID: "b", Status: models.StatusPending}
	assert.Equal(t, fresh, Merge(nil, fresh))
}

func TestSyncHistoryMapsItems(t *testing.T) {
	clock := timertest.New(time.UnixMilli(1000))
	bridge := NewBridge(clock)

	turns := bridge.SyncHistory([]Item{
		{ID: "sys", Type: "message", Role: "system", Status: ItemCompleted},
		userItem("u1", ItemInProgress, ""),
		assistantItem("a1", ItemInProgress),
		{ID: "fc", Type: "function_call", Role: "assistant"},
	})
	require.Len(t, turns, 2)
	assert.Equal(t, UserPlaceholder, turns[0].Content)
	assert.Equal(t, models.StatusPending, turns[0].Status)
	assert.Equal(t, AssistantPlaceholder, turns[1].Content)
	assert.Equal(t, int64(1000), turns[0].CreatedAt)

	clock.Advance(time.Second)
	turns = bridge.SyncHistory([]Item{
		userItem("u1", ItemCompleted, "잠이 안 와요"),
		assistantItem("a1", ItemInProgress, "많이 ", "힘드셨겠어요"),
	})
	require.Len(t, turns, 2)
	assert.Equal(t, "잠이 안 와요", turns[0].Content)
	assert.Equal(t, models.StatusDone, turns[0].Status)
	assert.Equal(t, int64(1000), turns[0].CreatedAt)
	assert.Equal(t, "많이 힘드셨겠어요", turns[1].Content)

	// an interim pass with no text must not regress the transcript
	turns = bridge.SyncHistory([]Item{
		userItem("u1", ItemInProgress, ""),
		assistantItem("a1", ItemInProgress),
	})
	assert.Equal(t, "잠이 안 와요", turns[0].Content)
	assert.Equal(t, models.StatusDone, turns[0].Status)
	assert.Equal(t, "많이 힘드셨겠어요", turns[1].Content)
}

func TestUserTextBlocksJoinWithSpace(t *testing.T) {
	bridge := NewBridge(timertest.New(time.UnixMilli(0)))
	turns := bridge.SyncHistory([]Item{{
		ID: "u", Type: "message", Role: "user", Status: ItemCompleted,
		Content: []ContentBlock{{Type: "input_text", Text: "안녕"}, {Type: "input_audio", Transcript: "하세요"}},
	}})
	require.Len(t, turns, 1)
	assert.Equal(t, "안녕 하세요", turns[0].Content)
}

func TestAgentEndOverwritesLastAssistant(t *testing.T) {
	bridge := NewBridge(timertest.New(time.UnixMilli(0)))

	_, ok := bridge.AgentEnd("무시됨")
	assert.False(t, ok)

	bridge.SyncHistory([]Item{
		assistantItem("a0", ItemCompleted, "첫 응답"),
		userItem("u1", ItemCompleted, "네"),
		assistantItem("a1", ItemIncomplete, "중간 전사"),
	})

	_, ok = bridge.AgentEnd("   ")
	assert.False(t, ok)

	turn, ok := bridge.AgentEnd("  최종 응답입니다  ")
	require.True(t, ok)
	assert.Equal(t, "a1", turn.ID)
	assert.Equal(t, "최종 응답입니다", turn.Content)
	assert.Equal(t, models.StatusDone, turn.Status)

	turns := bridge.Turns()
	assert.Equal(t, "첫 응답", turns[0].Content)
	assert.Equal(t, "최종 응답입니다", turns[2].Content)

	// the cache keeps the forced value for later history passes
	turns = bridge.SyncHistory([]Item{assistantItem("a1", ItemInProgress)})
	assert.Equal(t, "최종 응답입니다", turns[0].Content)
	assert.Equal(t, models.StatusDone, turns[0].Status)
}

func TestTeardownIsIdempotent(t *testing.T) {
	bridge := NewBridge(timertest.New(time.UnixMilli(0)))
	session := &closer{}
	transport := &closer{err: errors.New("already closed")}
	audio := &sink{}

	bridge.Attach(session, transport, audio)
	assert.True(t, bridge.Active())
	bridge.SyncHistory([]Item{userItem("u1", ItemCompleted, "안녕")})
	bridge.WriteAudio([]byte{1, 2})

	bridge.Teardown()
	bridge.Teardown()

	assert.Equal(t, 1, session.closed)
	assert.Equal(t, 1, transport.closed)
	assert.Equal(t, 1, audio.stopped)
	assert.Len(t, audio.chunks, 1)
	assert.False(t, bridge.Active())
	assert.Empty(t, bridge.Turns())

	// late events from the closed session are dropped
	assert.Empty(t, bridge.SyncHistory([]Item{userItem("u2", ItemCompleted, "늦은 이벤트")}))
	bridge.WriteAudio([]byte{3})
	assert.Len(t, audio.chunks, 1)
}

func TestClientSecret(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "object", payload: `{"client_secret":{"value":"ek_1"}}`, want: "ek_1"},
		{name: "string", payload: `{"client_secret":"ek_2"}`, want: "ek_2"},
		{name: "camel", payload: `{"clientSecret":"ek_3"}`, want: "ek_3"},
		{name: "missing", payload: `{"id":"sess"}`, wantErr: true},
		{name: "garbage", payload: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClientSecret([]byte(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingClientSecret)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFriendlyError(t *testing.T) {
	assert.Equal(t, "", FriendlyError(nil))
	assert.Equal(t, "boom", FriendlyError(errors.New("boom")))
	assert.Equal(t, sdpHint, FriendlyError(errors.New("Failed to parse SessionDescription. Expect line: v=")))
}
