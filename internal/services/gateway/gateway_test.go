package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/pkg/httpext"
)

func TestRequestCompletionSuccess(t *testing.T) {
	var received requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"{\"message\":\"괜찮아요\",\"score\":40}"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	completion, err := client.RequestCompletion(context.Background(), "gpt-4.1-mini", []models.Message{
		{Role: "system", Content: "prompt"},
		{Role: "user", Content: "hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"message":"괜찮아요","score":40}`, completion.Message)
	assert.Equal(t, "gpt-4.1-mini", received.Model)
	assert.Len(t, received.Messages, 2)
}

func TestRequestCompletionSendsSessionID(t *testing.T) {
	headers := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Get(httpext.SessionHeader)
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	_, err := client.RequestCompletion(WithSessionID(context.Background(), "session-7"), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "session-7", <-headers)

	_, err = client.RequestCompletion(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, <-headers)
}

func TestRequestCompletionServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"error string", http.StatusInternalServerError, `{"error":"OpenAI 키가 없습니다"}`, "OpenAI 키가 없습니다"},
		{"error object", http.StatusBadGateway, `{"error":{"message":"upstream exploded"}}`, "upstream exploded"},
		{"json string body", http.StatusBadRequest, `"bad input"`, "bad input"},
		{"raw text", http.StatusServiceUnavailable, "Service Unavailable", "Service Unavailable"},
		{"empty body", http.StatusInternalServerError, "", DefaultFailureReason},
		{"json without error", http.StatusInternalServerError, `{"detail":"x"}`, `{"detail":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, nil).RequestCompletion(context.Background(), "", nil)
			require.Error(t, err)

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, ServerError, reqErr.Kind)
			assert.Equal(t, tt.status, reqErr.Status)
			assert.Equal(t, tt.reason, reqErr.Reason)
			assert.Equal(t, tt.reason, Reason(err))
		})
	}
}

func TestRequestCompletionNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, nil).RequestCompletion(context.Background(), "", nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, NetworkError, reqErr.Kind)
	assert.NotEmpty(t, reqErr.Reason)
}

func TestRequestCompletionCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, nil).RequestCompletion(ctx, "", nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRequestCompletionMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, nil).RequestCompletion(context.Background(), "", nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, ServerError, reqErr.Kind)
	assert.Equal(t, DefaultFailureReason, reqErr.Reason)
}

func TestParseReply(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		raw  string
		want Reply
	}{
		{"well formed", `{"message":" 천천히 말씀해 주세요 ","score":72}`, Reply{Message: "천천히 말씀해 주세요", Score: score(72)}},
		{"not json", "not json", Reply{Message: "not json"}},
		{"empty", "   ", Reply{Message: EmptyReplyMessage}},
		{"missing message", `{"score":91}`, Reply{Message: `{"score":91}`, Score: score(91)}},
		{"blank message", `{"message":"  ","score":10}`, Reply{Message: `{"message":"  ","score":10}`, Score: score(10)}},
		{"string score", `{"message":"hi","score":"96"}`, Reply{Message: "hi"}},
		{"json array", `[1,2]`, Reply{Message: `[1,2]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReply(tt.raw))
		})
	}
}
