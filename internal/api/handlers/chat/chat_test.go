package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/services/chat"
	"github.com/soomgil/counsel/pkg/httpext"
)

// MockChatService mocks the chat service
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) ProcessChat(ctx context.Context, model string, messages []models.Message) (string, error) {
	args := m.Called(ctx, model, messages)
	return args.String(0), args.Error(1)
}

func TestHandleChat(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMocks     func(*MockChatService)
		expectedStatus int
		expectedBody   any
	}{
		{
			name: "Valid request with successful response",
			requestBody: map[string]any{
				"model":    "gpt-4.1-mini",
				"messages": []map[string]string{{"role": "user", "content": "안녕하세요"}},
			},
			setupMocks: func(m *MockChatService) {
				m.On("ProcessChat", mock.Anything, "gpt-4.1-mini", []models.Message{{Role: "user", Content: "안녕하세요"}}).
					Return(`{"message":"반가워요","score":10}`, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   Response{Message: `{"message":"반가워요","score":10}`},
		},
		{
			name:           "Invalid request - empty messages",
			requestBody:    map[string]any{"messages": []map[string]string{}},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   httpext.ErrorResponse{Error: missingMessages},
		},
		{
			name:           "Invalid request - messages missing",
			requestBody:    map[string]any{"model": "gpt-5"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   httpext.ErrorResponse{Error: missingMessages},
		},
		{
			name:           "Invalid request - malformed JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   httpext.ErrorResponse{Error: malformedBody},
		},
		{
			name: "Provider failure",
			requestBody: map[string]any{
				"messages": []map[string]string{{"role": "user", "content": "안녕하세요"}},
			},
			setupMocks: func(m *MockChatService) {
				m.On("ProcessChat", mock.Anything, "", mock.Anything).
					Return("", errors.New("429 Too Many Requests"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   httpext.ErrorResponse{Error: "429 Too Many Requests"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockChatService{}
			if tt.setupMocks != nil {
				tt.setupMocks(service)
			}

			var body bytes.Buffer
			if str, ok := tt.requestBody.(string); ok {
				body.WriteString(str)
			} else {
				require.NoError(t, json.NewEncoder(&body).Encode(tt.requestBody))
			}

			req := httptest.NewRequest(http.MethodPost, "/api/chat", &body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			HandleChat(service, w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			expected, err := json.Marshal(tt.expectedBody)
			require.NoError(t, err)
			assert.JSONEq(t, string(expected), w.Body.String())
			service.AssertExpectations(t)
		})
	}
}

func TestHandleChatWithoutAPIKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"messages":[]}`))
	w := httptest.NewRecorder()

	var service chat.Service
	HandleChat(service, w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "OPENAI_API_KEY")
}
