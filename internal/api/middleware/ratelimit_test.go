package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/pkg/httpext"
)

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RateLimitConfig
		requests int
		want     []int
	}{
		{
			name:     "disabled passes everything",
			cfg:      config.RateLimitConfig{Enabled: false, MaxHits: 1, Window: time.Minute},
			requests: 3,
			want:     []int{http.StatusOK, http.StatusOK, http.StatusOK},
		},
		{
			name:     "enabled rejects over the limit",
			cfg:      config.RateLimitConfig{Enabled: true, MaxHits: 2, Window: time.Minute},
			requests: 3,
			want:     []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := config.RateLimits{"chat": tt.cfg}
			handler := RateLimit(limits, "chat")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			var got []int
			for i := 0; i < tt.requests; i++ {
				req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
				req.Header.Set("X-Forwarded-For", "10.0.0.1")
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				got = append(got, w.Code)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimitSeparatesLoopbackSessions(t *testing.T) {
	limits := config.RateLimits{"chat": {Enabled: true, MaxHits: 1, Window: time.Minute}}
	handler := RateLimit(limits, "chat")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(remote, session string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = remote
		if session != "" {
			req.Header.Set(httpext.SessionHeader, session)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("127.0.0.1:40001", "session-a"))
	assert.Equal(t, http.StatusOK, call("127.0.0.1:40002", "session-b"))
	assert.Equal(t, http.StatusTooManyRequests, call("127.0.0.1:40003", "session-a"))

	// a new source port is still the same client
	assert.Equal(t, http.StatusOK, call("203.0.113.7:5000", ""))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.7:5001", ""))
}
