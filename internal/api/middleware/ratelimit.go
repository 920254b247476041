package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/pkg/httpext"
	"github.com/soomgil/counsel/pkg/logger"
	"github.com/soomgil/counsel/pkg/ratelimit"
)

const rateLimited = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."

// RateLimit limits requests per client with the limit configured under
// limitKey. Conversation sessions calling back over loopback each get their
// own bucket.
func RateLimit(limits config.RateLimits, limitKey string) mux.MiddlewareFunc {
	cfg := limits.Get(limitKey)
	limiter := ratelimit.NewLimiter(cfg.Window, cfg.MaxHits)
	mwLog := logger.For(logger.MIDDLEWARE)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := httpext.ClientKey(r)
			if !limiter.Allow(key) {
				mwLog.Warn().Str("client", key).Str("limit", limitKey).Msg("Rate limit exceeded")
				httpext.JsonError(w, rateLimited, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
