// Package realtime serves POST /api/realtime/session, which mints an
// ephemeral voice session for a browser client.
package realtime

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/internal/services/realtime"
	"github.com/soomgil/counsel/pkg/httpext"
)

const (
	missingAPIKey = "OpenAI API 키가 설정되어 있지 않습니다. 환경 변수를 확인해주세요."
	issueFailure  = "실시간 세션 생성 중 알 수 없는 오류가 발생했습니다."
)

// HandleSession relays the provider session payload as is. issuer is nil
// when no API key is configured.
func HandleSession(issuer realtime.Issuer, cfg config.RealtimeConfig, w http.ResponseWriter, r *http.Request) {
	if issuer == nil {
		log.Error().Msg("Realtime session requested without a configured API key")
		httpext.JsonError(w, missingAPIKey, http.StatusInternalServerError)
		return
	}

	payload, err := issuer.CreateRealtimeSession(r.Context(), cfg)
	if err != nil {
		log.Error().Err(err).Str("model", cfg.Model).Msg("Failed to create realtime session")
		reason := err.Error()
		if reason == "" {
			reason = issueFailure
		}
		httpext.JsonError(w, reason, http.StatusInternalServerError)
		return
	}

	log.Info().Str("model", cfg.Model).Str("client_ip", r.RemoteAddr).Msg("Realtime session issued")
	httpext.JsonRaw(w, payload, http.StatusOK)
}
