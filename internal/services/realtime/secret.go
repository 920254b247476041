package realtime

import (
	"encoding/json"
	"errors"
	"strings"
)

const sdpHint = "실시간 세션 초기화 중 오류가 발생했습니다. 모델 접근 권한과 환경 변수를 다시 확인한 뒤 새로고침 해주세요."

var ErrMissingClientSecret = errors.New("실시간 세션 인증 토큰이 비어있습니다.")

// ClientSecret reads the ephemeral credential from a session payload. The
// provider has used an object with a value, a bare string and a camel case
// key over time.
func ClientSecret(payload []byte) (string, error) {
	var body struct {
		ClientSecret      json.RawMessage `json:"client_secret"`
		ClientSecretCamel string          `json:"clientSecret"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", ErrMissingClientSecret
	}

	if len(body.ClientSecret) > 0 {
		var wrapped struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(body.ClientSecret, &wrapped); err == nil && wrapped.Value != "" {
			return wrapped.Value, nil
		}
		var plain string
		if err := json.Unmarshal(body.ClientSecret, &plain); err == nil && plain != "" {
			return plain, nil
		}
	}
	if body.ClientSecretCamel != "" {
		return body.ClientSecretCamel, nil
	}
	return "", ErrMissingClientSecret
}

// FriendlyError is the banner text for a failed voice session
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}
	message := err.Error()
	if strings.Contains(strings.ToLower(message), "expect line: v=") {
		return sdpHint
	}
	return message
}
