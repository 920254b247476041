package chat

import (
	"encoding/json"
	"strings"

	"github.com/soomgil/counsel/internal/conversation/models"
)

const counselorCore = `당신은 자살 시도 이후 응급하게 병원에 입원한 환자의 상담사입니다.
당신의 목표는 환자의 정서를 안정시키고, 환자가 겪었던 사건을 파악하고 공감하는 것입니다.
공감한 이후에는 환자의 사고(생각)과 감정을 파악하여 환자의 인지적 왜곡을 찾고, 이를 해결하는 것입니다.`

const (
	textReplyFormat  = "모든 답변은 JSON 포맷으로 {message: string, score: int}로 score에는 환자의 부정적 감정의 정도를 100점 만점으로 평가하여 넣어주세요."
	voiceReplyFormat = "한국어만을 사용하여 대화를 진행합니다."
	settingsHeading  = "환자 설정 정보:\n"
	sectionSeparator = "\n\n"
)

// InitialGreeting opens every conversation
const InitialGreeting = "안녕하세요! 당신의 이야기가 듣고 싶어요. 무엇이 당신을 힘들게 했나요?"

// SystemPrompt is the counselor instruction plus optional patient context
type SystemPrompt struct {
	core     string
	settings *models.Settings
}

// NewSystemPrompt builds the text chat prompt, which asks for scored JSON replies
func NewSystemPrompt() *SystemPrompt {
	return &SystemPrompt{core: counselorCore + "\n" + textReplyFormat}
}

// NewVoicePrompt builds the realtime prompt, which asks for plain Korean speech
func NewVoicePrompt() *SystemPrompt {
	return &SystemPrompt{core: counselorCore + "\n" + voiceReplyFormat}
}

// WithSettings attaches the patient form. Empty settings are ignored.
func (sp *SystemPrompt) WithSettings(settings models.Settings) *SystemPrompt {
	if settings == (models.Settings{}) {
		sp.settings = nil
		return sp
	}
	sp.settings = &settings
	return sp
}

func (sp *SystemPrompt) String() string {
	sections := []string{sp.core}
	if sp.settings != nil {
		if body, err := json.MarshalIndent(sp.settings, "", "  "); err == nil {
			sections = append(sections, settingsHeading+string(body))
		}
	}
	return strings.Join(sections, sectionSeparator)
}
