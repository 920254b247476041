package summary

import (
	"strings"

	"github.com/soomgil/counsel/internal/conversation/models"
)

const systemInstruction = "당신은 정신건강 상담 기록을 요약하는 한국인 상담 매니저입니다. 민감한 개인정보는 언급하지 말고, 1문장으로 핵심을 요약하세요. 또한 16자 이내의 한국어 제목을 만들어주세요."

var userInstruction = []string{
	"다음 상담 대화 내용을 요약해서 JSON 포맷으로 돌려주세요.",
	`JSON 스키마: {"title": string, "summary": string}`,
	"title은 16자 이내의 한국어로 작성해주세요.",
	"summary는 아래 네 항목을 이 순서대로 작성하고, 각 내용의 앞에는 반드시 '과거 사건:', '인지 사고:', '감정 반응:', '대안 사고:' 형식을 따르세요. 다른 텍스트나 배열 없이 JSON 문자열만 반환하세요.:",
	"과거 사건: 환자가 겪은 사건",
	"인지 사고: 환자의 사고 과정 및 인지 왜곡",
	"감정 반응: 환자가 느낀 감정",
	"대안 사고: 챗봇이 제안한 새로운 인지 사고",
	"또한 아래 CAMS-SSF-4 기반 환자 상태 요약 리포트를 summary에 포함하세요.",
	"환자 상태 요약 리포트 (CAMS-SSF-4 기반)",
	"● 심리적 고통 (Pain): 환자의 심리적 고통",
	"● 절망감 (Hopelessness): 환자의 절망감",
	"● 자기 비하 (Self-Hate): 환자의 자기 비하",
	"● 주요 스트레스원(S): 환자의 주요 스트레스원",
	"주요 호소 내용 (환자 어록)",
	"● 감정(E): 환자가 직접적으로 언급한 환자의 감정",
	"● 생각(T): 환자가 직접적으로 언급한 환자의 생각",
	"",
}

// Prompt builds the summarization request for a serialized transcript
func Prompt(transcript string) []models.Message {
	lines := append(append([]string{}, userInstruction...), transcript)
	return []models.Message{
		{Role: string(models.RoleSystem), Content: systemInstruction},
		{Role: string(models.RoleUser), Content: strings.Join(lines, "\n")},
	}
}
