package summary

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
)

const (
	TitleLimit   = 16
	SummaryLimit = 120

	untitled          = "제목 미생성"
	titleFailed       = "제목 생성 실패"
	noSummary         = "요약을 확보하지 못했습니다."
	summaryFailed     = "요약문 생성에 실패했습니다."
	unknownErrorLabel = "알 수 없는 오류가 발생했습니다."
)

type parsedSummary struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

// FallbackTitle is the first user message cut to TitleLimit, or placeholder
func FallbackTitle(firstUser, placeholder string) string {
	if strings.TrimSpace(firstUser) == "" {
		return placeholder
	}
	return models.Truncate(firstUser, TitleLimit)
}

// FallbackSummary is the transcript cut to limit, or placeholder
func FallbackSummary(transcript string, limit int, placeholder string) string {
	if transcript == "" {
		return placeholder
	}
	return models.Truncate(transcript, limit)
}

// Parse turns the model output into a ready summary, falling back field by
// field when the JSON is malformed or incomplete
func Parse(raw string, in Input) models.ConversationSummary {
	var parsed parsedSummary
	if body := stripCodeFence(raw); body != "" {
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			log.Warn().Err(err).Msg("Summary response is not valid JSON, using fallback")
			parsed = parsedSummary{}
		}
	}

	result := models.ConversationSummary{
		Status:  models.SummaryReady,
		Title:   FallbackTitle(in.FirstUserContent, untitled),
		Summary: FallbackSummary(in.Transcript, SummaryLimit, noSummary),
	}
	if parsed.Title != nil && strings.TrimSpace(*parsed.Title) != "" {
		result.Title = models.Truncate(strings.TrimSpace(*parsed.Title), TitleLimit)
	}
	if parsed.Summary != nil && strings.TrimSpace(*parsed.Summary) != "" {
		result.Summary = strings.TrimSpace(*parsed.Summary)
	}
	return result
}

// Failed is the summary committed when the request itself fails
func Failed(reason string, in Input) models.ConversationSummary {
	if reason == "" {
		reason = unknownErrorLabel
	}
	return models.ConversationSummary{
		Status:  models.SummaryError,
		Title:   FallbackTitle(in.FirstUserContent, titleFailed),
		Summary: FallbackSummary(in.Transcript, SummaryLimit, summaryFailed),
		Error:   reason,
	}
}

func stripCodeFence(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimPrefix(body, "json")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
