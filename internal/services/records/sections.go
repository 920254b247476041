package records

import (
	"regexp"
	"strings"
)

// Section is one labelled part of a record summary. Heading is set on the
// first key of each dashboard group.
type Section struct {
	Key     string `json:"key" yaml:"key"`
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`
	Content string `json:"content" yaml:"content"`
}

// SummarySectionKeys are the labels the summary prompt asks the model to emit
var SummarySectionKeys = []string{
	"과거 사건",
	"인지 사고",
	"감정 반응",
	"대안 사고",
	"환자 상태 요약 리포트 (CAMS-SSF-4 기반)",
	"심리적 고통 (Pain)",
	"절망감 (Hopelessness)",
	"자기 비하 (Self-Hate)",
	"주요 스트레스원(S)",
	"주요 호소 내용 (환자 어록)",
	"감정(E)",
	"생각(T)",
}

// sectionHeading groups sections on the dashboard
func sectionHeading(key string) string {
	switch key {
	case "과거 사건":
		return "인지 행동 분석"
	case "심리적 고통 (Pain)":
		return "환자 상태 요약 리포트 (CAMS-SSF-4 기반)"
	case "감정(E)":
		return "주요 호소 내용"
	}
	return ""
}

var (
	sectionPattern   = compileSectionPattern()
	leadingSeparator = regexp.MustCompile(`^[\s:]+`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

func compileSectionPattern() *regexp.Regexp {
	quoted := make([]string, len(SummarySectionKeys))
	for i, key := range SummarySectionKeys {
		quoted[i] = regexp.QuoteMeta(key)
	}
	return regexp.MustCompile(`(?:●\s*)?(?:` + strings.Join(quoted, "|") + `)`)
}

// ParseSummarySections splits a summary into the fixed sections, in order.
// Text between two labels belongs to the first one; repeated labels are
// joined with a newline. Sections never mentioned are returned empty.
func ParseSummarySections(summary string) []Section {
	sections := make([]Section, len(SummarySectionKeys))
	for i, key := range SummarySectionKeys {
		sections[i] = Section{Key: key, Heading: sectionHeading(key)}
	}

	matches := sectionPattern.FindAllStringIndex(summary, -1)
	if len(matches) == 0 {
		return sections
	}

	content := make(map[string]string, len(matches))
	for i, m := range matches {
		key := strings.TrimLeft(strings.TrimPrefix(summary[m[0]:m[1]], "●"), " \t\n\r\f\v")
		end := len(summary)
		if i < len(matches)-1 {
			end = matches[i+1][0]
		}

		value := leadingSeparator.ReplaceAllString(summary[m[1]:end], "")
		value = strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
		if value == "" {
			continue
		}
		if previous, ok := content[key]; ok {
			value = previous + "\n" + value
		}
		content[key] = value
	}

	for i := range sections {
		sections[i].Content = content[sections[i].Key]
	}
	return sections
}

// NonEmpty drops sections without content
func NonEmpty(sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.Content != "" {
			out = append(out, s)
		}
	}
	return out
}
