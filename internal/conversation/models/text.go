package models

import "strings"

// Truncate returns at most n characters of s
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SpeakerLabel is the transcript prefix used for summaries and records
func SpeakerLabel(role Role) string {
	if role == RoleUser {
		return "사용자"
	}
	return "상담사"
}

// SerializeDone renders the done turns as "speaker: content" lines
func SerializeDone(turns []ChatTurn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Status != StatusDone {
			continue
		}
		lines = append(lines, SpeakerLabel(t.Role)+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

// FirstDoneUserContent returns the content of the first done user turn
func FirstDoneUserContent(turns []ChatTurn) string {
	for _, t := range turns {
		if t.Role == RoleUser && t.Status == StatusDone {
			return t.Content
		}
	}
	return ""
}
