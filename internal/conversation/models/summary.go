package models

type SummaryStatus string

const (
	SummaryIdle    SummaryStatus = "idle"
	SummaryLoading SummaryStatus = "loading"
	SummaryReady   SummaryStatus = "ready"
	SummaryError   SummaryStatus = "error"
)

// ConversationSummary is the derived title and summary of the transcript
type ConversationSummary struct {
	Status  SummaryStatus `json:"status"`
	Title   string        `json:"title"`
	Summary string        `json:"summary"`
	Error   string        `json:"error,omitempty"`
}
