package events

// InterventionTriggered is published when a reply score starts an overlay
type InterventionTriggered struct {
	Action string  `json:"action"`
	Score  float64 `json:"score"`
}

// SummaryUpdated is published when a summary request settles
type SummaryUpdated struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Error  string `json:"error,omitempty"`
}

// RecordPersisted is published after the conversation record was written
type RecordPersisted struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Hospital     string `json:"hospital"`
	MessageCount int    `json:"messageCount"`
}

type VoiceState string

const (
	VoiceConnected VoiceState = "connected"
	VoiceClosed    VoiceState = "closed"
	VoiceFailed    VoiceState = "failed"
)

// VoiceSession is published on voice session transitions
type VoiceSession struct {
	State VoiceState `json:"state"`
	Error string     `json:"error,omitempty"`
}
