package config

const (
	DefaultRealtimeModel      = "gpt-4o-mini-realtime-preview"
	DefaultRealtimeVoice      = "alloy"
	DefaultTranscriptionModel = "gpt-4o-mini-transcribe"
	DefaultRealtimeBaseURL    = "wss://api.openai.com/v1/realtime"
)

// RealtimeConfig configures the voice channel
type RealtimeConfig struct {
	Model              string
	Voice              string
	TranscriptionModel string
	BaseURL            string
}

func loadRealtime() RealtimeConfig {
	return RealtimeConfig{
		Model:              GetEnvOrDefault("OPENAI_REALTIME_MODEL", DefaultRealtimeModel),
		Voice:              GetEnvOrDefault("OPENAI_VOICE", DefaultRealtimeVoice),
		TranscriptionModel: GetEnvOrDefault("OPENAI_STT_MODEL", DefaultTranscriptionModel),
		BaseURL:            GetEnvOrDefault("OPENAI_REALTIME_BASE_URL", DefaultRealtimeBaseURL),
	}
}
