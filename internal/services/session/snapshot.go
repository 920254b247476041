package session

import (
	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/services/intervention"
)

// BreathingView is the breathing overlay with its current step resolved
type BreathingView struct {
	intervention.OverlayState
	Step         *intervention.Step `json:"step,omitempty"`
	DisplayCycle int                `json:"displayCycle"`
}

// Snapshot is everything a client needs to render the conversation
type Snapshot struct {
	SessionID       string                     `json:"sessionId"`
	Messages        []models.ChatTurn          `json:"messages"`
	VoiceMessages   []models.ChatTurn          `json:"voiceMessages"`
	Summary         models.ConversationSummary `json:"summary"`
	Breathing       BreathingView              `json:"breathing"`
	NurseAlert      intervention.OverlayState  `json:"nurseAlert"`
	Loading         bool                       `json:"loading"`
	VoiceActive     bool                       `json:"voiceActive"`
	VoiceConnecting bool                       `json:"voiceConnecting"`
	Notice          string                     `json:"notice,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	notice := s.notice
	voiceActive := s.voice.conn != nil
	connecting := s.voice.connecting
	s.mu.Unlock()

	breathing := s.engine.Breathing.State()
	view := BreathingView{OverlayState: breathing, DisplayCycle: breathing.DisplayCycle()}
	if step, ok := breathing.CurrentStep(); ok {
		view.Step = &step
	}

	voiceTurns := s.bridge.Turns()
	if voiceTurns == nil {
		voiceTurns = []models.ChatTurn{}
	}

	return Snapshot{
		SessionID:       s.id,
		Messages:        s.messages.Snapshot(),
		VoiceMessages:   voiceTurns,
		Summary:         s.summary.State(),
		Breathing:       view,
		NurseAlert:      s.engine.Nurse.State(),
		Loading:         s.messages.HasPending(),
		VoiceActive:     voiceActive,
		VoiceConnecting: connecting,
		Notice:          notice,
	}
}
