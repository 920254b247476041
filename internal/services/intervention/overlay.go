// Package intervention turns the distress score of an assistant reply into
// one of two timed full-screen overlays.
package intervention

import "time"

// Cue is the visual hint shown with a breathing step
type Cue string

const (
	CueIdle   Cue = "idle"
	CueInhale Cue = "inhale"
	CueHold   Cue = "hold"
	CueExhale Cue = "exhale"
)

type Step struct {
	Key      string        `json:"key"`
	Text     string        `json:"text"`
	Duration time.Duration `json:"-"`
	Cue      Cue           `json:"cue"`
}

var BreathingSequence = []Step{
	{Key: "calm", Text: "많이 흥분하셨네요.", Duration: 2 * time.Second, Cue: CueIdle},
	{Key: "prepare", Text: "같이 심호흡을 해볼까요?", Duration: 2 * time.Second, Cue: CueIdle},
	{Key: "inhale", Text: "5초 동안 들이마시기", Duration: 5 * time.Second, Cue: CueInhale},
	{Key: "hold", Text: "5초 동안 숨 참기", Duration: 5 * time.Second, Cue: CueHold},
	{Key: "exhale", Text: "5초 동안 내쉬기", Duration: 5 * time.Second, Cue: CueExhale},
}

const (
	BreathingCycles  = 3
	BreathingFadeIn  = 2 * time.Second
	BreathingFadeOut = 2 * time.Second

	NurseFadeIn  = 20 * time.Millisecond
	NurseHold    = 10 * time.Second
	NurseFadeOut = 500 * time.Millisecond
)

// OverlayState is the render state of an overlay. Visible means mounted,
// Opaque drives the fade transition.
type OverlayState struct {
	Active    bool `json:"active"`
	Visible   bool `json:"visible"`
	Opaque    bool `json:"opaque"`
	StepIndex int  `json:"stepIndex"`
	Cycle     int  `json:"cycle"`
}

// CurrentStep returns the breathing step on screen, if any
func (s OverlayState) CurrentStep() (Step, bool) {
	if !s.Visible || s.StepIndex < 0 || s.StepIndex >= len(BreathingSequence) {
		return Step{}, false
	}
	return BreathingSequence[s.StepIndex], true
}

// DisplayCycle is the 1-based cycle counter shown to the patient
func (s OverlayState) DisplayCycle() int {
	if !s.Visible {
		return 0
	}
	return min(s.Cycle+1, BreathingCycles)
}

// Listener receives every state change of an overlay
type Listener func(OverlayState)
