package intervention

import (
	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/timer"
)

type Action string

const (
	ActionNone       Action = "none"
	ActionBreathing  Action = "breathing"
	ActionNurseAlert Action = "nurse_alert"
)

const (
	nurseThreshold     = 95
	breathingThreshold = 90
)

// Decide maps a distress score to an overlay. Thresholds are exclusive and
// the first match wins.
func Decide(score *float64) Action {
	switch {
	case score == nil:
		return ActionNone
	case *score > nurseThreshold:
		return ActionNurseAlert
	case *score > breathingThreshold:
		return ActionBreathing
	default:
		return ActionNone
	}
}

// Engine owns both overlays of one conversation
type Engine struct {
	Breathing *BreathingGuide
	Nurse     *NurseAlert
}

func NewEngine(clock timer.Clock, onBreathing, onNurse Listener) *Engine {
	return &Engine{
		Breathing: NewBreathingGuide(clock, onBreathing),
		Nurse:     NewNurseAlert(clock, onNurse),
	}
}

// Inspect starts the overlay the score calls for and returns the decision
func (e *Engine) Inspect(score *float64) Action {
	action := Decide(score)

	switch action {
	case ActionNurseAlert:
		log.Info().Float64("score", *score).Msg("Distress score above nurse threshold")
		e.Nurse.Start()
	case ActionBreathing:
		log.Info().Float64("score", *score).Msg("Distress score above breathing threshold")
		e.Breathing.Start()
	}

	return action
}

// Close stops both overlays and their timers
func (e *Engine) Close() {
	e.Breathing.Close()
	e.Nurse.Close()
}
