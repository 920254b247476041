package intervention

import (
	"sync"

	"github.com/soomgil/counsel/internal/timer"
)

// BreathingGuide runs BreathingSequence for BreathingCycles cycles, fading
// in on start and out after the last exhale
type BreathingGuide struct {
	mu       sync.Mutex
	state    OverlayState
	run      uint64
	step     *timer.Slot
	opacity  *timer.Slot
	onChange Listener
}

func NewBreathingGuide(clock timer.Clock, onChange Listener) *BreathingGuide {
	if onChange == nil {
		onChange = func(OverlayState) {}
	}
	return &BreathingGuide{
		step:     timer.NewSlot(clock),
		opacity:  timer.NewSlot(clock),
		onChange: onChange,
	}
}

// Start shows the guide from the first step, abandoning any running sequence
func (g *BreathingGuide) Start() {
	g.mu.Lock()
	g.step.Cancel()
	g.opacity.Cancel()
	g.run++
	run := g.run

	g.state = OverlayState{Active: true, Visible: true}
	g.opacity.Schedule(BreathingFadeIn, func() { g.fadeIn(run) })
	g.scheduleStepLocked(run)
	state := g.state
	g.mu.Unlock()

	g.onChange(state)
}

func (g *BreathingGuide) State() OverlayState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Close cancels every pending timer and unmounts without notifying
func (g *BreathingGuide) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.step.Cancel()
	g.opacity.Cancel()
	g.run++
	g.state = OverlayState{}
}

func (g *BreathingGuide) scheduleStepLocked(run uint64) {
	g.step.Schedule(BreathingSequence[g.state.StepIndex].Duration, func() { g.advance(run) })
}

func (g *BreathingGuide) fadeIn(run uint64) {
	g.mu.Lock()
	if g.run != run || !g.state.Visible {
		g.mu.Unlock()
		return
	}
	g.state.Opaque = true
	state := g.state
	g.mu.Unlock()

	g.onChange(state)
}

func (g *BreathingGuide) advance(run uint64) {
	g.mu.Lock()
	if g.run != run || !g.state.Active {
		g.mu.Unlock()
		return
	}

	switch {
	case g.state.StepIndex < len(BreathingSequence)-1:
		g.state.StepIndex++
		g.scheduleStepLocked(run)
	case g.state.Cycle < BreathingCycles-1:
		g.state.StepIndex = 0
		g.state.Cycle++
		g.scheduleStepLocked(run)
	default:
		g.state.Active = false
		g.state.Opaque = false
		g.opacity.Schedule(BreathingFadeOut, func() { g.unmount(run) })
	}
	state := g.state
	g.mu.Unlock()

	g.onChange(state)
}

func (g *BreathingGuide) unmount(run uint64) {
	g.mu.Lock()
	if g.run != run || g.state.Active {
		g.mu.Unlock()
		return
	}
	g.state = OverlayState{}
	g.mu.Unlock()

	g.onChange(OverlayState{})
}
