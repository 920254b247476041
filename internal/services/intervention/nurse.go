package intervention

import (
	"sync"

	"github.com/soomgil/counsel/internal/timer"
)

// NurseAlert shows the call-a-nurse prompt: fade in, hold, fade out, unmount
type NurseAlert struct {
	mu       sync.Mutex
	state    OverlayState
	run      uint64
	slot     *timer.Slot
	onChange Listener
}

func NewNurseAlert(clock timer.Clock, onChange Listener) *NurseAlert {
	if onChange == nil {
		onChange = func(OverlayState) {}
	}
	return &NurseAlert{
		slot:     timer.NewSlot(clock),
		onChange: onChange,
	}
}

// Start shows the alert, restarting the sequence if it is already up
func (n *NurseAlert) Start() {
	n.mu.Lock()
	n.slot.Cancel()
	n.run++
	run := n.run

	n.state = OverlayState{Active: true, Visible: true}
	n.slot.Schedule(NurseFadeIn, func() { n.fadeIn(run) })
	state := n.state
	n.mu.Unlock()

	n.onChange(state)
}

func (n *NurseAlert) State() OverlayState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *NurseAlert) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.slot.Cancel()
	n.run++
	n.state = OverlayState{}
}

func (n *NurseAlert) fadeIn(run uint64) {
	n.transition(run, true, func() {
		n.slot.Schedule(NurseHold, func() { n.fadeOut(run) })
	})
}

func (n *NurseAlert) fadeOut(run uint64) {
	n.transition(run, false, func() {
		n.slot.Schedule(NurseFadeOut, func() { n.hide(run) })
	})
}

func (n *NurseAlert) transition(run uint64, opaque bool, next func()) {
	n.mu.Lock()
	if n.run != run || !n.state.Visible {
		n.mu.Unlock()
		return
	}
	n.state.Opaque = opaque
	next()
	state := n.state
	n.mu.Unlock()

	n.onChange(state)
}

func (n *NurseAlert) hide(run uint64) {
	n.mu.Lock()
	if n.run != run {
		n.mu.Unlock()
		return
	}
	n.state = OverlayState{}
	n.mu.Unlock()

	n.onChange(OverlayState{})
}
