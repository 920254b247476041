// Package summary keeps a title and structured summary of the transcript up
// to date. Requests are debounced and a newer transcript cancels the
// request for an older one.
package summary

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/services/gateway"
	"github.com/soomgil/counsel/internal/timer"
)

const Debounce = 600 * time.Millisecond

// Input is the part of the transcript the summary depends on. An empty
// Transcript means fewer than two done turns.
type Input struct {
	Transcript       string
	FirstUserContent string
}

// NewInput derives the summary input from a transcript snapshot
func NewInput(turns []models.ChatTurn) Input {
	done := 0
	for _, t := range turns {
		if t.Status == models.StatusDone {
			done++
		}
	}
	if done < 2 {
		return Input{FirstUserContent: models.FirstDoneUserContent(turns)}
	}
	return Input{
		Transcript:       models.SerializeDone(turns),
		FirstUserContent: models.FirstDoneUserContent(turns),
	}
}

type Pipeline struct {
	mu        sync.Mutex
	base      context.Context
	completer gateway.Completer
	model     string
	debounce  *timer.Slot
	state     models.ConversationSummary
	input     Input
	gen       uint64
	cancel    context.CancelFunc
	onChange  func(models.ConversationSummary)
}

// NewPipeline creates an idle pipeline. Requests run under contexts derived
// from ctx.
func NewPipeline(ctx context.Context, completer gateway.Completer, model string, clock timer.Clock, onChange func(models.ConversationSummary)) *Pipeline {
	if onChange == nil {
		onChange = func(models.ConversationSummary) {}
	}
	return &Pipeline{
		base:      ctx,
		completer: completer,
		model:     model,
		debounce:  timer.NewSlot(clock),
		state:     models.ConversationSummary{Status: models.SummaryIdle},
		onChange:  onChange,
	}
}

// Update schedules a recomputation when the input changed
func (p *Pipeline) Update(in Input) {
	p.mu.Lock()
	if in == p.input {
		p.mu.Unlock()
		return
	}
	p.input = in
	p.invalidateLocked()
	gen := p.gen

	if in.Transcript == "" {
		p.state = models.ConversationSummary{Status: models.SummaryIdle, Error: p.state.Error}
		state := p.state
		p.mu.Unlock()

		p.onChange(state)
		return
	}

	p.debounce.Schedule(Debounce, func() { p.run(gen, in) })
	p.mu.Unlock()
}

// State returns the latest committed summary
func (p *Pipeline) State() models.ConversationSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close cancels the debounce timer and any request in flight
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidateLocked()
}

func (p *Pipeline) invalidateLocked() {
	p.debounce.Cancel()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
}

func (p *Pipeline) run(gen uint64, in Input) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel
	p.state.Status = models.SummaryLoading
	loading := p.state
	p.mu.Unlock()

	p.onChange(loading)

	completion, err := p.completer.RequestCompletion(ctx, p.model, Prompt(in.Transcript))

	p.mu.Lock()
	if gen != p.gen || ctx.Err() != nil {
		p.mu.Unlock()
		cancel()
		log.Debug().Uint64("generation", gen).Msg("Discarding superseded summary result")
		return
	}
	p.cancel = nil
	cancel()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Summary request failed")
		}
		p.state = Failed(gateway.Reason(err), in)
	} else {
		p.state = Parse(completion.Message, in)
	}
	state := p.state
	p.mu.Unlock()

	p.onChange(state)
}
