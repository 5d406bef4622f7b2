// Package overlay reconciles focus events into what the overlay shows and
// whether it is visible, and drives the window manager accordingly.
package overlay

import (
	"context"
	"sync"
	"time"

	"github.com/bryanchriswhite/qalttab/internal/events"
	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/bryanchriswhite/qalttab/internal/window"
	"github.com/rs/zerolog"
)

// Source is the consumer side of the event queue
type Source interface {
	Drain() []events.FocusEvent
	Wake() <-chan struct{}
}

// Sizer computes the overlay's placement size for a window list
type Sizer interface {
	Width() int
	Height(windows window.List) int
}

// Snapshot is one processed notification
type Snapshot struct {
	Kind    events.Kind `json:"kind"`
	Windows window.List `json:"windows"`
}

// State is the overlay state. Snapshots are replaced, never mutated.
type State struct {
	Current  *Snapshot `json:"current"`
	Previous *Snapshot `json:"previous"`
	Visible  bool      `json:"visible"`
	Revision uint64    `json:"revision"`
}

// Aggregator is the single consumer of focus events
type Aggregator struct {
	source Source
	ctrl   window.Controller

	// ctrlMu serializes control calls between the tick and click handlers
	ctrlMu sync.Mutex

	mu        sync.RWMutex
	sizer     Sizer
	state     State
	listeners []chan State

	log *zerolog.Logger
}

// NewAggregator creates an aggregator reading from source
func NewAggregator(source Source, ctrl window.Controller, sizer Sizer) *Aggregator {
	log := logger.WithComponent(logger.ComponentAggregator).With().
		Str("backend", ctrl.Name()).
		Logger()
	return &Aggregator{
		source: source,
		ctrl:   ctrl,
		sizer:  sizer,
		log:    &log,
	}
}

// State returns the current state
func (a *Aggregator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// SetSizer swaps the layout used for placement, e.g. after a config reload
func (a *Aggregator) SetSizer(sizer Sizer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sizer = sizer
}

// Tick drains every queued event, applies them in arrival order and then acts
// once on the final visibility. It reports whether any event was processed.
func (a *Aggregator) Tick(ctx context.Context) bool {
	evs := a.source.Drain()
	if len(evs) == 0 {
		return false
	}

	a.mu.RLock()
	next := a.state
	sizer := a.sizer
	a.mu.RUnlock()

	// nil while no event in this burst commanded a visibility
	var commanded *bool
	show, hide := true, false

	for _, ev := range evs {
		switch ev.Kind {
		case events.ClientFocus:
			snap := &Snapshot{Kind: events.ClientFocus, Windows: ev.Windows}
			next.Current = snap
			next.Previous = snap
			commanded = &hide

		case events.CycleWindows:
			if next.Previous != nil && next.Previous.Windows.Equal(ev.Windows) {
				a.log.Debug().Int("windows", len(ev.Windows)).Msg("Cycle list unchanged")
				continue
			}
			snap := &Snapshot{Kind: events.CycleWindows, Windows: ev.Windows}
			next.Current = snap
			next.Previous = snap
			commanded = &show

		case events.AltReleased:
			// Only a repaint trigger; the hook round trip brings the ClientFocus

		default:
			a.log.Warn().Str("kind", string(ev.Kind)).Msg("Ignoring unknown event")
		}
	}

	if commanded != nil {
		next.Visible = *commanded
		a.act(ctx, sizer, next)
	}
	next.Revision++

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	a.log.Debug().
		Int("events", len(evs)).
		Bool("visible", next.Visible).
		Uint64("revision", next.Revision).
		Msg("Tick")

	a.notifyListeners(next)
	return true
}

func (a *Aggregator) act(ctx context.Context, sizer Sizer, state State) {
	a.ctrlMu.Lock()
	defer a.ctrlMu.Unlock()

	var windows window.List
	if state.Current != nil {
		windows = state.Current.Windows
	}
	if sizer != nil {
		a.ctrl.Place(ctx, sizer.Width(), sizer.Height(windows))
	}

	if state.Visible {
		a.ctrl.Show(ctx)
	} else {
		a.ctrl.Hide(ctx)
	}
}

// Run ticks every interval, or earlier when the queue signals new events,
// until ctx is cancelled
func (a *Aggregator) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.log.Info().Dur("interval", interval).Msg("Aggregator started")
	for {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("Aggregator stopped")
			return nil
		case <-ticker.C:
		case <-a.source.Wake():
		}
		a.Tick(ctx)
	}
}

// Activate focuses the target and hides the overlay. A target without an id
// fails before any call and the overlay stays as it is.
func (a *Aggregator) Activate(ctx context.Context, target window.Window) error {
	a.ctrlMu.Lock()
	defer a.ctrlMu.Unlock()

	if err := a.ctrl.Focus(ctx, target); err != nil {
		return err
	}
	a.ctrl.Hide(ctx)
	return nil
}

// Dismiss closes the target window
func (a *Aggregator) Dismiss(ctx context.Context, target window.Window) error {
	a.ctrlMu.Lock()
	defer a.ctrlMu.Unlock()

	return a.ctrl.Close(ctx, target)
}

// Subscribe returns a channel receiving the state after every processed tick
func (a *Aggregator) Subscribe() chan State {
	ch := make(chan State, 10)
	a.mu.Lock()
	a.listeners = append(a.listeners, ch)
	a.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription
func (a *Aggregator) Unsubscribe(ch chan State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, listener := range a.listeners {
		if listener == ch {
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

func (a *Aggregator) notifyListeners(state State) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, listener := range a.listeners {
		select {
		case listener <- state:
		default:
			// Slow subscriber, skip
		}
	}
}
