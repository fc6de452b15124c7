// Package observer defines the progress-event sink the orchestrator reports
// to. It replaces the "observer protocol with duck typing" the pipeline was
// distilled from (spec.md §9) with a small, explicit interface: there is no
// runtime check of whether an argument "looks like" an observer.
package observer

import "github.com/scholardoc/scholarocr/internal/types"

// Observer receives progress events from the orchestrator. Implementations
// must be cheap and non-blocking: the orchestrator never waits on them
// (spec.md §5).
type Observer interface {
	OnPhase(types.PhaseEvent)
	OnProgress(types.ProgressEvent)
	OnModel(types.ModelEvent)
}

// NullObserver discards every event. Used when the caller has no interest
// in progress reporting.
type NullObserver struct{}

func (NullObserver) OnPhase(types.PhaseEvent)       {}
func (NullObserver) OnProgress(types.ProgressEvent) {}
func (NullObserver) OnModel(types.ModelEvent)       {}

// Emit delivers an Event to whichever of its three shapes is populated. A
// zero-value Event (all fields nil) is a no-op.
func Emit(o Observer, ev types.Event) {
	switch {
	case ev.Phase != nil:
		o.OnPhase(*ev.Phase)
	case ev.Progress != nil:
		o.OnProgress(*ev.Progress)
	case ev.Model != nil:
		o.OnModel(*ev.Model)
	}
}
