package progress

import (
	"fmt"
	"sync"
)

// ProgressSink receives stage transitions.
type ProgressSink interface {
	OnProgress(stage Stage)
}

// DisplaySink receives display patches.
type DisplaySink interface {
	OnDisplay(patch Patch)
}

// Tracker is the single shared state cell of a withdrawal: one writer (the
// orchestrator), many readers. Stages advance monotonically along the happy
// path or jump to the terminal error stage; once terminal, further updates
// are rejected and no sink is notified.
type Tracker struct {
	mu      sync.RWMutex
	stage   Stage
	display Display

	progressSinks []ProgressSink
	displaySinks  []DisplaySink
}

// NewTracker creates a tracker at StageNone.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Subscribe registers a sink for stage transitions.
func (t *Tracker) Subscribe(sink ProgressSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progressSinks = append(t.progressSinks, sink)
}

// SubscribeDisplay registers a sink for display patches.
func (t *Tracker) SubscribeDisplay(sink DisplaySink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.displaySinks = append(t.displaySinks, sink)
}

// Advance moves the tracker to the given stage and applies the paired
// display patch. Backward moves and any move out of a terminal stage are
// rejected.
func (t *Tracker) Advance(stage Stage, patch Patch) error {
	t.mu.Lock()

	if t.stage.Terminal() {
		t.mu.Unlock()
		return fmt.Errorf("tracker is terminal at '%s', cannot advance to '%s'", t.stage, stage)
	}
	if stage != StageError && stage < t.stage {
		t.mu.Unlock()
		return fmt.Errorf("cannot move backward from '%s' to '%s'", t.stage, stage)
	}

	t.stage = stage
	t.display = Apply(t.display, patch)

	progressSinks := append([]ProgressSink(nil), t.progressSinks...)
	displaySinks := append([]DisplaySink(nil), t.displaySinks...)
	t.mu.Unlock()

	for _, sink := range progressSinks {
		sink.OnProgress(stage)
	}
	for _, sink := range displaySinks {
		sink.OnDisplay(patch)
	}

	return nil
}

// Fail jumps to the terminal error stage with the given message.
func (t *Tracker) Fail(message string) error {
	return t.Advance(StageError, Patch{Err: Str(message), Message: Str(message)})
}

// Stage returns the current stage.
func (t *Tracker) Stage() Stage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stage
}

// Display returns a copy of the current display state.
func (t *Tracker) Display() Display {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.display
}

// Reset returns a terminal tracker to StageForm for a new request. It is a
// no-op while a withdrawal is still in flight.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.stage.Terminal() && t.stage != StageNone {
		return
	}
	t.stage = StageForm
	t.display = Display{}
}
