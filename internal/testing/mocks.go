package testing

import (
	"sync"
	"time"

	"github.com/aristath/foundry/internal/events"
)

// RecordingEmitter captures typed events instead of publishing them.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []events.EventData
}

// NewRecordingEmitter creates an empty recorder.
func NewRecordingEmitter() *RecordingEmitter {
	return &RecordingEmitter{}
}

// EmitTyped records data.
func (r *RecordingEmitter) EmitTyped(_ string, data events.EventData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
}

// Types returns the recorded event types in emission order.
func (r *RecordingEmitter) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.EventType()
	}
	return types
}

// Events returns a copy of the recorded payloads.
func (r *RecordingEmitter) Events() []events.EventData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.EventData(nil), r.events...)
}

// RecordingWaker records requested processor wakeups.
type RecordingWaker struct {
	mu     sync.Mutex
	delays []time.Duration
}

// TriggerAfter records d.
func (w *RecordingWaker) TriggerAfter(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delays = append(w.delays, d)
}

// Delays returns the recorded delays.
func (w *RecordingWaker) Delays() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}
