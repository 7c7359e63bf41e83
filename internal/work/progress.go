package work

import (
	"sync"
	"time"
)

// EventEmitter publishes work lifecycle events. events.WorkEmitter implements it.
type EventEmitter interface {
	Emit(event string, data any)
}

// Event names for work lifecycle
const (
	EventJobStarted   = "JobStarted"
	EventJobProgress  = "JobProgress"
	EventJobCompleted = "JobCompleted"
	EventJobFailed    = "JobFailed"
)

// JobEvent is the payload of every work lifecycle event.
type JobEvent struct {
	WorkID     string `json:"work_id"`
	WorkType   string `json:"work_type"`
	Subject    string `json:"subject,omitempty"`
	Phase      string `json:"phase,omitempty"`
	Message    string `json:"message,omitempty"`
	Current    int    `json:"current,omitempty"`
	Total      int    `json:"total,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Retries    int    `json:"retries,omitempty"`
	WillRetry  bool   `json:"will_retry,omitempty"`
}

// progressThrottleInterval limits progress events per item.
const progressThrottleInterval = 100 * time.Millisecond

// ProgressReporter lets a running work item publish progress. A nil reporter
// or one without an emitter drops everything.
type ProgressReporter struct {
	emitter EventEmitter
	item    *WorkItem

	lastReport time.Time
	mu         sync.Mutex
}

// NewProgressReporter creates a progress reporter for a work item.
func NewProgressReporter(emitter EventEmitter, item *WorkItem) *ProgressReporter {
	return &ProgressReporter{emitter: emitter, item: item}
}

// Report publishes numeric progress. Calls closer together than the throttle
// interval are dropped.
func (r *ProgressReporter) Report(current, total int, message string) {
	r.progress(JobEvent{Current: current, Total: total, Message: message})
}

// ReportPhase publishes a named phase, subject to the same throttle as Report.
func (r *ProgressReporter) ReportPhase(phase, message string) {
	r.progress(JobEvent{Phase: phase, Message: message})
}

func (r *ProgressReporter) progress(ev JobEvent) {
	if r == nil || r.emitter == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastReport) < progressThrottleInterval {
		return
	}
	r.lastReport = time.Now()

	r.emit(EventJobProgress, ev)
}

func (r *ProgressReporter) started() {
	if r == nil || r.emitter == nil {
		return
	}
	r.emit(EventJobStarted, JobEvent{})
}

func (r *ProgressReporter) completed(duration time.Duration) {
	if r == nil || r.emitter == nil {
		return
	}
	r.emit(EventJobCompleted, JobEvent{DurationMS: duration.Milliseconds(), Retries: r.item.Retries})
}

func (r *ProgressReporter) failed(err error, duration time.Duration, willRetry bool) {
	if r == nil || r.emitter == nil {
		return
	}
	ev := JobEvent{DurationMS: duration.Milliseconds(), Retries: r.item.Retries, WillRetry: willRetry}
	if err != nil {
		ev.Error = err.Error()
	}
	r.emit(EventJobFailed, ev)
}

func (r *ProgressReporter) emit(name string, ev JobEvent) {
	ev.WorkID = r.item.ID
	ev.WorkType = r.item.TypeID
	ev.Subject = r.item.Subject
	r.emitter.Emit(name, ev)
}
