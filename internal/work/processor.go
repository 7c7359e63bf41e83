package work

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// findTimeout bounds one scan of every work type's subjects.
const findTimeout = 30 * time.Second

// attempt tracks failures of one work item between successes.
type attempt struct {
	retries   int
	notBefore time.Time
	gaveUp    bool
}

// Processor is the main work processor that executes work items.
// It processes one work item at a time, highest priority first.
type Processor struct {
	registry   *Registry
	completion *CompletionTracker
	emitter    EventEmitter
	timeout    time.Duration
	log        zerolog.Logger

	trigger  chan struct{}
	done     chan struct{}
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	requested []*WorkItem
	attempts  map[string]*attempt
	inFlight  map[string]bool
	mu        sync.Mutex
}

// NewProcessor creates a new work processor. emitter may be nil.
// A zero timeout uses WorkTimeout.
func NewProcessor(registry *Registry, completion *CompletionTracker, emitter EventEmitter, timeout time.Duration, log zerolog.Logger) *Processor {
	if timeout <= 0 {
		timeout = WorkTimeout
	}
	return &Processor{
		registry:   registry,
		completion: completion,
		emitter:    emitter,
		timeout:    timeout,
		log:        log.With().Str("component", "work_processor").Logger(),
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		attempts:   make(map[string]*attempt),
		inFlight:   make(map[string]bool),
	}
}

// Run starts the processor loop. This blocks until Stop() is called.
func (p *Processor) Run() {
	defer close(p.stopped)

	for {
		select {
		case <-p.stop:
			return
		case <-p.trigger:
			p.processOne()
		case <-p.done:
			p.processOne()
		}
	}
}

// Stop stops the loop and waits for it to exit. An item already executing
// finishes on its own goroutine.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.stopped
}

// Trigger wakes up the processor to check for work.
// This is non-blocking and can be called from any goroutine.
func (p *Processor) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
		// Trigger already pending
	}
}

// TriggerAfter wakes the processor once d has passed.
func (p *Processor) TriggerAfter(d time.Duration) {
	if d <= 0 {
		p.Trigger()
		return
	}
	time.AfterFunc(d, p.Trigger)
}

// Enqueue queues an on-demand run of a work type with a fresh retry budget.
func (p *Processor) Enqueue(typeID, subject string) error {
	wt := p.registry.Get(typeID)
	if wt == nil {
		return &UnknownWorkTypeError{ID: typeID}
	}

	item := NewWorkItem(wt, subject)

	p.mu.Lock()
	delete(p.attempts, item.ID)
	queued := false
	for _, q := range p.requested {
		if q.ID == item.ID {
			queued = true
			break
		}
	}
	if !queued {
		p.requested = append(p.requested, item)
	}
	p.mu.Unlock()

	p.Trigger()
	return nil
}

// ExecuteNow runs a work item synchronously, bypassing intervals and backoff.
// Used for manual runs through the API.
func (p *Processor) ExecuteNow(ctx context.Context, typeID, subject string) error {
	wt := p.registry.Get(typeID)
	if wt == nil {
		return &UnknownWorkTypeError{ID: typeID}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	item := NewWorkItem(wt, subject)
	progress := NewProgressReporter(p.emitter, item)
	progress.started()

	start := time.Now()
	err := wt.Execute(ctx, subject, progress)
	duration := time.Since(start)
	if err != nil {
		progress.failed(err, duration, false)
		return err
	}

	p.mu.Lock()
	delete(p.attempts, item.ID)
	p.mu.Unlock()

	p.completion.MarkCompleted(item, duration)
	progress.completed(duration)
	return nil
}

// processOne finds and starts the next eligible work item.
func (p *Processor) processOne() {
	p.mu.Lock()
	busy := len(p.inFlight) > 0
	p.mu.Unlock()
	if busy {
		return
	}

	item, wt := p.findNextWork()
	if item == nil {
		item, wt = p.popRequested()
	}
	if item == nil {
		return
	}

	p.mu.Lock()
	p.inFlight[item.ID] = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.inFlight, item.ID)
			p.mu.Unlock()

			select {
			case p.done <- struct{}{}:
			default:
			}
		}()

		p.execute(item, wt)
	}()
}

func (p *Processor) execute(item *WorkItem, wt *WorkType) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	progress := NewProgressReporter(p.emitter, item)
	progress.started()
	p.log.Debug().Str("work", item.ID).Int("retries", item.Retries).Msg("Work started")

	start := time.Now()
	err := wt.Execute(ctx, item.Subject, progress)
	duration := time.Since(start)

	if err == nil {
		p.mu.Lock()
		delete(p.attempts, item.ID)
		p.mu.Unlock()

		p.completion.MarkCompleted(item, duration)
		progress.completed(duration)
		p.log.Debug().Str("work", item.ID).Dur("duration", duration).Msg("Work completed")
		return
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.log.Error().Str("work", item.ID).Dur("timeout", p.timeout).Msg("Work timed out")
	} else {
		p.log.Error().Err(err).Str("work", item.ID).Msg("Work failed")
	}

	willRetry := p.recordFailure(item, wt)
	progress.failed(err, duration, willRetry)
}

// recordFailure books a failed run and schedules its retry if the budget allows.
func (p *Processor) recordFailure(item *WorkItem, wt *WorkType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if item.Retries >= wt.retryBudget() {
		p.attempts[item.ID] = &attempt{retries: item.Retries, gaveUp: true}
		p.log.Warn().Str("work", item.ID).Int("retries", item.Retries).Msg("Max retries reached, skipping")
		return false
	}

	item.Retries++
	delay := retryDelay(item.Retries)
	p.attempts[item.ID] = &attempt{retries: item.Retries, notBefore: time.Now().Add(delay)}
	if wt.FindSubjects == nil {
		p.requested = append(p.requested, item)
	}
	time.AfterFunc(delay, p.Trigger)
	return true
}

// eligible reports whether key is out of backoff. Must be called with p.mu held.
func (p *Processor) eligible(key string, now time.Time) (retries int, ok bool) {
	att := p.attempts[key]
	if att == nil {
		return 0, true
	}
	if att.gaveUp || now.Before(att.notBefore) {
		return att.retries, false
	}
	return att.retries, true
}

// findNextWork scans every work type for a due subject.
func (p *Processor) findNextWork() (*WorkItem, *WorkType) {
	ctx, cancel := context.WithTimeout(context.Background(), findTimeout)
	defer cancel()

	for _, wt := range p.registry.ByPriority() {
		if wt.FindSubjects == nil {
			continue
		}

		subjects, err := wt.FindSubjects(ctx)
		if err != nil {
			p.log.Error().Err(err).Str("work_type", wt.ID).Msg("Failed to find subjects")
			continue
		}

		for _, subject := range subjects {
			if wt.Interval > 0 && !p.completion.IsStale(wt.ID, subject, wt.Interval) {
				continue
			}

			key := makeKey(wt.ID, subject)
			p.mu.Lock()
			retries, ok := p.eligible(key, time.Now())
			p.mu.Unlock()
			if !ok {
				continue
			}

			item := NewWorkItem(wt, subject)
			item.Retries = retries
			return item, wt
		}
	}

	return nil, nil
}

// popRequested removes and returns the first requested item out of backoff.
func (p *Processor) popRequested() (*WorkItem, *WorkType) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for i, item := range p.requested {
		wt := p.registry.Get(item.TypeID)
		if wt == nil {
			continue
		}
		if _, ok := p.eligible(item.ID, now); !ok {
			continue
		}
		p.requested = append(p.requested[:i:i], p.requested[i+1:]...)
		return item, wt
	}
	return nil, nil
}

// Status is a snapshot of the processor's queues.
type Status struct {
	Running   []string `json:"running"`
	Requested int      `json:"requested"`
	Backoff   []string `json:"backoff"`
	GaveUp    []string `json:"gave_up"`
}

// Status returns a snapshot for the status route.
func (p *Processor) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Status{
		Running:   make([]string, 0, len(p.inFlight)),
		Requested: len(p.requested),
		Backoff:   []string{},
		GaveUp:    []string{},
	}
	for id := range p.inFlight {
		s.Running = append(s.Running, id)
	}
	for id, att := range p.attempts {
		if att.gaveUp {
			s.GaveUp = append(s.GaveUp, id)
		} else {
			s.Backoff = append(s.Backoff, id)
		}
	}
	sort.Strings(s.Running)
	sort.Strings(s.Backoff)
	sort.Strings(s.GaveUp)
	return s
}
