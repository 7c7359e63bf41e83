package work

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// WorkTimeout is the default maximum duration a work item can run before being cancelled.
const WorkTimeout = 7 * time.Minute

// MaxRetries is the retry budget used when a work type asks for the default.
const MaxRetries = 3

// Retry backoff bounds
const (
	retryBaseDelay = time.Second
	retryMaxDelay  = time.Minute
)

// Priority defines the execution priority of work types.
type Priority int

const (
	// PriorityLow is for housekeeping (checkpoints, backups).
	PriorityLow Priority = iota
	// PriorityMedium is for regular pipeline work.
	PriorityMedium
	// PriorityHigh is for work users are waiting on.
	PriorityHigh
	// PriorityCritical is for launches.
	PriorityCritical
)

// String returns a human-readable name for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// WorkType defines a type of work that can be executed.
// Work types are registered once and can generate multiple work items.
type WorkType struct {
	// ID is the unique identifier for this work type (e.g., "agent:launch").
	ID string

	// Description is shown by the work types route.
	Description string

	// Interval is the minimum time between runs of the same subject (0 = no limit).
	Interval time.Duration

	// Priority determines execution order when multiple work items are eligible.
	Priority Priority

	// MaxRetries is how often a failed item is retried. Negative means none.
	MaxRetries int

	// FindSubjects returns subjects that need this work: agent or company ids,
	// or "" for global work. nil FindSubjects makes the type on-demand only.
	FindSubjects func(ctx context.Context) ([]string, error)

	// Execute performs the work for a given subject.
	Execute func(ctx context.Context, subject string, progress *ProgressReporter) error
}

// retryBudget resolves MaxRetries.
func (wt *WorkType) retryBudget() int {
	if wt.MaxRetries < 0 {
		return 0
	}
	return wt.MaxRetries
}

// WorkItem represents a specific unit of work to be executed.
type WorkItem struct {
	// ID is the full work ID including subject (e.g., "agent:launch:42").
	ID string

	// TypeID is the work type ID (e.g., "agent:launch").
	TypeID string

	// Subject is the agent or company id, empty for global work.
	Subject string

	// Retries is the number of times this item has been retried.
	Retries int

	// CreatedAt is when this work item was created.
	CreatedAt time.Time
}

// NewWorkItem creates a new work item from a work type and subject.
func NewWorkItem(workType *WorkType, subject string) *WorkItem {
	return &WorkItem{
		ID:        makeKey(workType.ID, subject),
		TypeID:    workType.ID,
		Subject:   subject,
		CreatedAt: time.Now(),
	}
}

// ParseWorkID extracts the work type ID and subject from a full work ID.
// Type IDs have exactly one colon, so "workflow:research:7" returns
// ("workflow:research", "7") and "maintenance:backup" returns it unchanged.
func ParseWorkID(id string) (typeID string, subject string) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 3 {
		return id, ""
	}
	return parts[0] + ":" + parts[1], parts[2]
}

// makeKey creates a unique key for a work type and subject combination.
func makeKey(typeID, subject string) string {
	if subject == "" {
		return typeID
	}
	return typeID + ":" + subject
}

// retryDelay is the backoff before retry number n (1-based).
func retryDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := retryBaseDelay << uint(n-1)
	if d <= 0 || d > retryMaxDelay {
		return retryMaxDelay
	}
	return d
}

// UnknownWorkTypeError is returned for IDs that are not registered.
type UnknownWorkTypeError struct {
	ID string
}

func (e *UnknownWorkTypeError) Error() string {
	return fmt.Sprintf("unknown work type: %s", e.ID)
}
