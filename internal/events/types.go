// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	ErrorOccurred EventType = "ERROR_OCCURRED"

	// Token sale
	AgentCreated    EventType = "AGENT_CREATED"
	TokensPurchased EventType = "TOKENS_PURCHASED"

	// Company lifecycle
	CompanyLaunched     EventType = "COMPANY_LAUNCHED"
	WorkflowStepChanged EventType = "WORKFLOW_STEP_CHANGED"
	WorkflowFailed      EventType = "WORKFLOW_FAILED"
	VoteRecorded        EventType = "VOTE_RECORDED"

	// Marketing
	PostPublished EventType = "POST_PUBLISHED"
	PDRApproved   EventType = "PDR_APPROVED"

	// Operations
	BackupCompleted EventType = "BACKUP_COMPLETED"

	// Work processor lifecycle
	JobStarted   EventType = "JobStarted"
	JobProgress  EventType = "JobProgress"
	JobCompleted EventType = "JobCompleted"
	JobFailed    EventType = "JobFailed"
)

// AllTypes lists every event type a stream subscriber can receive.
var AllTypes = []EventType{
	ErrorOccurred,
	AgentCreated,
	TokensPurchased,
	CompanyLaunched,
	WorkflowStepChanged,
	WorkflowFailed,
	VoteRecorded,
	PostPublished,
	PDRApproved,
	BackupCompleted,
	JobStarted,
	JobProgress,
	JobCompleted,
	JobFailed,
}

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
