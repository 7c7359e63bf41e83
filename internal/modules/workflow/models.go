// Package workflow implements the company pipeline state machine:
// research → product → voting → approved|rejected → engineering → complete,
// with an orthogonal error status.
package workflow

import (
	"errors"

	"github.com/aristath/foundry/internal/domain"
)

// Step is a named stage in the company pipeline.
type Step string

const (
	StepResearch    Step = "research"
	StepProduct     Step = "product"
	StepVoting      Step = "voting"
	StepApproved    Step = "approved"
	StepRejected    Step = "rejected"
	StepEngineering Step = "engineering"
	StepComplete    Step = "complete"
)

// Status is orthogonal to the step: only active workflows advance automatically.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusError     Status = "error"
	StatusCompleted Status = "completed"
)

// VoteType for the product approval gate.
const VoteTypeProductApproval = "product_approval"

// Vote values.
const (
	VoteApprove = "approve"
	VoteReject  = "reject"
)

var (
	// ErrWorkflowNotFound is returned when a company has no workflow state.
	ErrWorkflowNotFound = errors.New("workflow state not found")
	// ErrInvalidVote is returned for votes other than approve or reject.
	ErrInvalidVote = errors.New("invalid vote")
	// ErrNotVoting is returned when a vote arrives outside the voting step.
	ErrNotVoting = errors.New("workflow is not awaiting a vote")
	// ErrStepConflict is returned when a conditional transition loses a race.
	ErrStepConflict = errors.New("workflow step changed concurrently")
)

// State is the persisted cursor and accumulated output of one company's pipeline.
type State struct {
	ID                int64                     `json:"id"`
	CompanyID         int64                     `json:"company_id"`
	CurrentStep       Step                      `json:"current_step"`
	Status            Status                    `json:"status"`
	ResearchData      *domain.ResearchData      `json:"research_data"`
	ProductData       *domain.ProductData       `json:"product_data"`
	MarketingStrategy *domain.MarketingStrategy `json:"marketing_strategy"`
	TechnicalStrategy *domain.TechnicalStrategy `json:"technical_strategy"`
	ErrorMessage      string                    `json:"error_message,omitempty"`
	CreatedAt         int64                     `json:"created_at"`
	UpdatedAt         int64                     `json:"updated_at"`
}

// Vote is an append-only approval decision.
type Vote struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	VoteType  string `json:"vote_type"`
	Vote      string `json:"vote"`
	VoterID   string `json:"voter_id"`
	Feedback  string `json:"feedback"`
	CreatedAt int64  `json:"created_at"`
}

// VoteSummary is recomputed from the vote log on every read.
type VoteSummary struct {
	Approve int `json:"approve"`
	Reject  int `json:"reject"`
	Total   int `json:"total"`
}

// VoteRequest is an incoming vote.
type VoteRequest struct {
	Vote     string `json:"vote"`
	Feedback string `json:"feedback"`
	VoterID  string `json:"voterId"`
}

// VoteResult reports the transition a vote caused.
type VoteResult struct {
	Vote    Vote `json:"vote"`
	NewStep Step `json:"newStep"`
}

// Transition is a conditional step change plus the stage output it persists.
// Only non-nil payloads are written.
type Transition struct {
	CompanyID  int64
	From       Step
	To         Step
	Status     Status
	Research   *domain.ResearchData
	Product    *domain.ProductData
	Marketing  *domain.MarketingStrategy
	Technical  *domain.TechnicalStrategy
	BoltPrompt *domain.BoltPrompt
}

// fallback reports whether any payload in the transition is fallback content.
func (t Transition) fallback() bool {
	return (t.Research != nil && t.Research.Fallback) ||
		(t.Product != nil && t.Product.Fallback) ||
		(t.Marketing != nil && t.Marketing.Fallback) ||
		(t.Technical != nil && t.Technical.Fallback) ||
		(t.BoltPrompt != nil && t.BoltPrompt.Fallback)
}
