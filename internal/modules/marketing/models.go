// Package marketing runs go-to-market for products: the CMO strategy, social
// posting and the product development reports (PDRs) approved outside the
// company workflow.
package marketing

import (
	"encoding/json"
	"errors"

	"github.com/aristath/foundry/internal/domain"
)

var (
	// ErrPDRNotFound is returned when a PDR id does not exist.
	ErrPDRNotFound = errors.New("pdr not found")
	// ErrPDRAlreadyApproved is returned when a PDR was approved before.
	ErrPDRAlreadyApproved = errors.New("pdr already approved")
)

// Post statuses
const (
	PostDraft     = "draft"
	PostPublished = "published"
	PostFailed    = "failed"
)

// PDR statuses
const (
	PDRDraft    = "draft"
	PDRApproved = "approved"
)

// Platforms posted to during a marketing run, in order.
const (
	PlatformTwitter  = "twitter"
	PlatformLinkedIn = "linkedin"
)

// Post is one social post attempt.
type Post struct {
	ID        int64           `json:"id"`
	IdeaID    *int64          `json:"idea_id"`
	AgentName string          `json:"agent_name"`
	Content   string          `json:"content"`
	Platforms []string        `json:"platforms"`
	MediaURLs []string        `json:"media_urls"`
	Status    string          `json:"status"`
	Response  json.RawMessage `json:"ayr_response,omitempty"`
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
}

// Activity is an entry in the agent activity log.
type Activity struct {
	ID        int64           `json:"id"`
	AgentName string          `json:"agent_name"`
	Activity  string          `json:"activity"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

// PDR is a stored product development report.
type PDR struct {
	ID                int64               `json:"id"`
	Idea              domain.Idea         `json:"idea"`
	Product           *domain.ProductData `json:"product"`
	Status            string              `json:"status"`
	ApprovedAt        *int64              `json:"approved_at"`
	MarketingPosted   bool                `json:"marketing_posted"`
	MarketingResponse json.RawMessage     `json:"marketing_response,omitempty"`
	CreatedAt         int64               `json:"created_at"`
	UpdatedAt         int64               `json:"updated_at"`
}

// StrategyRequest is the body of the marketing-strategy route.
// Publish defaults to true.
type StrategyRequest struct {
	Idea        *domain.Idea        `json:"idea"`
	ProductData *domain.ProductData `json:"productData"`
	Publish     *bool               `json:"publish"`
}

// Valid reports whether the request carries an idea and a product.
func (r StrategyRequest) Valid() bool {
	return r.Idea != nil && r.ProductData != nil
}

// ShouldPublish resolves the publish flag.
func (r StrategyRequest) ShouldPublish() bool {
	return r.Publish == nil || *r.Publish
}

// CreatePDRRequest is the body of the PDR create route.
type CreatePDRRequest struct {
	Idea    *domain.Idea        `json:"idea"`
	Product *domain.ProductData `json:"product"`
}

// BoltPromptRequest is the body of the static bolt-prompt route.
type BoltPromptRequest struct {
	Idea        *domain.Idea        `json:"idea"`
	ProductData *domain.ProductData `json:"productData"`
}

// ProductName picks the name the brief is written for.
func (r BoltPromptRequest) ProductName() string {
	if r.ProductData != nil && r.ProductData.ProductName != "" {
		return r.ProductData.ProductName
	}
	if r.Idea != nil && r.Idea.Title != "" {
		return r.Idea.Title
	}
	return "Your Product"
}

// Approval is the outcome of approving a PDR.
type Approval struct {
	Strategy *domain.MarketingStrategy
	Posts    []domain.PostResult
}
