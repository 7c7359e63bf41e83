// Package companies turns launched agents into companies and serves company reads.
package companies

import "errors"

// StatusRunning is the status a company receives at launch.
const StatusRunning = "running"

var (
	// ErrAlreadyLaunched is returned when the agent has already become a company
	// or no longer exists.
	ErrAlreadyLaunched = errors.New("agent already launched")
	// ErrCompanyNotFound is returned when no company exists for an id.
	ErrCompanyNotFound = errors.New("company not found")
)

// Company is a launched agent progressing through the workflow pipeline.
// Agent fields are copied at launch because the agent row is deleted.
type Company struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	CEOAgentID         int64   `json:"ceo_agent_id"`
	Status             string  `json:"status"`
	CurrentRevenue     float64 `json:"current_revenue"`
	LaunchedDate       int64   `json:"launched_date"`
	CEOAgentName       string  `json:"ceo_agent_name"`
	TokenSymbol        string  `json:"token_symbol"`
	CompanyIdea        string  `json:"company_idea"`
	Description        string  `json:"description"`
	CEOCharacteristics string  `json:"ceo_characteristics"`
	TotalTokens        int     `json:"total_tokens"`
	PricePerToken      float64 `json:"price_per_token"`
	TimeDuration       int     `json:"time_duration"`
	CreatedAt          int64   `json:"created_at"`
	UpdatedAt          int64   `json:"updated_at"`
}
