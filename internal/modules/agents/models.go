// Package agents manages CEO agents and the token sale that precedes their launch.
package agents

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Defaults applied when an agent is created without explicit values.
const (
	DefaultTotalTokens    = 100
	DefaultPricePerToken  = 5.0
	DefaultLaunchTimeline = 10 // minutes

	// MaxLaunchTimeline is one hundred years in minutes.
	MaxLaunchTimeline = 100 * 365 * 24 * 60
)

var (
	// ErrAgentNotFound is returned when no agent exists for an id.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrDuplicateSymbol is returned when a token symbol is already taken.
	ErrDuplicateSymbol = errors.New("token symbol already exists")
)

// InsufficientTokensError is returned when a purchase exceeds the remaining supply.
type InsufficientTokensError struct {
	Available int
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("not enough tokens available: %d left", e.Available)
}

// ValidationError reports a malformed request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Agent is a pending tokenized company proposal awaiting its scheduled launch.
type Agent struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	CompanyIdea        string  `json:"company_idea"`
	Description        string  `json:"description"`
	CEOCharacteristics string  `json:"ceo_characteristics"`
	CreatorWallet      string  `json:"creator_wallet,omitempty"`
	TokenSymbol        string  `json:"token_symbol"`
	TotalTokens        int     `json:"total_tokens"`
	TokensAvailable    int     `json:"tokens_available"`
	PricePerToken      float64 `json:"price_per_token"`
	Status             string  `json:"status"`
	LaunchTimeline     int     `json:"launch_timeline"`
	LaunchDate         *int64  `json:"launch_date"`
	TimeDuration       int     `json:"time_duration"`
	CreatedAt          int64   `json:"created_at"`
	UpdatedAt          int64   `json:"updated_at"`
}

// CreateAgentRequest is the payload for creating an agent.
// Pointer fields distinguish "not provided" from zero; a zero launch
// timeline schedules the launch immediately.
type CreateAgentRequest struct {
	Name               string   `json:"name"`
	CompanyIdea        string   `json:"company_idea"`
	Description        string   `json:"description"`
	CEOCharacteristics string   `json:"ceo_characteristics"`
	CreatorWallet      string   `json:"creator_wallet"`
	TokenSymbol        string   `json:"token_symbol"`
	TotalTokens        *int     `json:"total_tokens"`
	PricePerToken      *float64 `json:"price_per_token"`
	LaunchTimeline     *int     `json:"launch_timeline"`
	TimeDuration       *int     `json:"time_duration"`
}

// Validate checks required fields and numeric ranges.
func (r CreateAgentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" ||
		strings.TrimSpace(r.CompanyIdea) == "" ||
		strings.TrimSpace(r.Description) == "" ||
		strings.TrimSpace(r.CEOCharacteristics) == "" ||
		strings.TrimSpace(r.TokenSymbol) == "" {
		return &ValidationError{Message: "Missing required fields: name, company_idea, description, ceo_characteristics, token_symbol"}
	}
	if r.TotalTokens != nil && *r.TotalTokens <= 0 {
		return &ValidationError{Message: "total_tokens must be positive"}
	}
	if r.PricePerToken != nil && *r.PricePerToken < 0 {
		return &ValidationError{Message: "price_per_token must not be negative"}
	}
	if r.LaunchTimeline != nil && *r.LaunchTimeline < 0 {
		return &ValidationError{Message: "launch_timeline must not be negative"}
	}
	if r.LaunchTimeline != nil && *r.LaunchTimeline > MaxLaunchTimeline {
		return &ValidationError{Message: fmt.Sprintf("launch_timeline must not exceed %d minutes", MaxLaunchTimeline)}
	}
	return nil
}

// ToAgent applies defaults and computes the launch date relative to now.
func (r CreateAgentRequest) ToAgent(now time.Time) Agent {
	totalTokens := DefaultTotalTokens
	if r.TotalTokens != nil {
		totalTokens = *r.TotalTokens
	}
	price := DefaultPricePerToken
	if r.PricePerToken != nil {
		price = *r.PricePerToken
	}
	timeline := DefaultLaunchTimeline
	if r.LaunchTimeline != nil {
		timeline = *r.LaunchTimeline
	}
	duration := timeline
	if r.TimeDuration != nil {
		duration = *r.TimeDuration
	}

	launchDate := now.Add(time.Duration(timeline) * time.Minute).Unix()

	return Agent{
		Name:               strings.TrimSpace(r.Name),
		CompanyIdea:        strings.TrimSpace(r.CompanyIdea),
		Description:        strings.TrimSpace(r.Description),
		CEOCharacteristics: strings.TrimSpace(r.CEOCharacteristics),
		CreatorWallet:      strings.TrimSpace(r.CreatorWallet),
		TokenSymbol:        strings.ToUpper(strings.TrimSpace(r.TokenSymbol)),
		TotalTokens:        totalTokens,
		TokensAvailable:    totalTokens,
		PricePerToken:      price,
		Status:             "available",
		LaunchTimeline:     timeline,
		LaunchDate:         &launchDate,
		TimeDuration:       duration,
	}
}

// BuyTokensRequest is the payload for a token purchase.
type BuyTokensRequest struct {
	UserWallet  string `json:"user_wallet"`
	TokensToBuy int    `json:"tokens_to_buy"`
}

// Validate checks the purchase request.
func (r BuyTokensRequest) Validate() error {
	if strings.TrimSpace(r.UserWallet) == "" {
		return &ValidationError{Message: "user_wallet is required"}
	}
	if r.TokensToBuy <= 0 {
		return &ValidationError{Message: "tokens_to_buy must be a positive integer"}
	}
	return nil
}

// Holding is one append-only purchase record.
type Holding struct {
	ID            int64   `json:"id"`
	UserWallet    string  `json:"user_wallet"`
	CEOAgentID    int64   `json:"ceo_agent_id"`
	TokensOwned   int     `json:"tokens_owned"`
	PurchasePrice float64 `json:"purchase_price"`
	PurchaseDate  int64   `json:"purchase_date"`
}

// Purchase summarizes a completed token purchase.
type Purchase struct {
	TokensBought    int     `json:"tokens_bought"`
	PricePerToken   float64 `json:"price_per_token"`
	TotalCost       float64 `json:"total_cost"`
	AgentName       string  `json:"agent_name"`
	TokensAvailable int     `json:"-"`
}
