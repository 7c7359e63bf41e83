// Package domain holds the typed payloads that flow between workflow stages.
//
// Each payload is persisted as JSON in the workflow state and validated on the
// way in and out of storage, so a malformed blob never reaches a stage.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPayload is wrapped by every Validate failure.
var ErrInvalidPayload = errors.New("invalid stage payload")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}

// Idea is the business idea a company pursues. It is derived from the company
// row when the pipeline runs and supplied directly for PDRs.
type Idea struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	PotentialRevenue string `json:"potential_revenue,omitempty"`
	Status           string `json:"status,omitempty"`
}

// Validate requires a title.
func (i Idea) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return invalid("idea title is required")
	}
	return nil
}

// Competitor is one entry of the research stage's competitive landscape.
type Competitor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Strengths   string `json:"strengths"`
	Weaknesses  string `json:"weaknesses"`
}

// MarketAnalysis summarizes the market the idea targets.
type MarketAnalysis struct {
	MarketSize      string   `json:"market_size"`
	GrowthPotential string   `json:"growth_potential"`
	KeyChallenges   []string `json:"key_challenges"`
	Opportunities   []string `json:"opportunities"`
}

// Recommendations is the research stage's positioning advice.
type Recommendations struct {
	Positioning     string `json:"positioning"`
	Differentiation string `json:"differentiation"`
	TargetAudience  string `json:"target_audience"`
}

// ResearchData is the output of the research stage.
type ResearchData struct {
	Competitors     []Competitor    `json:"competitors"`
	MarketAnalysis  MarketAnalysis  `json:"market_analysis"`
	Recommendations Recommendations `json:"recommendations"`
	Fallback        bool            `json:"fallback"`
}

// Validate requires some market content.
func (r *ResearchData) Validate() error {
	if r == nil {
		return invalid("research data is missing")
	}
	if len(r.Competitors) == 0 && r.MarketAnalysis.MarketSize == "" {
		return invalid("research data has neither competitors nor market analysis")
	}
	for i, c := range r.Competitors {
		if strings.TrimSpace(c.Name) == "" {
			return invalid("competitor %d has no name", i)
		}
	}
	return nil
}

// ProductData is the output of the product stage: the product development report.
type ProductData struct {
	ProductName  string   `json:"product_name"`
	Tagline      string   `json:"tagline"`
	Description  string   `json:"description"`
	TargetUsers  string   `json:"target_users"`
	CoreFeatures []string `json:"core_features"`
	RevenueModel string   `json:"revenue_model"`
	Fallback     bool     `json:"fallback"`
}

// Validate requires a product name.
func (p *ProductData) Validate() error {
	if p == nil {
		return invalid("product data is missing")
	}
	if strings.TrimSpace(p.ProductName) == "" {
		return invalid("product name is required")
	}
	return nil
}

// PostResult records one social post attempt made during marketing.
type PostResult struct {
	Platform  string `json:"platform"`
	PostID    int64  `json:"post_id,omitempty"`
	RemoteID  string `json:"remote_id,omitempty"`
	Success   bool   `json:"success"`
	Simulated bool   `json:"simulated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MarketingStrategy is the CMO's output plus the posts it published.
type MarketingStrategy struct {
	BrandPositioning  string       `json:"brand_positioning"`
	KeyMessages       []string     `json:"key_messages"`
	MarketingChannels []string     `json:"marketing_channels"`
	PostTextTwitter   string       `json:"post_text_twitter"`
	PostTextLinkedIn  string       `json:"post_text_linkedin"`
	Posts             []PostResult `json:"posts,omitempty"`
	Fallback          bool         `json:"fallback"`
}

// Validate requires a positioning statement.
func (m *MarketingStrategy) Validate() error {
	if m == nil {
		return invalid("marketing strategy is missing")
	}
	if strings.TrimSpace(m.BrandPositioning) == "" {
		return invalid("brand positioning is required")
	}
	return nil
}

// TechnicalStrategy is the CTO's output.
type TechnicalStrategy struct {
	Architecture string   `json:"architecture"`
	TechStack    []string `json:"tech_stack"`
	Milestones   []string `json:"milestones"`
	Risks        []string `json:"risks"`
	Fallback     bool     `json:"fallback"`
}

// Validate requires an architecture summary.
func (t *TechnicalStrategy) Validate() error {
	if t == nil {
		return invalid("technical strategy is missing")
	}
	if strings.TrimSpace(t.Architecture) == "" {
		return invalid("architecture is required")
	}
	return nil
}

// BoltPrompt is the website brief handed to engineering.
type BoltPrompt struct {
	WebsiteTitle           string   `json:"website_title"`
	WebsiteDescription     string   `json:"website_description"`
	PagesRequired          []string `json:"pages_required"`
	FunctionalRequirements []string `json:"functional_requirements"`
	DesignGuidelines       string   `json:"design_guidelines"`
	IntegrationNeeds       string   `json:"integration_needs"`
	Prompt                 string   `json:"bolt_prompt"`
	Fallback               bool     `json:"fallback"`
}

// Validate requires a title and the prompt text.
func (b *BoltPrompt) Validate() error {
	if b == nil {
		return invalid("bolt prompt is missing")
	}
	if strings.TrimSpace(b.WebsiteTitle) == "" {
		return invalid("website title is required")
	}
	if strings.TrimSpace(b.Prompt) == "" {
		return invalid("prompt text is required")
	}
	return nil
}

// MarketingInput is what a marketing run needs.
type MarketingInput struct {
	Idea     Idea
	Product  *ProductData
	Research *ResearchData
	Publish  bool
	LinkID   *int64 // PDR id recorded on the posts, if any
}
