package crew

import (
	"context"
	"fmt"

	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

const technicalPrompt = `You are a CTO. Plan how to build this product.

Idea: %s
Product: %s
Marketing: %s

Respond only with JSON:
{"architecture":"","tech_stack":[],"milestones":[],"risks":[]}`

// CTO produces the technical strategy.
type CTO struct {
	agent
}

// NewCTO creates a CTO.
func NewCTO(completer Completer, log zerolog.Logger) *CTO {
	return &CTO{agent: newAgent("CTO Agent", completer, log)}
}

// TechnicalStrategy returns the build plan for product.
func (c *CTO) TechnicalStrategy(ctx context.Context, idea domain.Idea, product *domain.ProductData, marketing *domain.MarketingStrategy) (*domain.TechnicalStrategy, error) {
	var data domain.TechnicalStrategy
	err := c.ask(ctx, fmt.Sprintf(technicalPrompt, idea.Title, toJSON(product), toJSON(marketing)), &data)
	if err == nil {
		data.Fallback = false
		c.log.Info().Str("idea", idea.Title).Int("milestones", len(data.Milestones)).Msg("Technical strategy completed")
		return &data, nil
	}
	if err := c.degrade(ctx, err, "technical strategy"); err != nil {
		return nil, err
	}
	return FallbackTechnicalStrategy(), nil
}

// FallbackTechnicalStrategy is the plan used when the model cannot help.
func FallbackTechnicalStrategy() *domain.TechnicalStrategy {
	return &domain.TechnicalStrategy{
		Architecture: "Modern web architecture",
		TechStack:    []string{"React", "Node.js", "PostgreSQL"},
		Milestones:   []string{"MVP in 3 months", "Public launch in 6 months"},
		Risks:        []string{"Scope creep", "Hiring"},
		Fallback:     true,
	}
}
