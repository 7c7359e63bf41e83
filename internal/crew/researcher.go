package crew

import (
	"context"
	"fmt"

	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

const researchPrompt = `You are a market research analyst. Research this business idea.

Title: %s
Description: %s

Identify existing competitors, the market size and opportunity, key challenges and a
recommended positioning. Respond only with JSON:
{"competitors":[{"name":"","description":"","strengths":"","weaknesses":""}],
 "market_analysis":{"market_size":"","growth_potential":"High|Medium|Low","key_challenges":[],"opportunities":[]},
 "recommendations":{"positioning":"","differentiation":"","target_audience":""}}`

// Researcher produces competitive and market research for an idea.
type Researcher struct {
	agent
}

// NewResearcher creates a researcher.
func NewResearcher(completer Completer, log zerolog.Logger) *Researcher {
	return &Researcher{agent: newAgent("Research Agent", completer, log)}
}

// Research returns research data for idea.
func (r *Researcher) Research(ctx context.Context, idea domain.Idea) (*domain.ResearchData, error) {
	var data domain.ResearchData
	err := r.ask(ctx, fmt.Sprintf(researchPrompt, idea.Title, idea.Description), &data)
	if err == nil {
		data.Fallback = false
		r.log.Info().Str("idea", idea.Title).Int("competitors", len(data.Competitors)).Msg("Research completed")
		return &data, nil
	}
	if err := r.degrade(ctx, err, "research"); err != nil {
		return nil, err
	}
	return FallbackResearch(), nil
}

// FallbackResearch is the research used when the model cannot help.
func FallbackResearch() *domain.ResearchData {
	return &domain.ResearchData{
		Competitors: []domain.Competitor{
			{
				Name:        "Competitor 1",
				Description: "Leading competitor in the market",
				Strengths:   "Strong market presence",
				Weaknesses:  "Limited innovation",
			},
			{
				Name:        "Competitor 2",
				Description: "Emerging competitor",
				Strengths:   "Innovative approach",
				Weaknesses:  "Small market share",
			},
		},
		MarketAnalysis: domain.MarketAnalysis{
			MarketSize:      "Large and growing market",
			GrowthPotential: "High",
			KeyChallenges:   []string{"Market competition", "Regulatory requirements"},
			Opportunities:   []string{"Growing demand", "Technology advancement"},
		},
		Recommendations: domain.Recommendations{
			Positioning:     "Innovative and user-focused solution",
			Differentiation: "Unique value proposition",
			TargetAudience:  "Primary target market",
		},
		Fallback: true,
	}
}
