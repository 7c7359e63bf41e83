package crew

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

const strategyPrompt = `As a Chief Marketing Officer, develop a marketing strategy for this product.

Name: %s
Tagline: %s
Description: %s
Target users: %s
Market size: %s
Target audience: %s

Respond only with JSON:
{"brand_positioning":"","key_messages":[],"marketing_channels":[],"post_text_twitter":"","post_text_linkedin":""}`

const socialPrompt = `Given this marketing strategy, write a Twitter post (at most 280 characters)
and a LinkedIn post (at most 700 characters). Respond only with JSON
{"post_text_twitter":"...","post_text_linkedin":"..."}.

Strategy:
%s`

type socialDrafts struct {
	Twitter  string `json:"post_text_twitter"`
	LinkedIn string `json:"post_text_linkedin"`
}

func (s *socialDrafts) Validate() error {
	if strings.TrimSpace(s.Twitter) == "" && strings.TrimSpace(s.LinkedIn) == "" {
		return fmt.Errorf("%w: no social drafts", domain.ErrInvalidPayload)
	}
	return nil
}

// CMO develops marketing strategies and drafts their social posts.
type CMO struct {
	agent
}

// NewCMO creates a CMO.
func NewCMO(completer Completer, log zerolog.Logger) *CMO {
	return &CMO{agent: newAgent("CMO Agent", completer, log)}
}

// Name is the agent name recorded against activities and posts.
func (c *CMO) Name() string {
	return c.name
}

// Strategy returns a marketing strategy for product. A second model call fills
// in post texts the strategy left empty; its failure is not fatal.
func (c *CMO) Strategy(ctx context.Context, idea domain.Idea, product *domain.ProductData, research *domain.ResearchData) (*domain.MarketingStrategy, error) {
	if product == nil {
		product = FallbackProduct(idea)
	}

	var marketSize, audience string
	if research != nil {
		marketSize = research.MarketAnalysis.MarketSize
		audience = research.Recommendations.TargetAudience
	}

	var strategy domain.MarketingStrategy
	err := c.ask(ctx, fmt.Sprintf(strategyPrompt,
		product.ProductName, product.Tagline, product.Description, product.TargetUsers,
		orDefault(marketSize, "Not available"), orDefault(audience, "Not specified"),
	), &strategy)
	if err != nil {
		if err := c.degrade(ctx, err, "marketing strategy"); err != nil {
			return nil, err
		}
		return FallbackStrategy(product), nil
	}
	strategy.Fallback = false

	if strategy.PostTextTwitter == "" || strategy.PostTextLinkedIn == "" {
		var drafts socialDrafts
		if err := c.ask(ctx, fmt.Sprintf(socialPrompt, toJSON(strategy)), &drafts); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn().Err(err).Msg("Social draft generation failed")
		} else {
			strategy.PostTextTwitter = orDefault(strategy.PostTextTwitter, drafts.Twitter)
			strategy.PostTextLinkedIn = orDefault(strategy.PostTextLinkedIn, drafts.LinkedIn)
		}
	}

	c.log.Info().Str("product", product.ProductName).Int("channels", len(strategy.MarketingChannels)).Msg("Marketing strategy completed")
	return &strategy, nil
}

// FallbackStrategy is the strategy used when the model cannot help.
func FallbackStrategy(product *domain.ProductData) *domain.MarketingStrategy {
	return &domain.MarketingStrategy{
		BrandPositioning:  "Fallback positioning",
		KeyMessages:       []string{"Fallback message"},
		MarketingChannels: []string{},
		PostTextTwitter:   product.ProductName + " - coming soon!",
		PostTextLinkedIn:  "Launching " + product.ProductName + " - details coming soon.",
		Fallback:          true,
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
