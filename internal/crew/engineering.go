package crew

import (
	"context"
	"fmt"

	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

const boltPrompt = `You are a head of engineering. Write a brief for an AI website builder.

Idea: %s
Product: %s

Respond only with JSON:
{"website_title":"","website_description":"","pages_required":[],"functional_requirements":[],
 "design_guidelines":"","integration_needs":"","bolt_prompt":""}`

// HeadOfEngineering writes the website brief handed to the builder.
type HeadOfEngineering struct {
	agent
}

// NewHeadOfEngineering creates a head of engineering.
func NewHeadOfEngineering(completer Completer, log zerolog.Logger) *HeadOfEngineering {
	return &HeadOfEngineering{agent: newAgent("Head of Engineering", completer, log)}
}

// BoltPrompt returns the website brief for product. product may be nil.
func (h *HeadOfEngineering) BoltPrompt(ctx context.Context, idea domain.Idea, product *domain.ProductData) (*domain.BoltPrompt, error) {
	var data domain.BoltPrompt
	err := h.ask(ctx, fmt.Sprintf(boltPrompt, idea.Title, toJSON(product)), &data)
	if err == nil {
		data.Fallback = false
		h.log.Info().Str("title", data.WebsiteTitle).Msg("Bolt prompt completed")
		return &data, nil
	}
	if err := h.degrade(ctx, err, "bolt prompt"); err != nil {
		return nil, err
	}

	name := idea.Title
	if product != nil && product.ProductName != "" {
		name = product.ProductName
	}
	fallback := StaticBoltPrompt(name)
	fallback.Fallback = true
	return fallback, nil
}

// StaticBoltPrompt is the template brief for a product name.
func StaticBoltPrompt(productName string) *domain.BoltPrompt {
	return &domain.BoltPrompt{
		WebsiteTitle:           productName + " - Website",
		PagesRequired:          []string{"Home", "About", "Services", "Contact"},
		FunctionalRequirements: []string{"Responsive design", "Contact form", "SEO optimization"},
		Prompt:                 "Create a website for " + productName + " with modern design and user-friendly interface",
	}
}
