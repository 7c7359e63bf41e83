package crew

import (
	"context"
	"fmt"

	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

const productPrompt = `You are a product manager. Turn this idea and research into a product concept.

Idea: %s
Description: %s
Research: %s

Respond only with JSON:
{"product_name":"","tagline":"","description":"","target_users":"","core_features":[],"revenue_model":""}`

// ProductManager turns research into a product development report.
type ProductManager struct {
	agent
}

// NewProductManager creates a product manager.
func NewProductManager(completer Completer, log zerolog.Logger) *ProductManager {
	return &ProductManager{agent: newAgent("Product Agent", completer, log)}
}

// DesignProduct returns the product concept for idea. research may be nil.
func (p *ProductManager) DesignProduct(ctx context.Context, idea domain.Idea, research *domain.ResearchData) (*domain.ProductData, error) {
	var data domain.ProductData
	err := p.ask(ctx, fmt.Sprintf(productPrompt, idea.Title, idea.Description, toJSON(research)), &data)
	if err == nil {
		data.Fallback = false
		p.log.Info().Str("product", data.ProductName).Msg("Product concept completed")
		return &data, nil
	}
	if err := p.degrade(ctx, err, "product concept"); err != nil {
		return nil, err
	}
	return FallbackProduct(idea), nil
}

// FallbackProduct derives a minimal product concept from the idea itself.
func FallbackProduct(idea domain.Idea) *domain.ProductData {
	return &domain.ProductData{
		ProductName:  idea.Title,
		Tagline:      "Innovative solution for modern problems",
		Description:  idea.Description,
		TargetUsers:  "Early adopters",
		CoreFeatures: []string{"Core functionality", "User-friendly design"},
		RevenueModel: "Subscription",
		Fallback:     true,
	}
}
