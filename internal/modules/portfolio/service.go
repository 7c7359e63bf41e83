package portfolio

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// HoldingsReader is the query the wallet summary needs. *Repository implements it.
type HoldingsReader interface {
	Holdings(ctx context.Context, wallet string) ([]HoldingRow, error)
}

// Service computes wallet summaries.
type Service struct {
	holdings HoldingsReader
	log      zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(holdings HoldingsReader, log zerolog.Logger) *Service {
	return &Service{
		holdings: holdings,
		log:      log.With().Str("service", "portfolio").Logger(),
	}
}

// WalletSummary aggregates a wallet's purchases into positions.
//
// Average and spread of purchase prices are weighted by tokens bought.
// Positions are valued at the issuer's current price, or at cost when the
// issuer no longer exists. Weights are shares of current value; the
// Herfindahl index is the sum of squared weights.
func (s *Service) WalletSummary(ctx context.Context, wallet string) (*WalletSummary, error) {
	wallet = strings.TrimSpace(wallet)
	rows, err := s.holdings.Holdings(ctx, wallet)
	if err != nil {
		return nil, err
	}

	summary := &WalletSummary{Wallet: wallet, Positions: []Position{}, Purchases: len(rows)}
	if len(rows) == 0 {
		return summary, nil
	}

	prices := make([]float64, 0, len(rows))
	weights := make([]float64, 0, len(rows))
	byAgent := make(map[int64]*Position)
	var order []int64

	for _, h := range rows {
		prices = append(prices, h.PurchasePrice)
		weights = append(weights, float64(h.TokensOwned))

		pos, ok := byAgent[h.AgentID]
		if !ok {
			pos = &Position{AgentID: h.AgentID}
			if h.TokenSymbol != nil {
				pos.TokenSymbol = *h.TokenSymbol
			}
			if h.AgentName != nil {
				pos.AgentName = *h.AgentName
			}
			if h.CurrentPrice != nil {
				pos.CurrentPrice = *h.CurrentPrice
			}
			byAgent[h.AgentID] = pos
			order = append(order, h.AgentID)
		}
		pos.Tokens += h.TokensOwned
		pos.Cost += float64(h.TokensOwned) * h.PurchasePrice

		summary.TotalTokens += h.TokensOwned
	}

	summary.AvgPurchasePrice = stat.Mean(prices, weights)
	if len(prices) > 1 {
		summary.PriceStdDev = stat.StdDev(prices, weights)
	}

	for _, id := range order {
		pos := byAgent[id]
		if pos.Tokens > 0 {
			pos.AvgPurchasePrice = pos.Cost / float64(pos.Tokens)
		}
		if pos.CurrentPrice == 0 {
			pos.CurrentPrice = pos.AvgPurchasePrice
		}
		pos.Value = float64(pos.Tokens) * pos.CurrentPrice
		summary.TotalCost += pos.Cost
		summary.CurrentValue += pos.Value
	}

	for _, id := range order {
		pos := byAgent[id]
		if summary.CurrentValue > 0 {
			pos.Weight = pos.Value / summary.CurrentValue
		}
		summary.Herfindahl += pos.Weight * pos.Weight
		if pos.Weight > summary.TopWeight {
			summary.TopWeight = pos.Weight
		}
		summary.Positions = append(summary.Positions, *pos)
	}

	sort.SliceStable(summary.Positions, func(i, j int) bool {
		return summary.Positions[i].Value > summary.Positions[j].Value
	})

	return summary, nil
}
