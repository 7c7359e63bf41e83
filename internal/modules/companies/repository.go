package companies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// companyColumns must match scanCompany.
const companyColumns = `id, name, ceo_agent_id, status, current_revenue, launched_date, ceo_agent_name,
	token_symbol, company_idea, description, ceo_characteristics, total_tokens, price_per_token,
	time_duration, created_at, updated_at`

// Repository handles company reads
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new company repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "companies").Logger(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (Company, error) {
	var c Company
	var launched, totalTokens, timeDuration sql.NullInt64
	var agentName, symbol, idea, description, characteristics sql.NullString
	var price sql.NullFloat64

	err := row.Scan(
		&c.ID, &c.Name, &c.CEOAgentID, &c.Status, &c.CurrentRevenue, &launched, &agentName,
		&symbol, &idea, &description, &characteristics, &totalTokens, &price,
		&timeDuration, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Company{}, err
	}

	c.LaunchedDate = launched.Int64
	c.CEOAgentName = agentName.String
	c.TokenSymbol = symbol.String
	c.CompanyIdea = idea.String
	c.Description = description.String
	c.CEOCharacteristics = characteristics.String
	c.TotalTokens = int(totalTokens.Int64)
	c.PricePerToken = price.Float64
	c.TimeDuration = int(timeDuration.Int64)
	return c, nil
}

// GetByID returns a company, or nil if it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Company, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies WHERE id = ?", id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// GetByAgentID returns the company launched from an agent, or nil.
func (r *Repository) GetByAgentID(ctx context.Context, agentID int64) (*Company, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies WHERE ceo_agent_id = ?", agentID)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company by agent: %w", err)
	}
	return &c, nil
}

// List returns all companies, newest first.
func (r *Repository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+companyColumns+" FROM companies ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	result := make([]Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
