package portfolio

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// holdingsQuery joins holdings to whichever of agent or company still exists.
const holdingsQuery = `
	SELECT h.id, h.user_wallet, h.ceo_agent_id, h.tokens_owned, h.purchase_price, h.purchase_date,
	       COALESCE(ca.name, c.ceo_agent_name),
	       COALESCE(ca.token_symbol, c.token_symbol),
	       COALESCE(ca.price_per_token, c.price_per_token)
	FROM agent_token_holdings h
	LEFT JOIN ceo_agents ca ON h.ceo_agent_id = ca.id
	LEFT JOIN companies c ON h.ceo_agent_id = c.ceo_agent_id`

// Repository runs the read-only browser queries.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Stats counts the main tables.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ceo_agents),
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM agent_token_holdings),
			(SELECT COUNT(*) FROM ideas)
	`).Scan(&s.Agents, &s.Companies, &s.Holdings, &s.Ideas)
	if err != nil {
		return nil, fmt.Errorf("failed to count tables: %w", err)
	}
	return &s, nil
}

// Agents lists agents, newest first.
func (r *Repository) Agents(ctx context.Context) ([]AgentRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, company_idea, description, ceo_characteristics, creator_wallet,
		       token_symbol, total_tokens, tokens_available, price_per_token, status, created_at, updated_at
		FROM ceo_agents ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	list := []AgentRow{}
	for rows.Next() {
		var a AgentRow
		var wallet sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.CompanyIdea, &a.Description, &a.CEOCharacteristics, &wallet,
			&a.TokenSymbol, &a.TotalTokens, &a.TokensAvailable, &a.PricePerToken, &a.Status,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		a.CreatorWallet = nullString(wallet)
		list = append(list, a)
	}
	return list, rows.Err()
}

// Companies lists companies, newest first.
func (r *Repository) Companies(ctx context.Context) ([]CompanyRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, current_revenue, launched_date, created_at, ceo_agent_name, token_symbol
		FROM companies ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	list := []CompanyRow{}
	for rows.Next() {
		var c CompanyRow
		var launched sql.NullInt64
		var agentName, symbol sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CurrentRevenue, &launched, &c.CreatedAt,
			&agentName, &symbol); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		if launched.Valid {
			v := launched.Int64
			c.LaunchedDate = &v
		}
		c.CEOAgentName = nullString(agentName)
		c.TokenSymbol = nullString(symbol)
		list = append(list, c)
	}
	return list, rows.Err()
}

// Holdings lists purchases, newest first. An empty wallet lists every wallet.
func (r *Repository) Holdings(ctx context.Context, wallet string) ([]HoldingRow, error) {
	query := holdingsQuery
	var args []any
	if wallet != "" {
		query += " WHERE h.user_wallet = ?"
		args = append(args, wallet)
	}
	query += " ORDER BY h.purchase_date DESC, h.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	list := []HoldingRow{}
	for rows.Next() {
		var h HoldingRow
		var name, symbol sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&h.ID, &h.UserWallet, &h.AgentID, &h.TokensOwned, &h.PurchasePrice, &h.PurchaseDate,
			&name, &symbol, &price); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.AgentName = nullString(name)
		h.TokenSymbol = nullString(symbol)
		if price.Valid {
			v := price.Float64
			h.CurrentPrice = &v
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// Ideas lists the most recent ideas.
func (r *Repository) Ideas(ctx context.Context, limit int) ([]IdeaRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, status, created_at, updated_at
		FROM ideas ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ideas: %w", err)
	}
	defer rows.Close()

	list := []IdeaRow{}
	for rows.Next() {
		var i IdeaRow
		var desc sql.NullString
		if err := rows.Scan(&i.ID, &i.Title, &desc, &i.Status, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		i.Description = nullString(desc)
		list = append(list, i)
	}
	return list, rows.Err()
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
