package agents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/foundry/internal/database"
	"github.com/rs/zerolog"
)

// agentColumns is the column list shared by every agent query.
// Order must match ScanAgent.
const agentColumns = `id, name, company_idea, description, ceo_characteristics, creator_wallet,
	token_symbol, total_tokens, tokens_available, price_per_token, status, launch_timeline,
	launch_date, time_duration, created_at, updated_at`

// Repository handles agent and holding persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new agent repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "agents").Logger(),
	}
}

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanAgent reads one agent row selected with agentColumns.
func ScanAgent(row RowScanner) (Agent, error) {
	var a Agent
	var creatorWallet sql.NullString
	var launchDate sql.NullInt64
	var timeDuration sql.NullInt64

	err := row.Scan(
		&a.ID, &a.Name, &a.CompanyIdea, &a.Description, &a.CEOCharacteristics, &creatorWallet,
		&a.TokenSymbol, &a.TotalTokens, &a.TokensAvailable, &a.PricePerToken, &a.Status,
		&a.LaunchTimeline, &launchDate, &timeDuration, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return Agent{}, err
	}

	a.CreatorWallet = creatorWallet.String
	if launchDate.Valid {
		v := launchDate.Int64
		a.LaunchDate = &v
	}
	a.TimeDuration = int(timeDuration.Int64)
	return a, nil
}

// SelectAgentQuery returns the SELECT prefix for agent rows.
func SelectAgentQuery() string {
	return "SELECT " + agentColumns + " FROM ceo_agents"
}

// Create inserts a new agent and returns it with its id and timestamps set.
func (r *Repository) Create(ctx context.Context, agent Agent) (*Agent, error) {
	now := time.Now().Unix()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO ceo_agents
		(name, company_idea, description, ceo_characteristics, creator_wallet, token_symbol,
		 total_tokens, tokens_available, price_per_token, status, launch_timeline, launch_date,
		 time_duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		agent.Name, agent.CompanyIdea, agent.Description, agent.CEOCharacteristics,
		nullString(agent.CreatorWallet), agent.TokenSymbol, agent.TotalTokens, agent.TokensAvailable,
		agent.PricePerToken, agent.Status, agent.LaunchTimeline, agent.LaunchDate,
		agent.TimeDuration, now, now,
	)
	if err != nil {
		if isUniqueViolation(err, "ceo_agents.token_symbol") {
			return nil, ErrDuplicateSymbol
		}
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read agent id: %w", err)
	}

	agent.ID = id
	agent.CreatedAt = now
	agent.UpdatedAt = now

	r.log.Info().
		Int64("agent_id", id).
		Str("symbol", agent.TokenSymbol).
		Int("launch_timeline", agent.LaunchTimeline).
		Msg("Agent created")

	return &agent, nil
}

// GetByID returns an agent, or nil if it does not exist (launched agents are deleted).
func (r *Repository) GetByID(ctx context.Context, id int64) (*Agent, error) {
	row := r.db.QueryRowContext(ctx, SelectAgentQuery()+" WHERE id = ?", id)
	agent, err := ScanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// List returns all pending agents, newest first.
func (r *Repository) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.db.QueryContext(ctx, SelectAgentQuery()+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		agent, err := ScanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// DueForLaunch returns ids of agents whose launch date has passed, oldest first.
func (r *Repository) DueForLaunch(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM ceo_agents
		WHERE launch_date IS NOT NULL AND launch_date <= ?
		ORDER BY launch_date ASC, id ASC
	`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to find agents due for launch: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan agent id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BuyTokens decrements the agent's supply and records the holding atomically.
// The conditional UPDATE is the check: it only matches while enough tokens remain,
// so concurrent purchases cannot oversell.
func (r *Repository) BuyTokens(ctx context.Context, agentID int64, req BuyTokensRequest) (*Purchase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var purchase *Purchase
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().Unix()

		result, err := tx.ExecContext(ctx, `
			UPDATE ceo_agents
			SET tokens_available = tokens_available - ?, updated_at = ?
			WHERE id = ? AND tokens_available >= ?
		`, req.TokensToBuy, now, agentID, req.TokensToBuy)
		if err != nil {
			return fmt.Errorf("failed to reserve tokens: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		var name string
		var price float64
		var available int
		err = tx.QueryRowContext(ctx,
			"SELECT name, price_per_token, tokens_available FROM ceo_agents WHERE id = ?", agentID,
		).Scan(&name, &price, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAgentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read agent: %w", err)
		}

		if affected == 0 {
			return &InsufficientTokensError{Available: available}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO agent_token_holdings (user_wallet, ceo_agent_id, tokens_owned, purchase_price, purchase_date)
			VALUES (?, ?, ?, ?, ?)
		`, strings.TrimSpace(req.UserWallet), agentID, req.TokensToBuy, price, now)
		if err != nil {
			return fmt.Errorf("failed to record holding: %w", err)
		}

		purchase = &Purchase{
			TokensBought:    req.TokensToBuy,
			PricePerToken:   price,
			TotalCost:       float64(req.TokensToBuy) * price,
			AgentName:       name,
			TokensAvailable: available,
		}
		return nil
	})
	if err != nil {
		return nil, unwrapDomainError(err)
	}

	r.log.Info().
		Int64("agent_id", agentID).
		Str("wallet", req.UserWallet).
		Int("tokens", purchase.TokensBought).
		Int("remaining", purchase.TokensAvailable).
		Msg("Tokens purchased")

	return purchase, nil
}

// HoldingsByAgent returns purchase records for an agent, oldest first.
func (r *Repository) HoldingsByAgent(ctx context.Context, agentID int64) ([]Holding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_wallet, ceo_agent_id, tokens_owned, purchase_price, purchase_date
		FROM agent_token_holdings WHERE ceo_agent_id = ? ORDER BY id ASC
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]Holding, 0)
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.ID, &h.UserWallet, &h.CEOAgentID, &h.TokensOwned, &h.PurchasePrice, &h.PurchaseDate); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// unwrapDomainError strips transaction wrapping from errors the HTTP layer maps
// to client responses.
func unwrapDomainError(err error) error {
	var insufficient *InsufficientTokensError
	if errors.As(err, &insufficient) {
		return insufficient
	}
	if errors.Is(err, ErrAgentNotFound) {
		return ErrAgentNotFound
	}
	return err
}

func isUniqueViolation(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
