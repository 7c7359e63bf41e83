package companies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/foundry/internal/database"
	"github.com/aristath/foundry/internal/events"
	"github.com/aristath/foundry/internal/modules/agents"
	"github.com/rs/zerolog"
)

// WorkflowInitializer creates the workflow cursor for a new company inside
// the launch transaction.
type WorkflowInitializer interface {
	InitTx(ctx context.Context, tx *sql.Tx, companyID int64) error
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Waker schedules a processor pass after a delay.
type Waker interface {
	TriggerAfter(d time.Duration)
}

// Launcher converts agents into companies.
type Launcher struct {
	db         *sql.DB
	workflow   WorkflowInitializer
	events     EventEmitter
	waker      Waker
	startDelay time.Duration
	log        zerolog.Logger
}

// NewLauncher creates a launcher. events and waker may be nil.
func NewLauncher(db *sql.DB, workflow WorkflowInitializer, events EventEmitter, waker Waker, startDelay time.Duration, log zerolog.Logger) *Launcher {
	return &Launcher{
		db:         db,
		workflow:   workflow,
		events:     events,
		waker:      waker,
		startDelay: startDelay,
		log:        log.With().Str("component", "launcher").Logger(),
	}
}

// Launch converts an agent into a company exactly once.
//
// Everything happens in one transaction: the company insert is conditional on
// the UNIQUE(ceo_agent_id) constraint, the workflow cursor starts at research
// and the agent row is deleted. A second caller, concurrent or later, finds
// either no agent or a conflicting company and gets ErrAlreadyLaunched.
func (l *Launcher) Launch(ctx context.Context, agentID int64) (*Company, error) {
	var company Company

	err := database.WithTransactionContext(ctx, l.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, agents.SelectAgentQuery()+" WHERE id = ?", agentID)
		agent, err := agents.ScanAgent(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadyLaunched
		}
		if err != nil {
			return fmt.Errorf("failed to read agent: %w", err)
		}

		now := time.Now().Unix()
		company = Company{
			Name:               agent.Name + " Company",
			CEOAgentID:         agent.ID,
			Status:             StatusRunning,
			LaunchedDate:       now,
			CEOAgentName:       agent.Name,
			TokenSymbol:        agent.TokenSymbol,
			CompanyIdea:        agent.CompanyIdea,
			Description:        agent.Description,
			CEOCharacteristics: agent.CEOCharacteristics,
			TotalTokens:        agent.TotalTokens,
			PricePerToken:      agent.PricePerToken,
			TimeDuration:       agent.TimeDuration,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO companies
			(name, ceo_agent_id, status, current_revenue, launched_date, ceo_agent_name, token_symbol,
			 company_idea, description, ceo_characteristics, total_tokens, price_per_token,
			 time_duration, created_at, updated_at)
			VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ceo_agent_id) DO NOTHING
		`,
			company.Name, company.CEOAgentID, company.Status, company.LaunchedDate, company.CEOAgentName,
			company.TokenSymbol, company.CompanyIdea, company.Description, company.CEOCharacteristics,
			company.TotalTokens, company.PricePerToken, company.TimeDuration, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert company: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrAlreadyLaunched
		}

		company.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read company id: %w", err)
		}

		if err := l.workflow.InitTx(ctx, tx, company.ID); err != nil {
			return fmt.Errorf("failed to initialize workflow: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM ceo_agents WHERE id = ?", agentID); err != nil {
			return fmt.Errorf("failed to delete launched agent: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyLaunched) {
			return nil, ErrAlreadyLaunched
		}
		return nil, err
	}

	l.log.Info().
		Int64("agent_id", agentID).
		Int64("company_id", company.ID).
		Str("name", company.Name).
		Msg("Agent launched as company")

	if l.events != nil {
		l.events.EmitTyped("companies", &events.CompanyLaunchedData{
			CompanyID: company.ID,
			AgentID:   agentID,
			Name:      company.Name,
		})
	}
	if l.waker != nil {
		l.waker.TriggerAfter(l.startDelay)
	}

	return &company, nil
}
