package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/foundry/internal/database"
	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

const stateColumns = `id, company_id, current_step, status, research_data, product_data,
	marketing_strategy, technical_strategy, error_message, created_at, updated_at`

// Repository persists workflow state, votes and bolt prompts.
// Stage payloads are validated on every write and read.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new workflow repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "workflow").Logger(),
	}
}

// InitTx creates the workflow cursor for a freshly launched company.
func (r *Repository) InitTx(ctx context.Context, tx *sql.Tx, companyID int64) error {
	now := time.Now().Unix()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO company_workflow_state (company_id, current_step, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, companyID, StepResearch, StatusActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create workflow state: %w", err)
	}
	return nil
}

// Get returns the workflow state for a company, or nil if none exists.
func (r *Repository) Get(ctx context.Context, companyID int64) (*State, error) {
	var s State
	var research, product, marketing, technical, errMsg sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT "+stateColumns+" FROM company_workflow_state WHERE company_id = ?", companyID,
	).Scan(
		&s.ID, &s.CompanyID, &s.CurrentStep, &s.Status, &research, &product,
		&marketing, &technical, &errMsg, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow state: %w", err)
	}
	s.ErrorMessage = errMsg.String

	if research.Valid {
		s.ResearchData = &domain.ResearchData{}
		if err := domain.Decode(research.String, s.ResearchData); err != nil {
			return nil, fmt.Errorf("corrupt research_data for company %d: %w", companyID, err)
		}
	}
	if product.Valid {
		s.ProductData = &domain.ProductData{}
		if err := domain.Decode(product.String, s.ProductData); err != nil {
			return nil, fmt.Errorf("corrupt product_data for company %d: %w", companyID, err)
		}
	}
	if marketing.Valid {
		s.MarketingStrategy = &domain.MarketingStrategy{}
		if err := domain.Decode(marketing.String, s.MarketingStrategy); err != nil {
			return nil, fmt.Errorf("corrupt marketing_strategy for company %d: %w", companyID, err)
		}
	}
	if technical.Valid {
		s.TechnicalStrategy = &domain.TechnicalStrategy{}
		if err := domain.Decode(technical.String, s.TechnicalStrategy); err != nil {
			return nil, fmt.Errorf("corrupt technical_strategy for company %d: %w", companyID, err)
		}
	}

	return &s, nil
}

// FindActive returns companies whose cursor sits on step with status active
// and whose last transition happened at or before settledBefore.
func (r *Repository) FindActive(ctx context.Context, step Step, settledBefore time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT company_id FROM company_workflow_state
		WHERE current_step = ? AND status = ? AND updated_at <= ?
		ORDER BY updated_at ASC, company_id ASC
	`, step, StatusActive, settledBefore.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to find %s workflows: %w", step, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Advance applies a transition only if the cursor is still at t.From and active.
// Payloads and the optional bolt prompt are written in the same transaction.
func (r *Repository) Advance(ctx context.Context, t Transition) error {
	sets := []string{"current_step = ?", "status = ?", "updated_at = ?", "error_message = NULL"}
	args := []any{t.To, t.Status, time.Now().Unix()}

	addPayload := func(column string, v domain.Validator) error {
		encoded, err := domain.Encode(v)
		if err != nil {
			return fmt.Errorf("refusing to store %s: %w", column, err)
		}
		sets = append(sets, column+" = ?")
		args = append(args, encoded)
		return nil
	}

	if t.Research != nil {
		if err := addPayload("research_data", t.Research); err != nil {
			return err
		}
	}
	if t.Product != nil {
		if err := addPayload("product_data", t.Product); err != nil {
			return err
		}
	}
	if t.Marketing != nil {
		if err := addPayload("marketing_strategy", t.Marketing); err != nil {
			return err
		}
	}
	if t.Technical != nil {
		if err := addPayload("technical_strategy", t.Technical); err != nil {
			return err
		}
	}
	if t.BoltPrompt != nil {
		if err := t.BoltPrompt.Validate(); err != nil {
			return fmt.Errorf("refusing to store bolt prompt: %w", err)
		}
	}

	query := "UPDATE company_workflow_state SET " + strings.Join(sets, ", ") +
		" WHERE company_id = ? AND current_step = ? AND status = ?"
	args = append(args, t.CompanyID, t.From, StatusActive)

	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to advance workflow: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrStepConflict
		}

		if t.BoltPrompt != nil {
			return insertBoltPrompt(ctx, tx, t.CompanyID, t.BoltPrompt)
		}
		return nil
	})
	if errors.Is(err, ErrStepConflict) {
		return ErrStepConflict
	}
	if err != nil {
		return err
	}

	r.log.Debug().
		Int64("company_id", t.CompanyID).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Msg("Workflow advanced")
	return nil
}

func insertBoltPrompt(ctx context.Context, tx *sql.Tx, companyID int64, bp *domain.BoltPrompt) error {
	pages, _ := json.Marshal(bp.PagesRequired)
	requirements, _ := json.Marshal(bp.FunctionalRequirements)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO bolt_prompts
		(idea_id, website_title, website_description, pages_required, functional_requirements,
		 design_guidelines, integration_needs, bolt_prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, companyID, bp.WebsiteTitle, bp.WebsiteDescription, string(pages), string(requirements),
		bp.DesignGuidelines, bp.IntegrationNeeds, bp.Prompt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store bolt prompt: %w", err)
	}
	return nil
}

// Fail marks an active workflow as errored. It is a no-op for workflows that
// are no longer active.
func (r *Repository) Fail(ctx context.Context, companyID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE company_workflow_state
		SET status = ?, error_message = ?, updated_at = ?
		WHERE company_id = ? AND status = ?
	`, StatusError, reason, time.Now().Unix(), companyID, StatusActive)
	if err != nil {
		return fmt.Errorf("failed to mark workflow as errored: %w", err)
	}
	return nil
}

// ApplyVote records a vote and moves the cursor out of voting atomically.
func (r *Repository) ApplyVote(ctx context.Context, v *Vote, to Step, status Status) error {
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().Unix()

		result, err := tx.ExecContext(ctx, `
			UPDATE company_workflow_state
			SET current_step = ?, status = ?, updated_at = ?
			WHERE company_id = ? AND current_step = ? AND status = ?
		`, to, status, now, v.CompanyID, StepVoting, StatusActive)
		if err != nil {
			return fmt.Errorf("failed to apply vote: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrNotVoting
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO company_workflow_votes (company_id, vote_type, vote, voter_id, feedback, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, v.CompanyID, v.VoteType, v.Vote, v.VoterID, v.Feedback, now)
		if err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}

		v.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read vote id: %w", err)
		}
		v.CreatedAt = now
		return nil
	})
	if errors.Is(err, ErrNotVoting) {
		return ErrNotVoting
	}
	return err
}

// Votes returns the vote log for a company, newest first.
func (r *Repository) Votes(ctx context.Context, companyID int64) ([]Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_id, vote_type, vote, voter_id, feedback, created_at
		FROM company_workflow_votes
		WHERE company_id = ?
		ORDER BY created_at DESC, id DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	votes := make([]Vote, 0)
	for rows.Next() {
		var v Vote
		var feedback sql.NullString
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.VoteType, &v.Vote, &v.VoterID, &feedback, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		v.Feedback = feedback.String
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// VoteSummary counts approve and reject votes for a company.
func (r *Repository) VoteSummary(ctx context.Context, companyID int64) (*VoteSummary, error) {
	var s VoteSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN vote = 'approve' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN vote = 'reject' THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM company_workflow_votes
		WHERE company_id = ?
	`, companyID).Scan(&s.Approve, &s.Reject, &s.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize votes: %w", err)
	}
	return &s, nil
}

// CountBoltPrompts returns how many bolt prompts exist for a company.
func (r *Repository) CountBoltPrompts(ctx context.Context, companyID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bolt_prompts WHERE idea_id = ?", companyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count bolt prompts: %w", err)
	}
	return n, nil
}
