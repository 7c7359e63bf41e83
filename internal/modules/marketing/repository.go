package marketing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

// Repository persists posts, activities and PDRs.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new marketing repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "marketing").Logger(),
	}
}

// InsertPost stores a post attempt and returns its id.
func (r *Repository) InsertPost(ctx context.Context, p Post) (int64, error) {
	platforms, err := json.Marshal(p.Platforms)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal platforms: %w", err)
	}
	media, err := json.Marshal(nonNil(p.MediaURLs))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal media urls: %w", err)
	}
	if p.Status == "" {
		p.Status = PostDraft
	}

	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (idea_id, agent_name, content, platforms, media_urls, status, ayr_response, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, nullableID(p.IdeaID), p.AgentName, p.Content, string(platforms), string(media), p.Status,
		nullableRaw(p.Response), now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}
	return result.LastInsertId()
}

// ListPosts returns the newest posts first.
func (r *Repository) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, idea_id, agent_name, content, platforms, media_urls, status, ayr_response, created_at, updated_at
		FROM posts ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		var ideaID sql.NullInt64
		var platforms string
		var media, response sql.NullString
		if err := rows.Scan(&p.ID, &ideaID, &p.AgentName, &p.Content, &platforms, &media,
			&p.Status, &response, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if ideaID.Valid {
			v := ideaID.Int64
			p.IdeaID = &v
		}
		if err := json.Unmarshal([]byte(platforms), &p.Platforms); err != nil {
			r.log.Warn().Int64("post_id", p.ID).Err(err).Msg("Unreadable platforms column")
		}
		if media.Valid && media.String != "" {
			_ = json.Unmarshal([]byte(media.String), &p.MediaURLs)
		}
		if response.Valid && json.Valid([]byte(response.String)) {
			p.Response = json.RawMessage(response.String)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// LogActivity appends to the activity log. data is stored as JSON.
func (r *Repository) LogActivity(ctx context.Context, agentName, activity string, data any) error {
	var payload sql.NullString
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal activity data: %w", err)
		}
		payload = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agent_activities (agent_name, activity, data, created_at) VALUES (?, ?, ?, ?)
	`, agentName, activity, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns the newest activities first.
func (r *Repository) ListActivities(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, agent_name, activity, data, created_at
		FROM agent_activities ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []Activity{}
	for rows.Next() {
		var a Activity
		var data sql.NullString
		if err := rows.Scan(&a.ID, &a.AgentName, &a.Activity, &data, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if data.Valid && json.Valid([]byte(data.String)) {
			a.Data = json.RawMessage(data.String)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// CreatePDR stores a draft PDR and returns its id.
func (r *Repository) CreatePDR(ctx context.Context, idea domain.Idea, product *domain.ProductData) (int64, error) {
	ideaJSON, err := json.Marshal(idea)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal idea: %w", err)
	}
	productJSON, err := domain.Encode(product)
	if err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO pdrs (idea_json, product_json, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`, string(ideaJSON), productJSON, PDRDraft, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert pdr: %w", err)
	}
	return result.LastInsertId()
}

// GetPDR loads a PDR. Missing ids return ErrPDRNotFound.
func (r *Repository) GetPDR(ctx context.Context, id int64) (*PDR, error) {
	var p PDR
	var ideaJSON, productJSON string
	var approvedAt sql.NullInt64
	var posted int
	var response sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, idea_json, product_json, status, approved_at, marketing_posted, marketing_response, created_at, updated_at
		FROM pdrs WHERE id = ?
	`, id).Scan(&p.ID, &ideaJSON, &productJSON, &p.Status, &approvedAt, &posted, &response, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPDRNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pdr %d: %w", id, err)
	}

	if err := json.Unmarshal([]byte(ideaJSON), &p.Idea); err != nil {
		return nil, fmt.Errorf("%w: pdr %d idea: %v", domain.ErrInvalidPayload, id, err)
	}
	p.Product = &domain.ProductData{}
	if err := domain.Decode(productJSON, p.Product); err != nil {
		return nil, fmt.Errorf("pdr %d product: %w", id, err)
	}
	if approvedAt.Valid {
		v := approvedAt.Int64
		p.ApprovedAt = &v
	}
	p.MarketingPosted = posted == 1
	if response.Valid && json.Valid([]byte(response.String)) {
		p.MarketingResponse = json.RawMessage(response.String)
	}
	return &p, nil
}

// ApprovePDR moves a draft PDR to approved. Only one caller wins; the rest get
// ErrPDRAlreadyApproved.
func (r *Repository) ApprovePDR(ctx context.Context, id int64) error {
	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx, `
		UPDATE pdrs SET status = ?, approved_at = ?, updated_at = ? WHERE id = ? AND status = ?
	`, PDRApproved, now, now, id, PDRDraft)
	if err != nil {
		return fmt.Errorf("failed to approve pdr %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := r.GetPDR(ctx, id); err != nil {
		return err
	}
	return ErrPDRAlreadyApproved
}

// RecordPDRMarketing marks the PDR's marketing as posted with the poster output.
func (r *Repository) RecordPDRMarketing(ctx context.Context, id int64, response any) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal marketing response: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE pdrs SET marketing_posted = 1, marketing_response = ?, updated_at = ? WHERE id = ?
	`, string(raw), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record marketing for pdr %d: %w", id, err)
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableRaw(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
