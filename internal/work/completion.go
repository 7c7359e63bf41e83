package work

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Completion records the last successful run of a work item.
type Completion struct {
	TypeID      string        `msgpack:"type_id" json:"type_id"`
	Subject     string        `msgpack:"subject" json:"subject,omitempty"`
	CompletedAt time.Time     `msgpack:"completed_at" json:"completed_at"`
	Duration    time.Duration `msgpack:"duration" json:"duration_ms"`
	Retries     int           `msgpack:"retries" json:"retries"`
}

// CompletionStore persists completions across restarts.
type CompletionStore interface {
	LoadAll(ctx context.Context) ([]Completion, error)
	Save(ctx context.Context, c Completion) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// CompletionTracker tracks when work items were last completed.
// It's used to determine staleness based on intervals. With a store
// attached, completions survive restarts.
type CompletionTracker struct {
	completions map[string]Completion // key: "typeID:subject"
	store       CompletionStore
	log         zerolog.Logger
	mu          sync.RWMutex
}

// NewCompletionTracker creates an in-memory completion tracker.
func NewCompletionTracker() *CompletionTracker {
	return &CompletionTracker{
		completions: make(map[string]Completion),
		log:         zerolog.Nop(),
	}
}

// NewPersistentCompletionTracker creates a tracker backed by store and loads
// the completions already stored.
func NewPersistentCompletionTracker(ctx context.Context, store CompletionStore, log zerolog.Logger) (*CompletionTracker, error) {
	t := &CompletionTracker{
		completions: make(map[string]Completion),
		store:       store,
		log:         log.With().Str("component", "work_completions").Logger(),
	}

	stored, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load work completions: %w", err)
	}
	for _, c := range stored {
		t.completions[makeKey(c.TypeID, c.Subject)] = c
	}
	t.log.Debug().Int("count", len(stored)).Msg("Loaded work completions")
	return t, nil
}

// MarkCompleted records that a work item has been completed.
func (t *CompletionTracker) MarkCompleted(item *WorkItem, duration time.Duration) {
	t.MarkCompletedAt(item, time.Now(), duration)
}

// MarkCompletedAt records that a work item was completed at a specific time.
func (t *CompletionTracker) MarkCompletedAt(item *WorkItem, completedAt time.Time, duration time.Duration) {
	c := Completion{
		TypeID:      item.TypeID,
		Subject:     item.Subject,
		CompletedAt: completedAt,
		Duration:    duration,
		Retries:     item.Retries,
	}

	t.mu.Lock()
	t.completions[makeKey(item.TypeID, item.Subject)] = c
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.store.Save(ctx, c); err != nil {
		t.log.Warn().Err(err).Str("work", item.ID).Msg("Failed to persist completion")
	}
}

// GetCompletion returns when a work type/subject combination was last completed.
func (t *CompletionTracker) GetCompletion(typeID, subject string) (Completion, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, exists := t.completions[makeKey(typeID, subject)]
	return c, exists
}

// LastCompletion returns the most recent completion of any subject of typeID.
func (t *CompletionTracker) LastCompletion(typeID string) (Completion, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var latest Completion
	found := false
	for _, c := range t.completions {
		if c.TypeID == typeID && (!found || c.CompletedAt.After(latest.CompletedAt)) {
			latest = c
			found = true
		}
	}
	return latest, found
}

// IsStale returns true if the work should be re-executed based on the interval.
// Work that never completed and work with a zero interval are always stale.
func (t *CompletionTracker) IsStale(typeID, subject string, interval time.Duration) bool {
	if interval == 0 {
		return true
	}

	c, exists := t.GetCompletion(typeID, subject)
	if !exists {
		return true
	}
	return time.Since(c.CompletedAt) > interval
}

// Clear removes the completion record for a specific work type/subject.
func (t *CompletionTracker) Clear(typeID, subject string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.completions, makeKey(typeID, subject))
}

// Prune drops completions older than before, in memory and in the store.
func (t *CompletionTracker) Prune(ctx context.Context, before time.Time) (int, error) {
	t.mu.Lock()
	removed := 0
	for key, c := range t.completions {
		if c.CompletedAt.Before(before) {
			delete(t.completions, key)
			removed++
		}
	}
	t.mu.Unlock()

	if t.store != nil {
		if _, err := t.store.DeleteBefore(ctx, before); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Count returns the number of tracked completions.
func (t *CompletionTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.completions)
}

// SQLiteCompletionStore keeps completions as msgpack blobs in the cache database.
type SQLiteCompletionStore struct {
	db *sql.DB
}

// NewSQLiteCompletionStore creates a store over a database with the cache schema.
func NewSQLiteCompletionStore(db *sql.DB) *SQLiteCompletionStore {
	return &SQLiteCompletionStore{db: db}
}

// LoadAll reads every stored completion. Undecodable rows are skipped.
func (s *SQLiteCompletionStore) LoadAll(ctx context.Context) ([]Completion, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM job_completions")
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		var c Completion
		if err := msgpack.Unmarshal(payload, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save upserts a completion.
func (s *SQLiteCompletionStore) Save(ctx context.Context, c Completion) error {
	payload, err := msgpack.Marshal(&c)
	if err != nil {
		return fmt.Errorf("failed to encode completion: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_completions (key, payload, completed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			completed_at = excluded.completed_at
	`, makeKey(c.TypeID, c.Subject), payload, c.CompletedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save completion: %w", err)
	}
	return nil
}

// DeleteBefore removes completions older than before.
func (s *SQLiteCompletionStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM job_completions WHERE completed_at < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune completions: %w", err)
	}
	return result.RowsAffected()
}
