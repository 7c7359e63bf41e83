package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: ProfileStandard,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestMigrate_CreatesTables(t *testing.T) {
	db := newTestDB(t, "foundry")

	for _, table := range []string{
		"ceo_agents", "companies", "agent_token_holdings", "company_workflow_state",
		"company_workflow_votes", "posts", "agent_activities", "bolt_prompts", "pdrs", "ideas",
	} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t, "foundry")
	assert.NoError(t, db.Migrate())
	assert.NoError(t, db.Migrate())
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTestDB(t, "scratch")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count))
	assert.Zero(t, count)
}

func TestSchema(t *testing.T) {
	schema, err := Schema("cache")
	require.NoError(t, err)
	assert.Contains(t, schema, "job_completions")

	_, err = Schema("missing")
	assert.Error(t, err)
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	db := newTestDB(t, "foundry")

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO agent_activities (agent_name, activity) VALUES ('a', 'committed')")
		return err
	})
	require.NoError(t, err)

	errBoom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO agent_activities (agent_name, activity) VALUES ('a', 'rolled back')"); err != nil {
			return err
		}
		return errBoom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM agent_activities").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction_RecoversPanic(t *testing.T) {
	db := newTestDB(t, "foundry")

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO agent_activities (agent_name, activity) VALUES ('a', 'panic')")
		panic("unexpected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM agent_activities").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestHealthAndStats(t *testing.T) {
	db := newTestDB(t, "foundry")
	ctx := context.Background()

	assert.NoError(t, db.QuickCheck(ctx))
	assert.NoError(t, db.HealthCheck(ctx))
	assert.NoError(t, db.WALCheckpoint(""))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageCount)
	assert.Positive(t, stats.PageSize)
}

func TestSnapshotTo(t *testing.T) {
	db := newTestDB(t, "foundry")
	_, err := db.Conn().Exec("INSERT INTO ideas (title) VALUES ('snapshot me')")
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.SnapshotTo(context.Background(), target))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
