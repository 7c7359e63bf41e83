package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "https://api.asi1.ai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "asi1-mini", cfg.LLM.Model)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "https://app.ayrshare.com/api/post", cfg.Social.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.Scheduler.LaunchStartDelay)
	assert.Equal(t, time.Second, cfg.Scheduler.ApprovalStartDelay)
	assert.Nil(t, cfg.Backup)
	assert.Equal(t, filepath.Join(dir, "foundry.db"), cfg.DatabasePath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("LLM_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("APPROVAL_START_DELAY", "250ms")
	t.Setenv("BACKUP_S3_ACCESS_KEY_ID", "id")
	t.Setenv("BACKUP_S3_SECRET_ACCESS_KEY", "key")
	t.Setenv("BACKUP_S3_BUCKET", "foundry-backups")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:9999/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.ApprovalStartDelay)
	require.NotNil(t, cfg.Backup)
	assert.Equal(t, "foundry-backups", cfg.Backup.Bucket)
	assert.Equal(t, 30, cfg.Backup.RetentionDays)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:      3001,
			LLM:       LLMConfig{BaseURL: "http://x", MaxTokens: 10},
			Scheduler: SchedulerConfig{SweepInterval: time.Second, WorkTimeout: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"no llm url", func(c *Config) { c.LLM.BaseURL = "" }, true},
		{"no max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, true},
		{"sweep too fast", func(c *Config) { c.Scheduler.SweepInterval = time.Millisecond }, true},
		{"backup without bucket", func(c *Config) { c.Backup = &BackupConfig{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
