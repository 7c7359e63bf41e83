// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Directory holding foundry.db (always absolute)
	LogLevel string
	Pretty   bool
	Port     int
	DevMode  bool

	LLM       LLMConfig
	Social    SocialConfig
	Scheduler SchedulerConfig
	Backup    *BackupConfig // nil when backups are not configured
}

// LLMConfig configures the chat-completions endpoint used by the stage agents.
type LLMConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// SocialConfig configures the Ayrshare posting API.
// An empty or "TEST" key puts the poster in simulated mode.
type SocialConfig struct {
	APIKey  string
	APIURL  string
	Timeout time.Duration
}

// SchedulerConfig controls the durable work processor and its cron sweeper.
type SchedulerConfig struct {
	SweepInterval      time.Duration
	LaunchStartDelay   time.Duration // pause between a company launch and its first stage
	ApprovalStartDelay time.Duration // pause between approval and the marketing stage
	WorkTimeout        time.Duration
}

// BackupConfig holds S3-compatible storage settings for database backups.
type BackupConfig struct {
	Endpoint        string // empty means AWS S3
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // cron expression (with seconds)
	RetentionDays   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Pretty:   getEnvAsBool("LOG_PRETTY", true),
		Port:     getEnvAsInt("PORT", 3001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LLM: LLMConfig{
			BaseURL:   strings.TrimRight(getEnv("LLM_BASE_URL", "https://api.asi1.ai/v1"), "/"),
			APIKey:    getEnv("LLM_API_KEY", getEnv("ASI_ONE_API_KEY", "")),
			Model:     getEnv("LLM_MODEL", "asi1-mini"),
			MaxTokens: getEnvAsInt("LLM_MAX_TOKENS", 2000),
			Timeout:   getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Social: SocialConfig{
			APIKey:  getEnv("AYRSHARE_API_KEY", getEnv("AYR_API_KEY", "")),
			APIURL:  getEnv("AYRSHARE_API_URL", "https://app.ayrshare.com/api/post"),
			Timeout: getEnvAsDuration("AYRSHARE_TIMEOUT", 30*time.Second),
		},
		Scheduler: SchedulerConfig{
			SweepInterval:      time.Duration(getEnvAsInt("SCHEDULER_SWEEP_SECONDS", 5)) * time.Second,
			LaunchStartDelay:   getEnvAsDuration("LAUNCH_START_DELAY", 2*time.Second),
			ApprovalStartDelay: getEnvAsDuration("APPROVAL_START_DELAY", 1*time.Second),
			WorkTimeout:        getEnvAsDuration("WORK_TIMEOUT", 7*time.Minute),
		},
		Backup: loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath returns the location of the application database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "foundry.db")
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL must not be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.Scheduler.SweepInterval < time.Second {
		return fmt.Errorf("SCHEDULER_SWEEP_SECONDS must be at least 1")
	}
	if c.Scheduler.WorkTimeout <= 0 {
		return fmt.Errorf("WORK_TIMEOUT must be positive")
	}
	if c.Backup != nil && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_S3_BUCKET is required when backups are configured")
	}
	return nil
}

// loadBackupConfig returns nil unless backup credentials are present.
func loadBackupConfig() *BackupConfig {
	accessKey := getEnv("BACKUP_S3_ACCESS_KEY_ID", "")
	secretKey := getEnv("BACKUP_S3_SECRET_ACCESS_KEY", "")
	if accessKey == "" || secretKey == "" {
		return nil
	}

	return &BackupConfig{
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
