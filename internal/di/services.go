package di

import (
	"context"
	"fmt"

	"github.com/aristath/foundry/internal/clients/llm"
	"github.com/aristath/foundry/internal/clients/social"
	"github.com/aristath/foundry/internal/config"
	"github.com/aristath/foundry/internal/crew"
	"github.com/aristath/foundry/internal/modules/agents"
	"github.com/aristath/foundry/internal/modules/companies"
	"github.com/aristath/foundry/internal/modules/marketing"
	"github.com/aristath/foundry/internal/modules/portfolio"
	"github.com/aristath/foundry/internal/modules/workflow"
	"github.com/aristath/foundry/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates every repository over foundry.db.
func InitializeRepositories(container *Container, log zerolog.Logger) {
	conn := container.FoundryDB.Conn()

	container.AgentRepo = agents.NewRepository(conn, log)
	container.CompanyRepo = companies.NewRepository(conn, log)
	container.WorkflowRepo = workflow.NewRepository(conn, log)
	container.MarketingRepo = marketing.NewRepository(conn, log)
	container.PortfolioRepo = portfolio.NewRepository(conn, log)
}

// InitializeServices creates clients and services. The work processor must
// already exist: the launcher and the workflow engine wake it.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.Work == nil {
		return fmt.Errorf("work processor must be initialized before services")
	}
	processor := container.Work.Processor

	// Clients
	container.LLMClient = llm.NewClient(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, log)
	if !container.LLMClient.Configured() {
		log.Warn().Msg("LLM_API_KEY not set, stage agents will produce fallback content")
	}

	container.SocialClient = social.NewClient(cfg.Social.APIURL, cfg.Social.APIKey, cfg.Social.Timeout, log)
	if container.SocialClient.Simulated() {
		log.Warn().Msg("Social posting runs in simulated mode")
	}

	// Stage agents
	container.Crew = crew.New(container.LLMClient, log)

	// Services
	container.MarketingService = marketing.NewService(
		container.MarketingRepo,
		container.Crew.CMO,
		container.Crew.Researcher,
		container.SocialClient,
		container.EventManager,
		log,
	)
	container.PortfolioService = portfolio.NewService(container.PortfolioRepo, log)

	container.WorkflowEngine = workflow.NewEngine(workflow.Deps{
		Store:          container.WorkflowRepo,
		Companies:      container.CompanyRepo,
		Researcher:     container.Crew.Researcher,
		ProductManager: container.Crew.Product,
		Marketing:      container.MarketingService,
		CTO:            container.Crew.CTO,
		Engineering:    container.Crew.Engineering,
		Events:         container.EventManager,
		Waker:          processor,
	}, cfg.Scheduler.ApprovalStartDelay, log)

	container.Launcher = companies.NewLauncher(
		container.FoundryDB.Conn(),
		container.WorkflowRepo,
		container.EventManager,
		processor,
		cfg.Scheduler.LaunchStartDelay,
		log,
	)

	// Backups
	if cfg.Backup != nil {
		store, err := reliability.NewS3Client(ctx, *cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup storage client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			store,
			cfg.DataDir,
			cfg.Backup.RetentionDays,
			container.EventManager,
			log,
			container.FoundryDB,
		)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Backups enabled")
	} else {
		log.Info().Msg("Backups not configured")
	}

	return nil
}
