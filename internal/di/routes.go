package di

import (
	"time"

	"github.com/aristath/foundry/internal/config"
	agenthandlers "github.com/aristath/foundry/internal/modules/agents/handlers"
	companyhandlers "github.com/aristath/foundry/internal/modules/companies/handlers"
	marketinghandlers "github.com/aristath/foundry/internal/modules/marketing/handlers"
	portfoliohandlers "github.com/aristath/foundry/internal/modules/portfolio/handlers"
	workflowhandlers "github.com/aristath/foundry/internal/modules/workflow/handlers"
	"github.com/aristath/foundry/internal/reliability"
	"github.com/aristath/foundry/internal/server"
	"github.com/aristath/foundry/internal/work"
	"github.com/rs/zerolog"
)

// approveHeadroom is added to the work timeout for routes that run a
// pipeline stage inline (admin approve runs marketing before responding).
const approveHeadroom = time.Minute

// ServerConfig builds the HTTP server configuration with every module's routes.
func ServerConfig(container *Container, cfg *config.Config, log zerolog.Logger) server.Config {
	processor := container.Work.Processor

	return server.Config{
		Log:            log,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		RequestTimeout: cfg.Scheduler.WorkTimeout + approveHeadroom,
		DB:             container.FoundryDB,
		Bus:            container.EventBus,
		Work:           processor,
		Agents: agenthandlers.NewHandler(
			container.AgentRepo,
			container.Launcher,
			container.CompanyRepo,
			container.EventManager,
			processor,
			log,
		),
		Companies: companyhandlers.NewHandler(container.CompanyRepo, container.WorkflowEngine, log),
		Routes: []server.RouteRegistrar{
			workflowhandlers.NewHandler(container.WorkflowEngine, log),
			marketinghandlers.NewHandler(container.MarketingService, log),
			portfoliohandlers.NewHandler(container.PortfolioRepo, container.PortfolioService, log),
			work.NewHandlers(processor, container.Work.Registry, container.Work.Completion, log),
			reliability.NewHandler(container.BackupService, log),
		},
	}
}
