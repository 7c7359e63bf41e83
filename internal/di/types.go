// Package di wires databases, clients, services, the work processor and the
// scheduler into one Container.
package di

import (
	"github.com/aristath/foundry/internal/clients/llm"
	"github.com/aristath/foundry/internal/clients/social"
	"github.com/aristath/foundry/internal/crew"
	"github.com/aristath/foundry/internal/database"
	"github.com/aristath/foundry/internal/events"
	"github.com/aristath/foundry/internal/modules/agents"
	"github.com/aristath/foundry/internal/modules/companies"
	"github.com/aristath/foundry/internal/modules/marketing"
	"github.com/aristath/foundry/internal/modules/portfolio"
	"github.com/aristath/foundry/internal/modules/workflow"
	"github.com/aristath/foundry/internal/reliability"
	"github.com/aristath/foundry/internal/scheduler"
	"github.com/aristath/foundry/internal/work"
)

// Container holds all application dependencies.
//
// Wire fills it in order: databases, work processor, clients and services,
// work type registrations, scheduled jobs.
type Container struct {
	// Databases
	FoundryDB *database.DB // agents, companies, workflow, marketing (ledger profile)
	CacheDB   *database.DB // job completions (cache profile)

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Clients
	LLMClient    *llm.Client
	SocialClient *social.Client

	// Repositories
	AgentRepo     *agents.Repository
	CompanyRepo   *companies.Repository
	WorkflowRepo  *workflow.Repository
	MarketingRepo *marketing.Repository
	PortfolioRepo *portfolio.Repository

	// Services
	Crew             *crew.Crew
	MarketingService *marketing.Service
	PortfolioService *portfolio.Service
	WorkflowEngine   *workflow.Engine
	Launcher         *companies.Launcher
	BackupService    *reliability.BackupService // nil when backups are not configured

	// Background processing
	Work      *WorkComponents
	Scheduler *scheduler.Scheduler
}

// WorkComponents holds the work processor and what it runs on.
type WorkComponents struct {
	Registry   *work.Registry
	Completion *work.CompletionTracker
	Processor  *work.Processor
}

// Databases lists the open databases in creation order.
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.FoundryDB, c.CacheDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close releases every open database.
func (c *Container) Close() {
	for _, db := range c.Databases() {
		_ = db.Close()
	}
}
