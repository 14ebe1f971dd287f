package main

import (
	"github.com/rotisserie/eris"

	"github.com/scoutline/sourcing-cli/internal/cache"
	"github.com/scoutline/sourcing-cli/internal/config"
	"github.com/scoutline/sourcing-cli/internal/enrich"
	"github.com/scoutline/sourcing-cli/internal/orchestrator"
	"github.com/scoutline/sourcing-cli/internal/registry"
	"github.com/scoutline/sourcing-cli/internal/resilience"
	"github.com/scoutline/sourcing-cli/internal/scheduler"
	"github.com/scoutline/sourcing-cli/internal/sources"
	anthropicpkg "github.com/scoutline/sourcing-cli/pkg/anthropic"
	"github.com/scoutline/sourcing-cli/pkg/github"
	"github.com/scoutline/sourcing-cli/pkg/stackoverflow"
	"github.com/scoutline/sourcing-cli/pkg/websearch"
)

// appEnv holds the long-lived collaborators shared by every request: the
// orchestrator, the source catalog, and the breaker registry the serve
// command exposes for inspection.
type appEnv struct {
	orch     *orchestrator.Orchestrator
	catalog  *registry.Catalog
	breakers *resilience.Registry
}

// initApp wires clients, collectors, and stages from the loaded config.
func initApp(cfg *config.Config) (*appEnv, error) {
	catalog := registry.Default()
	if cfg.Catalog.Path != "" {
		loaded, err := registry.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, eris.Wrap(err, "load source catalog")
		}
		catalog = loaded
	}

	ghClient := github.NewClient(cfg.GitHub.Token, github.WithBaseURL(cfg.GitHub.BaseURL))
	soClient := stackoverflow.NewClient(cfg.StackOverflow.Key, stackoverflow.WithBaseURL(cfg.StackOverflow.BaseURL))
	wsClient := websearch.NewClient(cfg.WebSearch.Key, websearch.WithBaseURL(cfg.WebSearch.BaseURL))

	collectors := sources.Build(sources.Clients{
		GitHub:        ghClient,
		StackOverflow: soClient,
		WebSearch:     wsClient,
	}, cfg.Scheduler.MaxPerSource)

	sched := scheduler.New(
		cfg.Scheduler.SchedulerSettings(),
		collectors,
		cache.New(cfg.Cache.TTL()),
		catalog,
	)

	// An empty Anthropic key still wires the AI services; calls fail fast and
	// the breaker plus fallbacks take over, which keeps the stage total.
	aiSvc := enrich.NewAIServices(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	breakers := resilience.NewRegistry(cfg.Breaker.BreakerSettings())
	stage := enrich.New(
		cfg.Enrichment.EnrichmentSettings(),
		breakers,
		aiSvc, aiSvc, aiSvc,
		enrich.NewWebLookup(wsClient),
	)

	return &appEnv{
		orch:     orchestrator.New(cfg.Budget.BudgetSettings(), sched, stage),
		catalog:  catalog,
		breakers: breakers,
	}, nil
}
