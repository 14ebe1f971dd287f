// Package orchestrator ties the stages together: budget allocation, wave
// scheduling across sources, and post-collection enrichment, assembling the
// caller-facing result with per-source outcomes and run statistics.
package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scoutline/sourcing-cli/internal/budget"
	"github.com/scoutline/sourcing-cli/internal/enrich"
	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/internal/scheduler"
)

// Orchestrator runs collection requests end to end. It is safe for
// concurrent use; all per-request state lives in the allocator created for
// each run.
type Orchestrator struct {
	budgetCfg budget.Config
	sched     *scheduler.Scheduler
	stage     *enrich.Stage
	nowFunc   func() time.Time
}

// New creates an orchestrator over a scheduler and an enrichment stage.
func New(budgetCfg budget.Config, sched *scheduler.Scheduler, stage *enrich.Stage) *Orchestrator {
	return &Orchestrator{
		budgetCfg: budgetCfg,
		sched:     sched,
		stage:     stage,
		nowFunc:   time.Now,
	}
}

// Orchestrate executes one collection request: validate, allocate the
// budget, collect in waves, then enrich whatever arrived. Partial data is
// the normal outcome; only an invalid request returns an error.
func (o *Orchestrator) Orchestrate(ctx context.Context, req model.CollectionRequest) (*model.CollectionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, eris.Wrap(err, "orchestrator: invalid request")
	}

	start := o.nowFunc()
	log := zap.L().With(zap.String("request_id", req.ID))
	log.Info("orchestrator: starting",
		zap.String("query", req.Query),
		zap.Strings("sources", req.Sources),
		zap.Duration("budget", req.Budget()),
	)

	alloc := budget.New(o.budgetCfg)
	alloc.Start(req.Budget())

	outcome := o.sched.Run(ctx, req, alloc)

	candidates, degraded := o.stage.Enrich(ctx, outcome.Merged, req.Context, alloc)

	stats := model.CollectionStats{
		Elapsed:          o.nowFunc().Sub(start),
		Waves:            outcome.Waves,
		EarlyStopped:     outcome.EarlyStopped,
		StopReason:       outcome.StopReason,
		CacheHits:        outcome.CacheHits,
		DegradedServices: degraded,
	}
	for _, r := range outcome.Results {
		if r.OK() {
			stats.SourcesSucceeded++
		} else {
			stats.SourcesFailed++
		}
	}

	log.Info("orchestrator: finished",
		zap.Duration("elapsed", stats.Elapsed),
		zap.Int("candidates", len(candidates)),
		zap.Int("sources_succeeded", stats.SourcesSucceeded),
		zap.Int("sources_failed", stats.SourcesFailed),
		zap.String("stop_reason", stats.StopReason),
		zap.Strings("degraded_services", degraded),
	)

	return &model.CollectionResult{
		RequestID:  req.ID,
		Sources:    outcome.Results,
		Candidates: candidates,
		Stats:      stats,
	}, nil
}
