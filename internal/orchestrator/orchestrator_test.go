package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutline/sourcing-cli/internal/budget"
	"github.com/scoutline/sourcing-cli/internal/cache"
	"github.com/scoutline/sourcing-cli/internal/enrich"
	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/internal/resilience"
	"github.com/scoutline/sourcing-cli/internal/scheduler"
)

// fastBudget keeps test runs at millisecond scale.
func fastBudget() budget.Config {
	return budget.Config{
		SourceCeiling:     200 * time.Millisecond,
		SourceFloor:       10 * time.Millisecond,
		EnrichmentSlice:   50 * time.Millisecond,
		EnrichmentMinimum: 5 * time.Millisecond,
		StopCandidates:    15,
		StopSources:       2,
		StopMeanScore:     60,
	}
}

type okValidator struct{}

func (okValidator) Validate(context.Context, model.Candidate) (bool, string, error) {
	return true, "looks real", nil
}

type fixedScorer struct{ v float64 }

func (s fixedScorer) Score(context.Context, model.Candidate, model.QueryContext) (float64, error) {
	return s.v, nil
}

type fixedSummarizer struct{}

func (fixedSummarizer) Summarize(_ context.Context, c model.Candidate) (string, error) {
	return "summary of " + c.Name, nil
}

type fixedLookup struct{}

func (fixedLookup) CrossReference(_ context.Context, c model.Candidate) (string, error) {
	return "https://crossref.example/" + c.Name, nil
}

func testStage() *enrich.Stage {
	return enrich.New(enrich.DefaultConfig(), resilience.NewRegistry(resilience.DefaultConfig()),
		okValidator{}, fixedScorer{88}, fixedSummarizer{}, fixedLookup{})
}

func staticCollector(n int, score float64) scheduler.Collector {
	return scheduler.CollectorFunc(func(_ context.Context, _, _ string, _ model.QueryContext) ([]model.Candidate, int, error) {
		out := make([]model.Candidate, n)
		for i := range out {
			out[i] = model.Candidate{
				Name:       fmt.Sprintf("candidate-%d", i),
				ProfileURL: fmt.Sprintf("https://example.com/%d", i),
				Scores:     model.ScoreSet{Overall: score},
			}
		}
		return out, n, nil
	})
}

func newOrchestrator(collectors map[string]scheduler.Collector) *Orchestrator {
	sched := scheduler.New(scheduler.DefaultConfig(), collectors, cache.New(time.Minute), nil)
	return New(fastBudget(), sched, testStage())
}

func TestOrchestrate_InvalidRequest(t *testing.T) {
	o := newOrchestrator(nil)

	_, err := o.Orchestrate(context.Background(), model.CollectionRequest{})
	require.Error(t, err)
}

func TestOrchestrate_PartialResults(t *testing.T) {
	collectors := map[string]scheduler.Collector{
		"github": staticCollector(5, 70),
		"stackoverflow": scheduler.CollectorFunc(func(ctx context.Context, _, _ string, _ model.QueryContext) ([]model.Candidate, int, error) {
			time.Sleep(10 * time.Second) // hangs well past any slice
			return nil, 0, nil
		}),
		"websearch": scheduler.CollectorFunc(func(context.Context, string, string, model.QueryContext) ([]model.Candidate, int, error) {
			return nil, 0, fmt.Errorf("upstream 500")
		}),
	}
	o := newOrchestrator(collectors)

	req := model.NewCollectionRequest("golang developer", "berlin",
		[]string{"github", "stackoverflow", "websearch"}, 2, model.QueryContext{})

	start := time.Now()
	res, err := o.Orchestrate(context.Background(), req)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second, "hanging source must not stall the run")
	assert.Len(t, res.Sources, 3, "failed sources still appear in the result")
	assert.Len(t, res.Candidates, 5)
	assert.Equal(t, 1, res.Stats.SourcesSucceeded)
	assert.Equal(t, 2, res.Stats.SourcesFailed)
	assert.Equal(t, req.ID, res.RequestID)
	assert.NotZero(t, res.Stats.Waves)
	assert.NotEmpty(t, res.Stats.StopReason)
}

type hangingValidator struct{}

func (hangingValidator) Validate(ctx context.Context, _ model.Candidate) (bool, string, error) {
	select {
	case <-time.After(10 * time.Second):
	case <-ctx.Done():
	}
	return false, "", ctx.Err()
}

func TestOrchestrate_WallTimeBoundedByBudgetPlusCeiling(t *testing.T) {
	collectors := map[string]scheduler.Collector{
		"github": staticCollector(5, 70),
		"stackoverflow": scheduler.CollectorFunc(func(context.Context, string, string, model.QueryContext) ([]model.Candidate, int, error) {
			time.Sleep(10 * time.Second)
			return nil, 0, nil
		}),
	}
	cfg := fastBudget()
	sched := scheduler.New(scheduler.DefaultConfig(), collectors, cache.New(time.Minute), nil)
	stage := enrich.New(enrich.DefaultConfig(), resilience.NewRegistry(resilience.DefaultConfig()),
		hangingValidator{}, fixedScorer{88}, fixedSummarizer{}, fixedLookup{})
	o := New(cfg, sched, stage)

	req := model.NewCollectionRequest("golang developer", "berlin",
		[]string{"github", "stackoverflow"}, 1, model.QueryContext{})

	start := time.Now()
	res, err := o.Orchestrate(context.Background(), req)
	elapsed := time.Since(start)
	require.NoError(t, err)

	// Hanging collection and hanging enrichment together must not push the
	// run past the budget plus one source ceiling.
	limit := req.Budget() + cfg.SourceCeiling + 300*time.Millisecond
	assert.LessOrEqual(t, elapsed, limit, "run overran the budget bound")
	assert.Len(t, res.Candidates, 5, "partial results still returned")
	assert.Contains(t, res.Stats.DegradedServices, "validation")
}

func TestOrchestrate_EnrichesTopCandidates(t *testing.T) {
	o := newOrchestrator(map[string]scheduler.Collector{
		"github": staticCollector(3, 80),
	})

	req := model.NewCollectionRequest("golang developer", "", []string{"github"}, 5, model.QueryContext{})

	res, err := o.Orchestrate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 3)

	for _, c := range res.Candidates {
		assert.True(t, c.Enrichment.Validated)
		assert.InDelta(t, 88, c.Enrichment.AIScore, 0.001)
		assert.NotEmpty(t, c.Enrichment.Summary)
		assert.NotEmpty(t, c.Enrichment.CrossRefURL)
	}
	assert.Empty(t, res.Stats.DegradedServices)
}

func TestOrchestrate_CandidatesSortedByScore(t *testing.T) {
	o := newOrchestrator(map[string]scheduler.Collector{
		"github":    staticCollector(2, 90),
		"websearch": staticCollector(2, 40),
	})

	req := model.NewCollectionRequest("q", "", []string{"github", "websearch"}, 5, model.QueryContext{})

	res, err := o.Orchestrate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 4)
	for i := 1; i < len(res.Candidates); i++ {
		assert.GreaterOrEqual(t,
			res.Candidates[i-1].Scores.Overall,
			res.Candidates[i].Scores.Overall,
		)
	}
}
