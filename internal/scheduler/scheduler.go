// Package scheduler runs the requested sources in fixed-size concurrent
// waves under per-source deadlines carved from the shared time budget,
// collecting partial results and stopping early once enough good data has
// been gathered.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scoutline/sourcing-cli/internal/budget"
	"github.com/scoutline/sourcing-cli/internal/cache"
	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/internal/registry"
)

// Collector is the source collaborator contract. Implementations must
// respect ctx's deadline and should return partial results rather than hang;
// retry and backoff policy belongs inside the collector, never here.
type Collector interface {
	Collect(ctx context.Context, query, location string, qc model.QueryContext) ([]model.Candidate, int, error)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func(ctx context.Context, query, location string, qc model.QueryContext) ([]model.Candidate, int, error)

// Collect implements Collector.
func (f CollectorFunc) Collect(ctx context.Context, query, location string, qc model.QueryContext) ([]model.Candidate, int, error) {
	return f(ctx, query, location, qc)
}

// Config bounds scheduling behavior.
type Config struct {
	// WaveSize is how many sources run concurrently per wave. Default: 3.
	WaveSize int
	// MaxPerSource caps the candidates kept from one source, highest scores
	// first. Default: 8.
	MaxPerSource int
}

// DefaultConfig returns the stock wave size and per-source cap.
func DefaultConfig() Config {
	return Config{WaveSize: 3, MaxPerSource: 8}
}

// Outcome is the scheduler's result: every per-source result (failures
// included, for observability) plus the merged candidate list sorted by
// overall score.
type Outcome struct {
	Results      []model.SourceResult
	Merged       []model.Candidate
	Waves        int
	EarlyStopped bool
	StopReason   string
	CacheHits    int
}

// Scheduler fans requested sources out in waves. It is shared across
// requests; the per-request state lives in the allocator passed to Run.
type Scheduler struct {
	cfg        Config
	collectors map[string]Collector
	cache      *cache.Cache
	catalog    *registry.Catalog
}

// New creates a scheduler over the given collectors.
func New(cfg Config, collectors map[string]Collector, c *cache.Cache, catalog *registry.Catalog) *Scheduler {
	if cfg.WaveSize < 1 {
		cfg.WaveSize = DefaultConfig().WaveSize
	}
	if cfg.MaxPerSource < 1 {
		cfg.MaxPerSource = DefaultConfig().MaxPerSource
	}
	if catalog == nil {
		catalog = registry.Default()
	}
	return &Scheduler{
		cfg:        cfg,
		collectors: collectors,
		cache:      c,
		catalog:    catalog,
	}
}

// Run executes the request's sources to completion, timeout, or early stop.
// A single source failing or timing out is isolated and recorded; only
// budget exhaustion or running out of waves ends the loop.
func (s *Scheduler) Run(ctx context.Context, req model.CollectionRequest, alloc *budget.Allocator) Outcome {
	log := zap.L().With(zap.String("request_id", req.ID))

	ordered := Order(req.Sources, req.Query, s.catalog)
	waves := partition(ordered, s.cfg.WaveSize)

	var out Outcome
	var progress budget.Progress

	for wi, wave := range waves {
		if !alloc.ShouldContinueCollecting(progress) {
			if alloc.Remaining() <= 0 {
				out.StopReason = "budget exhausted"
			} else {
				out.EarlyStopped = true
				out.StopReason = "early-stop heuristic satisfied"
			}
			log.Info("scheduler: stopping before wave",
				zap.Int("wave", wi),
				zap.String("reason", out.StopReason),
			)
			break
		}

		waveStart := time.Now()
		results := s.runWave(ctx, req, wave, alloc)
		out.Waves++

		for _, r := range results {
			out.Results = append(out.Results, r)
			if r.FromCache {
				out.CacheHits++
			}
			out.Merged = append(out.Merged, r.Candidates...)
		}
		progress = progressOf(out.Results, out.Merged)

		log.Info("scheduler: wave settled",
			zap.Int("wave", wi),
			zap.Strings("sources", wave),
			zap.Duration("took", time.Since(waveStart)),
			zap.Int("validated_total", progress.ValidatedCandidates),
			zap.Int("succeeded_sources", progress.SucceededSources),
			zap.Float64("mean_score", progress.MeanScore),
		)
	}

	if out.StopReason == "" {
		out.StopReason = "all sources attempted"
	}

	sort.SliceStable(out.Merged, func(i, j int) bool {
		return out.Merged[i].Scores.Overall > out.Merged[j].Scores.Overall
	})

	if s.cache != nil {
		s.cache.Prune()
	}
	return out
}

// runWave launches every source in the wave concurrently and waits for all
// of them to settle. The wave boundary is the only synchronization point.
func (s *Scheduler) runWave(ctx context.Context, req model.CollectionRequest, wave []string, alloc *budget.Allocator) []model.SourceResult {
	results := make([]model.SourceResult, len(wave))

	g := new(errgroup.Group)
	for i, name := range wave {
		g.Go(func() error {
			results[i] = s.collectOne(ctx, req, name, alloc.TimeForSource(len(wave)))
			return nil // per-source failures are recorded, never escalated
		})
	}
	_ = g.Wait()
	return results
}

// collectOne resolves a single source: cache first, then the collector under
// its deadline. A deadline elapse abandons the call; a reply arriving later
// is discarded through the buffered channel.
func (s *Scheduler) collectOne(ctx context.Context, req model.CollectionRequest, name string, slice time.Duration) model.SourceResult {
	start := time.Now()
	log := zap.L().With(zap.String("request_id", req.ID), zap.String("source", name))

	if s.cache != nil {
		if cached, ok := s.cache.Get(name, req.Query, req.Location); ok {
			cached.Duration = time.Since(start)
			log.Debug("scheduler: cache hit")
			return cached
		}
	}

	col, ok := s.collectors[name]
	if !ok {
		return errorResult(name, start, fmt.Sprintf("no collector registered for source %q", name))
	}
	if slice <= 0 {
		return errorResult(name, start, "budget exhausted before source started")
	}

	cctx, cancel := context.WithTimeout(ctx, slice)
	defer cancel()

	type reply struct {
		candidates []model.Candidate
		total      int
		err        error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: fmt.Errorf("collector panic: %v", r)}
			}
		}()
		candidates, total, err := col.Collect(cctx, req.Query, req.Location, req.Context)
		ch <- reply{candidates: candidates, total: total, err: err}
	}()

	select {
	case rep := <-ch:
		if rep.err != nil {
			log.Warn("scheduler: source failed", zap.Error(rep.err))
			return errorResult(name, start, rep.err.Error())
		}
		capped := capCandidates(rep.candidates, s.cfg.MaxPerSource, name)
		res := model.SourceResult{
			Source:         name,
			Candidates:     capped,
			TotalFound:     rep.total,
			ValidatedCount: countValidated(capped),
			Duration:       time.Since(start),
		}
		if s.cache != nil {
			s.cache.Put(name, req.Query, req.Location, res)
		}
		return res
	case <-cctx.Done():
		if ctx.Err() != nil {
			log.Warn("scheduler: collection canceled")
			return errorResult(name, start, "collection canceled")
		}
		log.Warn("scheduler: source timed out", zap.Duration("deadline", slice))
		return errorResult(name, start, fmt.Sprintf("timed out after %s", slice))
	}
}

func errorResult(name string, start time.Time, msg string) model.SourceResult {
	return model.SourceResult{
		Source:   name,
		Error:    msg,
		Duration: time.Since(start),
	}
}

// capCandidates keeps at most max candidates, highest overall score first,
// and stamps the platform on entries the collector left blank.
func capCandidates(candidates []model.Candidate, max int, platform string) []model.Candidate {
	out := make([]model.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		if out[i].Platform == "" {
			out[i].Platform = platform
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Scores.Overall > out[j].Scores.Overall
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func countValidated(candidates []model.Candidate) int {
	n := 0
	for _, c := range candidates {
		if c.Validated() {
			n++
		}
	}
	return n
}

// progressOf recomputes the early-stop inputs from everything settled so far.
func progressOf(results []model.SourceResult, merged []model.Candidate) budget.Progress {
	p := budget.Progress{}
	for _, r := range results {
		p.ValidatedCandidates += r.ValidatedCount
		if r.OK() {
			p.SucceededSources++
		}
	}
	if len(merged) > 0 {
		var sum float64
		for _, c := range merged {
			sum += c.Scores.Overall
		}
		p.MeanScore = sum / float64(len(merged))
	}
	return p
}
