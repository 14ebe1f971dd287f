// Package enrich runs the post-collection enrichment stage: the top-scored
// candidates get a small number of expensive calls (validation, AI scoring,
// summarization, cross-reference lookup), each gated by the remaining time
// budget and a per-service circuit breaker, with deterministic fallbacks
// when either gate refuses.
package enrich

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scoutline/sourcing-cli/internal/budget"
	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/internal/resilience"
)

// Enrichment service names. Each gets its own breaker in the shared registry.
const (
	ServiceValidation = "validation"
	ServiceScoring    = "scoring"
	ServiceSummary    = "summary"
	ServiceLookup     = "lookup"
)

// serviceOrder is the sequence services run in for one candidate.
var serviceOrder = []string{ServiceValidation, ServiceScoring, ServiceSummary, ServiceLookup}

// Validator checks that a candidate profile is real and reachable.
type Validator interface {
	Validate(ctx context.Context, c model.Candidate) (bool, string, error)
}

// Scorer produces an AI quality score for a candidate against the query.
type Scorer interface {
	Score(ctx context.Context, c model.Candidate, qc model.QueryContext) (float64, error)
}

// Summarizer produces a short recruiter-facing summary of a candidate.
type Summarizer interface {
	Summarize(ctx context.Context, c model.Candidate) (string, error)
}

// Lookup cross-references a candidate on a third-party index.
type Lookup interface {
	CrossReference(ctx context.Context, c model.Candidate) (string, error)
}

// Config bounds the enrichment stage.
type Config struct {
	// TopK is how many candidates (by overall score) are enriched; the rest
	// pass through unmodified. Default: 5.
	TopK int
	// FanOut is the concurrent candidate limit. Default: 3.
	FanOut int
}

// DefaultConfig returns the stock top-K and fan-out.
func DefaultConfig() Config {
	return Config{TopK: 5, FanOut: 3}
}

// Stage wires the enrichment collaborators to the breaker registry. The
// registry is shared across requests; candidate state is not, so enriching
// one request never blocks another.
type Stage struct {
	cfg        Config
	breakers   *resilience.Registry
	validator  Validator
	scorer     Scorer
	summarizer Summarizer
	lookup     Lookup
}

// New creates an enrichment stage. A nil breaker registry gets defaults.
func New(cfg Config, breakers *resilience.Registry, v Validator, s Scorer, sum Summarizer, l Lookup) *Stage {
	if cfg.TopK < 1 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.FanOut < 1 {
		cfg.FanOut = DefaultConfig().FanOut
	}
	if breakers == nil {
		breakers = resilience.NewRegistry(resilience.DefaultConfig())
	}
	return &Stage{
		cfg:        cfg,
		breakers:   breakers,
		validator:  v,
		scorer:     s,
		summarizer: sum,
		lookup:     l,
	}
}

// Enrich selects the top-K candidates by overall score and runs the service
// sequence against each, up to the fan-out limit. It returns the full
// candidate list (enriched entries in place, the rest untouched) and the set
// of services that degraded to their fallback at least once.
func (st *Stage) Enrich(ctx context.Context, candidates []model.Candidate, qc model.QueryContext, alloc *budget.Allocator) ([]model.Candidate, []string) {
	out := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = c.Clone()
	}

	// Index by score; ties keep arrival order.
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return out[idx[a]].Scores.Overall > out[idx[b]].Scores.Overall
	})
	k := st.cfg.TopK
	if k > len(idx) {
		k = len(idx)
	}

	var mu sync.Mutex
	degraded := make(map[string]bool)
	record := func(service string) {
		mu.Lock()
		degraded[service] = true
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(st.cfg.FanOut)
	for _, i := range idx[:k] {
		g.Go(func() error {
			st.enrichOne(ctx, &out[i], qc, alloc, record)
			return nil // degradation is recorded per candidate, never escalated
		})
	}
	_ = g.Wait()

	names := make([]string, 0, len(degraded))
	for s := range degraded {
		names = append(names, s)
	}
	sort.Strings(names)
	return out, names
}

// enrichOne runs the service sequence for a single candidate. Every gate
// refusal or call failure is replaced by that service's deterministic
// fallback; pre-existing candidate fields are never touched.
func (st *Stage) enrichOne(ctx context.Context, c *model.Candidate, qc model.QueryContext, alloc *budget.Allocator, record func(string)) {
	log := zap.L().With(zap.String("candidate", c.Name), zap.String("platform", c.Platform))

	for _, service := range serviceOrder {
		slice := alloc.TimeForEnrichmentCall()
		if slice <= 0 {
			log.Debug("enrich: budget too low, using fallback", zap.String("service", service))
			st.applyFallback(service, c, qc)
			record(service)
			continue
		}

		br := st.breakers.Get(service)
		err := br.Do(ctx, func(ctx context.Context) error {
			return st.attempt(ctx, service, slice, c, qc)
		})
		if err != nil {
			if !errors.Is(err, resilience.ErrOpen) {
				log.Warn("enrich: service call failed",
					zap.String("service", service),
					zap.Error(err),
				)
			}
			st.applyFallback(service, c, qc)
			record(service)
		}
	}
}

// attempt runs one service call under its own timeout. The collaborator
// works against a snapshot; its result is applied only if it arrives before
// the deadline, so an abandoned call can never mutate the candidate late.
func (st *Stage) attempt(ctx context.Context, service string, slice time.Duration, c *model.Candidate, qc model.QueryContext) error {
	cctx, cancel := context.WithTimeout(ctx, slice)
	defer cancel()

	type reply struct {
		apply func(*model.Candidate)
		err   error
	}
	ch := make(chan reply, 1)
	snapshot := c.Clone()

	go func() {
		switch service {
		case ServiceValidation:
			ok, note, err := st.validator.Validate(cctx, snapshot)
			if err != nil {
				ch <- reply{err: err}
				return
			}
			ch <- reply{apply: func(c *model.Candidate) {
				c.Enrichment.Validated = ok
				c.Enrichment.ValidationNote = note
			}}
		case ServiceScoring:
			score, err := st.scorer.Score(cctx, snapshot, qc)
			if err != nil {
				ch <- reply{err: err}
				return
			}
			ch <- reply{apply: func(c *model.Candidate) {
				c.Enrichment.AIScore = score
			}}
		case ServiceSummary:
			summary, err := st.summarizer.Summarize(cctx, snapshot)
			if err != nil {
				ch <- reply{err: err}
				return
			}
			ch <- reply{apply: func(c *model.Candidate) {
				c.Enrichment.Summary = summary
			}}
		case ServiceLookup:
			url, err := st.lookup.CrossReference(cctx, snapshot)
			if err != nil {
				ch <- reply{err: err}
				return
			}
			ch <- reply{apply: func(c *model.Candidate) {
				c.Enrichment.CrossRefURL = url
			}}
		default:
			ch <- reply{err: eris.Errorf("enrich: unknown service %q", service)}
		}
	}()

	select {
	case rep := <-ch:
		if rep.err != nil {
			return rep.err
		}
		rep.apply(c)
		return nil
	case <-cctx.Done():
		return eris.Errorf("enrich: %s timed out after %s", service, slice)
	}
}

// applyFallback substitutes the deterministic fallback for a service and
// marks the candidate as degraded for it.
func (st *Stage) applyFallback(service string, c *model.Candidate, qc model.QueryContext) {
	switch service {
	case ServiceValidation:
		ok, note := FallbackValidation(*c)
		c.Enrichment.Validated = ok
		c.Enrichment.ValidationNote = note
	case ServiceScoring:
		c.Enrichment.AIScore = FallbackScore(*c, qc)
	case ServiceSummary:
		c.Enrichment.Summary = FallbackSummary(*c)
	case ServiceLookup:
		c.Enrichment.CrossRefURL = FallbackLookupURL(*c)
	}
	for _, d := range c.Enrichment.DegradedServices {
		if d == service {
			return
		}
	}
	c.Enrichment.DegradedServices = append(c.Enrichment.DegradedServices, service)
}
