// Package budget implements wall-clock accounting for a single collection
// request: how much time remains, how large a slice each source or
// enrichment call may consume, and whether collection should keep going.
package budget

import (
	"sync"
	"time"
)

// Config bounds the slices handed out by the allocator and holds the
// early-stop thresholds consulted by ShouldContinueCollecting. The stop
// thresholds are heuristic defaults, not validated business rules; override
// them per deployment.
type Config struct {
	// SourceCeiling caps the slice for a single source so one slow source
	// cannot consume the whole budget. Default: 20s.
	SourceCeiling time.Duration

	// SourceFloor is the smallest slice a source is ever given. Default: 2s.
	SourceFloor time.Duration

	// EnrichmentSlice caps the slice for one enrichment call. Default: 5s.
	EnrichmentSlice time.Duration

	// EnrichmentMinimum is the least remaining time required to attempt any
	// enrichment call at all. Default: 3s.
	EnrichmentMinimum time.Duration

	// StopCandidates is the validated-candidate count required to stop
	// collecting early. Default: 15.
	StopCandidates int

	// StopSources is the number of sources that must have succeeded without
	// error before stopping early. Default: 2.
	StopSources int

	// StopMeanScore is the minimum mean candidate score required to stop
	// early. Default: 60.
	StopMeanScore float64
}

// DefaultConfig returns the stock slice bounds and stop thresholds.
func DefaultConfig() Config {
	return Config{
		SourceCeiling:     20 * time.Second,
		SourceFloor:       2 * time.Second,
		EnrichmentSlice:   5 * time.Second,
		EnrichmentMinimum: 3 * time.Second,
		StopCandidates:    15,
		StopSources:       2,
		StopMeanScore:     60,
	}
}

// Progress is a snapshot of aggregate collection quality, computed by the
// scheduler after each wave settles.
type Progress struct {
	ValidatedCandidates int
	SucceededSources    int
	MeanScore           float64
}

// Allocator tracks one request's deadline. It holds no mutable state besides
// the start instant, so reads are safe from any goroutine once Start has
// been called; elapsed time comes from the monotonic clock.
type Allocator struct {
	cfg Config

	mu      sync.Mutex
	started bool
	startAt time.Time
	total   time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates an allocator, filling in defaults for any zero config field.
func New(cfg Config) *Allocator {
	def := DefaultConfig()
	if cfg.SourceCeiling <= 0 {
		cfg.SourceCeiling = def.SourceCeiling
	}
	if cfg.SourceFloor <= 0 {
		cfg.SourceFloor = def.SourceFloor
	}
	if cfg.EnrichmentSlice <= 0 {
		cfg.EnrichmentSlice = def.EnrichmentSlice
	}
	if cfg.EnrichmentMinimum <= 0 {
		cfg.EnrichmentMinimum = def.EnrichmentMinimum
	}
	if cfg.StopCandidates <= 0 {
		cfg.StopCandidates = def.StopCandidates
	}
	if cfg.StopSources <= 0 {
		cfg.StopSources = def.StopSources
	}
	if cfg.StopMeanScore <= 0 {
		cfg.StopMeanScore = def.StopMeanScore
	}
	return &Allocator{
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// Start records the start instant and total budget. Only the first call per
// allocator has any effect.
func (a *Allocator) Start(total time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true
	a.startAt = a.nowFunc()
	a.total = total
}

// Remaining returns the unspent portion of the budget, floored at zero.
// Before Start it returns zero.
func (a *Allocator) Remaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return 0
	}
	rem := a.total - a.nowFunc().Sub(a.startAt)
	if rem < 0 {
		return 0
	}
	return rem
}

// TimeForSource splits the remaining time evenly across the sources still to
// be scheduled in the current wave, bounded by the configured ceiling and
// floor. With nothing remaining it returns zero.
func (a *Allocator) TimeForSource(remainingInWave int) time.Duration {
	rem := a.Remaining()
	if rem <= 0 {
		return 0
	}
	if remainingInWave < 1 {
		remainingInWave = 1
	}
	slice := rem / time.Duration(remainingInWave)
	if slice > a.cfg.SourceCeiling {
		slice = a.cfg.SourceCeiling
	}
	if slice < a.cfg.SourceFloor {
		slice = a.cfg.SourceFloor
	}
	return slice
}

// TimeForEnrichmentCall returns the slice for one enrichment call, or zero
// when the remaining budget is below the enrichment minimum — in which case
// the caller must skip enrichment and use the deterministic fallback.
func (a *Allocator) TimeForEnrichmentCall() time.Duration {
	rem := a.Remaining()
	if rem < a.cfg.EnrichmentMinimum {
		return 0
	}
	if rem > a.cfg.EnrichmentSlice {
		return a.cfg.EnrichmentSlice
	}
	return rem
}

// SourceCeiling exposes the per-source cap, used by callers to reason about
// the bounded-overrun guarantee.
func (a *Allocator) SourceCeiling() time.Duration {
	return a.cfg.SourceCeiling
}

// ShouldContinueCollecting reports whether another wave should run: true
// while budget remains and the early-stop heuristic is not yet satisfied.
func (a *Allocator) ShouldContinueCollecting(p Progress) bool {
	if a.Remaining() <= 0 {
		return false
	}
	return !a.EarlyStopSatisfied(p)
}

// EarlyStopSatisfied reports whether enough good data has been collected to
// return early. All three conditions must hold simultaneously.
func (a *Allocator) EarlyStopSatisfied(p Progress) bool {
	return p.ValidatedCandidates >= a.cfg.StopCandidates &&
		p.SucceededSources >= a.cfg.StopSources &&
		p.MeanScore >= a.cfg.StopMeanScore
}
