package model

import "time"

// SourceResult records the outcome of querying one source, including
// failures and timeouts so the caller can see exactly what happened.
// Immutable after creation; cached copies are deep-cloned on read.
type SourceResult struct {
	Source         string        `json:"source"`
	Candidates     []Candidate   `json:"candidates"`
	TotalFound     int           `json:"total_found"`
	ValidatedCount int           `json:"validated_count"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration_ms"`
	FromCache      bool          `json:"from_cache"`
}

// OK reports whether the source settled without an error or timeout.
func (r SourceResult) OK() bool {
	return r.Error == ""
}

// Clone returns a deep copy of the result so cache entries are never
// aliased by callers.
func (r SourceResult) Clone() SourceResult {
	out := r
	if r.Candidates != nil {
		out.Candidates = make([]Candidate, len(r.Candidates))
		for i, c := range r.Candidates {
			out.Candidates[i] = c.Clone()
		}
	}
	return out
}

// CollectionStats summarizes one orchestration for observability.
type CollectionStats struct {
	Elapsed          time.Duration `json:"elapsed_ms"`
	Waves            int           `json:"waves"`
	EarlyStopped     bool          `json:"early_stopped"`
	StopReason       string        `json:"stop_reason,omitempty"`
	CacheHits        int           `json:"cache_hits"`
	SourcesSucceeded int           `json:"sources_succeeded"`
	SourcesFailed    int           `json:"sources_failed"`
	DegradedServices []string      `json:"degraded_services,omitempty"`
}

// CollectionResult is the caller-facing output: every per-source result
// (failed ones included) plus the merged, score-ordered candidate list.
type CollectionResult struct {
	RequestID  string          `json:"request_id"`
	Sources    []SourceResult  `json:"sources"`
	Candidates []Candidate     `json:"candidates"`
	Stats      CollectionStats `json:"stats"`
}
