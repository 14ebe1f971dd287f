package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// QueryContext is the structured search context shared between the
// orchestrator and every source collector. Collectors use it to build
// platform-specific queries; it is never mutated after request creation.
type QueryContext struct {
	Skills    []string `json:"skills,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Seniority string   `json:"seniority,omitempty"`
	Location  string   `json:"location,omitempty"`
}

// CollectionRequest describes one candidate search. It is created once per
// user search and never mutated.
type CollectionRequest struct {
	ID            string       `json:"id"`
	Query         string       `json:"query"`
	Location      string       `json:"location,omitempty"`
	Sources       []string     `json:"sources"`
	BudgetSeconds int          `json:"budget_seconds"`
	Context       QueryContext `json:"context"`
}

// NewCollectionRequest builds a request with a fresh ID and trimmed inputs.
func NewCollectionRequest(query, location string, sources []string, budgetSeconds int, qc QueryContext) CollectionRequest {
	return CollectionRequest{
		ID:            uuid.NewString(),
		Query:         strings.TrimSpace(query),
		Location:      strings.TrimSpace(location),
		Sources:       sources,
		BudgetSeconds: budgetSeconds,
		Context:       qc,
	}
}

// Validate rejects requests that cannot be scheduled. This is the only error
// surfaced to callers as a failure of the whole operation; everything else
// is absorbed into per-source metadata.
func (r CollectionRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return eris.New("request: query is required")
	}
	if len(r.Sources) == 0 {
		return eris.New("request: at least one source is required")
	}
	if r.BudgetSeconds <= 0 {
		return eris.Errorf("request: budget must be positive, got %d", r.BudgetSeconds)
	}
	return nil
}

// Budget returns the total time budget as a duration.
func (r CollectionRequest) Budget() time.Duration {
	return time.Duration(r.BudgetSeconds) * time.Second
}
