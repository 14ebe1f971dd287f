package sources

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/pkg/stackoverflow"
)

// StackOverflowCollector maps Stack Exchange users into candidates.
// Reputation dominates; badge counts feed social proof and the last access
// date feeds freshness.
type StackOverflowCollector struct {
	client   stackoverflow.Client
	pageSize int
	nowFunc  func() time.Time
}

// NewStackOverflow creates the Stack Overflow collector.
func NewStackOverflow(client stackoverflow.Client, pageSize int) *StackOverflowCollector {
	if pageSize <= 0 {
		pageSize = 8
	}
	return &StackOverflowCollector{client: client, pageSize: pageSize, nowFunc: time.Now}
}

// Collect implements scheduler.Collector.
func (s *StackOverflowCollector) Collect(ctx context.Context, query, location string, qc model.QueryContext) ([]model.Candidate, int, error) {
	resp, err := s.client.SearchUsers(ctx, query, s.pageSize)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sources: stackoverflow search")
	}

	candidates := make([]model.Candidate, 0, len(resp.Items))
	for _, u := range resp.Items {
		scores := model.ScoreSet{
			Reputation:  logScale(u.Reputation, 20),
			SocialProof: clamp(5*float64(u.BadgeCounts.Gold) + float64(u.BadgeCounts.Silver) + 0.2*float64(u.BadgeCounts.Bronze)),
			Freshness:   s.freshness(u.LastAccessDate),
			SkillMatch:  skillMatch(u.DisplayName, qc.Skills),
		}
		scores.Overall = overall(scores)

		candidates = append(candidates, model.Candidate{
			Name:       u.DisplayName,
			Location:   u.Location,
			Platform:   "stackoverflow",
			ProfileURL: u.Link,
			Scores:     scores,
		})
	}
	return candidates, len(resp.Items), nil
}

// freshness decays with time since the user's last visit.
func (s *StackOverflowCollector) freshness(lastAccess int64) float64 {
	if lastAccess <= 0 {
		return 0
	}
	idle := s.nowFunc().Sub(time.Unix(lastAccess, 0))
	switch {
	case idle <= 30*24*time.Hour:
		return 100
	case idle <= 180*24*time.Hour:
		return 60
	default:
		return 25
	}
}
