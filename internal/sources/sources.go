// Package sources adapts the platform API clients in pkg/ to the
// scheduler's Collector contract, mapping raw payloads into candidates
// with heuristic collection-time scores.
package sources

import (
	"math"
	"strings"

	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/internal/scheduler"
	"github.com/scoutline/sourcing-cli/pkg/github"
	"github.com/scoutline/sourcing-cli/pkg/stackoverflow"
	"github.com/scoutline/sourcing-cli/pkg/websearch"
)

// Clients bundles the upstream API clients the collectors are built on.
type Clients struct {
	GitHub        github.Client
	StackOverflow stackoverflow.Client
	WebSearch     websearch.Client
}

// Build wires a collector for every source in the default catalog. A nil
// client leaves its source out of the map; the scheduler reports those as
// "no collector registered" rather than failing the whole request.
func Build(c Clients, perSource int) map[string]scheduler.Collector {
	out := make(map[string]scheduler.Collector, 4)
	if c.GitHub != nil {
		out["github"] = NewGitHub(c.GitHub, perSource)
	}
	if c.StackOverflow != nil {
		out["stackoverflow"] = NewStackOverflow(c.StackOverflow, perSource)
	}
	if c.WebSearch != nil {
		out["linkedin"] = NewLinkedIn(c.WebSearch)
		out["websearch"] = NewWebSearch(c.WebSearch)
	}
	return out
}

// clamp bounds v to the 0-100 score scale.
func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// logScale maps an unbounded count (followers, reputation) onto 0-100.
func logScale(n int, perDecade float64) float64 {
	if n <= 0 {
		return 0
	}
	return clamp(perDecade * math.Log10(float64(n)+1))
}

// skillMatch scores how many requested skills appear in the haystack text.
func skillMatch(haystack string, skills []string) float64 {
	if len(skills) == 0 {
		return 0
	}
	lower := strings.ToLower(haystack)
	hits := 0
	for _, s := range skills {
		if strings.Contains(lower, strings.ToLower(s)) {
			hits++
		}
	}
	return clamp(100 * float64(hits) / float64(len(skills)))
}

// overall combines the dimension scores, ignoring dimensions the source
// could not populate so one platform's missing signal does not drag the
// candidate below another's.
func overall(s model.ScoreSet) float64 {
	dims := []float64{s.SkillMatch, s.Experience, s.Reputation, s.Freshness, s.SocialProof}
	var sum float64
	n := 0
	for _, d := range dims {
		if d > 0 {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
