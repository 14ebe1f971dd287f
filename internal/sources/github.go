package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/pkg/github"
)

// GitHubCollector turns GitHub user search hits into candidates. Follower
// and repository counts drive the social-proof and experience dimensions.
type GitHubCollector struct {
	client  github.Client
	perPage int
}

// NewGitHub creates the GitHub collector.
func NewGitHub(client github.Client, perPage int) *GitHubCollector {
	if perPage <= 0 {
		perPage = 8
	}
	return &GitHubCollector{client: client, perPage: perPage}
}

// Collect implements scheduler.Collector.
func (g *GitHubCollector) Collect(ctx context.Context, query, location string, qc model.QueryContext) ([]model.Candidate, int, error) {
	q := query
	if location != "" {
		q = fmt.Sprintf("%s location:%q", query, location)
	}

	resp, err := g.client.SearchUsers(ctx, q, g.perPage)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sources: github search")
	}

	candidates := make([]model.Candidate, 0, len(resp.Items))
	for _, u := range resp.Items {
		name := u.Name
		if name == "" {
			name = u.Login
		}
		scores := model.ScoreSet{
			SkillMatch:  skillMatch(u.Bio+" "+u.Login, qc.Skills),
			Experience:  clamp(2 * float64(u.Repos)),
			SocialProof: logScale(u.Followers, 25),
		}
		scores.Reputation = scores.SocialProof
		scores.Overall = overall(scores)

		candidates = append(candidates, model.Candidate{
			Name:       name,
			Title:      firstLine(u.Bio),
			Location:   u.Location,
			Skills:     matchedSkills(u.Bio, qc.Skills),
			Platform:   "github",
			ProfileURL: u.HTMLURL,
			Scores:     scores,
		})
	}
	return candidates, resp.TotalCount, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func matchedSkills(haystack string, skills []string) []string {
	lower := strings.ToLower(haystack)
	var out []string
	for _, s := range skills {
		if strings.Contains(lower, strings.ToLower(s)) {
			out = append(out, s)
		}
	}
	return out
}
