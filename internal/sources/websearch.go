package sources

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/pkg/websearch"
)

// WebCollector turns search hits into loosely scored candidates. It backs
// two catalog sources: the open web search, and the professional-network
// source via a site filter on profile URLs.
type WebCollector struct {
	client   websearch.Client
	platform string
	site     string
}

// NewWebSearch creates the open web search collector.
func NewWebSearch(client websearch.Client) *WebCollector {
	return &WebCollector{client: client, platform: "websearch"}
}

// NewLinkedIn creates the professional-network collector, restricted to
// public profile pages.
func NewLinkedIn(client websearch.Client) *WebCollector {
	return &WebCollector{client: client, platform: "linkedin", site: "linkedin.com/in"}
}

// Collect implements scheduler.Collector.
func (w *WebCollector) Collect(ctx context.Context, query, location string, qc model.QueryContext) ([]model.Candidate, int, error) {
	q := query
	if location != "" {
		q += " " + location
	}

	var opts []websearch.SearchOption
	if w.site != "" {
		opts = append(opts, websearch.WithSiteFilter(w.site))
	}
	resp, err := w.client.Search(ctx, q, opts...)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "sources: %s search", w.platform)
	}

	candidates := make([]model.Candidate, 0, len(resp.Data))
	for i, hit := range resp.Data {
		name, title := splitTitle(hit.Title)
		if name == "" {
			continue
		}
		// Search engines already rank by relevance; decay down the page and
		// blend in the skill overlap from the snippet text.
		rank := clamp(80 - 8*float64(i))
		match := skillMatch(hit.Description+" "+hit.Content, qc.Skills)
		scores := model.ScoreSet{
			SkillMatch: clamp(0.7*rank + 0.3*match),
		}
		scores.Overall = overall(scores)

		candidates = append(candidates, model.Candidate{
			Name:       name,
			Title:      title,
			Skills:     matchedSkills(hit.Description+" "+hit.Content, qc.Skills),
			Platform:   w.platform,
			ProfileURL: hit.URL,
			Scores:     scores,
		})
	}
	return candidates, len(resp.Data), nil
}

// splitTitle pulls a person's name and headline out of a result title like
// "Ada Lovelace - Staff Engineer - Acme | LinkedIn".
func splitTitle(title string) (name, headline string) {
	title = strings.TrimSpace(title)
	if i := strings.LastIndex(title, " | "); i >= 0 {
		title = title[:i]
	}
	parts := strings.SplitN(title, " - ", 2)
	name = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		headline = strings.TrimSpace(parts[1])
	}
	return name, headline
}
