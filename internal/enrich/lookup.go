package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/pkg/websearch"
)

// WebLookup implements the cross-reference Lookup service with a web search
// for the candidate's name, returning the first hit that is not the profile
// we already have.
type WebLookup struct {
	client websearch.Client
}

// NewWebLookup creates the web-search-backed lookup service.
func NewWebLookup(client websearch.Client) *WebLookup {
	return &WebLookup{client: client}
}

// CrossReference implements Lookup.
func (l *WebLookup) CrossReference(ctx context.Context, c model.Candidate) (string, error) {
	q := c.Name
	if c.Title != "" {
		q += " " + c.Title
	}

	resp, err := l.client.Search(ctx, q)
	if err != nil {
		return "", eris.Wrap(err, "enrich: cross-reference search")
	}
	for _, hit := range resp.Data {
		if hit.URL == "" || sameProfile(hit.URL, c.ProfileURL) {
			continue
		}
		return hit.URL, nil
	}
	return "", eris.Errorf("enrich: no cross-reference found for %q", c.Name)
}

func sameProfile(a, b string) bool {
	trim := func(u string) string {
		u = strings.TrimPrefix(u, "https://")
		u = strings.TrimPrefix(u, "http://")
		u = strings.TrimPrefix(u, "www.")
		return strings.TrimSuffix(u, "/")
	}
	return trim(a) == trim(b)
}
