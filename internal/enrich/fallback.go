package enrich

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/scoutline/sourcing-cli/internal/model"
)

// The fallbacks below are deterministic substitutes used whenever a service
// call is skipped (open breaker, exhausted budget) or fails. They derive
// everything from fields already on the candidate, so repeated degradation
// always produces the same annotations.

// FallbackValidation applies the rule-based check: a candidate with a name
// and a profile URL passes.
func FallbackValidation(c model.Candidate) (bool, string) {
	if c.Validated() {
		return true, "rule-based: profile has name and URL"
	}
	return false, "rule-based: incomplete profile"
}

// FallbackScore blends the collection-time overall score with the skill
// overlap between the candidate and the query context, on a 0-100 scale.
func FallbackScore(c model.Candidate, qc model.QueryContext) float64 {
	if len(qc.Skills) == 0 {
		return c.Scores.Overall
	}

	want := make(map[string]bool, len(qc.Skills))
	for _, s := range qc.Skills {
		want[strings.ToLower(strings.TrimSpace(s))] = true
	}
	matched := 0
	for _, s := range c.Skills {
		if want[strings.ToLower(strings.TrimSpace(s))] {
			matched++
		}
	}
	overlap := float64(matched) / float64(len(qc.Skills)) * 100

	return 0.6*c.Scores.Overall + 0.4*overlap
}

// FallbackSummary renders a template summary from collection-time fields.
func FallbackSummary(c model.Candidate) string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Title != "" {
		fmt.Fprintf(&b, ", %s", c.Title)
	}
	if c.Location != "" {
		fmt.Fprintf(&b, " (%s)", c.Location)
	}
	fmt.Fprintf(&b, ". Found on %s", c.Platform)
	if len(c.Skills) > 0 {
		n := len(c.Skills)
		if n > 5 {
			n = 5
		}
		fmt.Fprintf(&b, ". Skills: %s", strings.Join(c.Skills[:n], ", "))
	}
	b.WriteString(".")
	return b.String()
}

// FallbackLookupURL builds a web-search URL for manual cross-referencing.
func FallbackLookupURL(c model.Candidate) string {
	if c.Name == "" {
		return ""
	}
	q := c.Name
	if c.Platform != "" {
		q += " " + c.Platform
	}
	return "https://duckduckgo.com/?q=" + url.QueryEscape(q)
}
