// Package registry holds the declarative source catalog: which platforms
// exist, their default scheduling priority, and the query keywords that
// boost a source to the front of the wave order.
package registry

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SourceSpec describes one platform in the catalog.
type SourceSpec struct {
	Name string `yaml:"name"`
	// Priority orders sources when no keyword boost applies; lower runs
	// earlier.
	Priority int `yaml:"priority"`
	// Keywords are query substrings that promote this source to the front.
	Keywords []string `yaml:"keywords,omitempty"`
	Enabled  bool     `yaml:"enabled"`
}

// Catalog is the loaded set of source specs.
type Catalog struct {
	specs map[string]SourceSpec
}

// Default returns the built-in catalog: code-hosting first, then Q&A, then
// professional network, then web search.
func Default() *Catalog {
	return fromSpecs([]SourceSpec{
		{Name: "github", Priority: 1, Keywords: []string{"github", "open source", "repository"}, Enabled: true},
		{Name: "stackoverflow", Priority: 2, Keywords: []string{"stackoverflow", "stack overflow"}, Enabled: true},
		{Name: "linkedin", Priority: 3, Keywords: []string{"linkedin"}, Enabled: true},
		{Name: "websearch", Priority: 4, Enabled: true},
	})
}

// Load reads a catalog from a YAML file with a top-level "sources" key.
// Unknown sources requested later simply sort last.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read catalog %s", path)
	}

	var wrapper struct {
		Sources []SourceSpec `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "registry: parse catalog")
	}
	if len(wrapper.Sources) == 0 {
		return nil, eris.Errorf("registry: catalog %s declares no sources", path)
	}

	return fromSpecs(wrapper.Sources), nil
}

func fromSpecs(specs []SourceSpec) *Catalog {
	c := &Catalog{specs: make(map[string]SourceSpec, len(specs))}
	for _, s := range specs {
		c.specs[s.Name] = s
	}
	return c
}

// Spec returns the spec for a source name. Unknown names return a disabled
// spec with a last-place priority.
func (c *Catalog) Spec(name string) SourceSpec {
	if s, ok := c.specs[name]; ok {
		return s
	}
	return SourceSpec{Name: name, Priority: 1 << 16}
}

// Names returns the enabled catalog source names in priority order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.specs))
	for name, s := range c.specs {
		if s.Enabled {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return c.specs[out[i]].Priority < c.specs[out[j]].Priority
	})
	return out
}

// Boosted reports whether the query mentions one of the source's boost
// keywords. Matching is case-insensitive substring matching — priority
// affects order only, never exclusion.
func (c *Catalog) Boosted(name, query string) bool {
	q := strings.ToLower(query)
	for _, kw := range c.Spec(name).Keywords {
		if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
