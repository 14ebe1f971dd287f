package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/scoutline/sourcing-cli/internal/model"
)

func sampleResult(source string) model.SourceResult {
	return model.SourceResult{
		Source: source,
		Candidates: []model.Candidate{
			{Name: "Ada", Platform: source, ProfileURL: "https://example.com/ada", Skills: []string{"go"}},
		},
		TotalFound:     1,
		ValidatedCount: 1,
	}
}

func TestCache_PutGet(t *testing.T) {
	c := New(10 * time.Minute)
	c.Put("github", "golang developer", "Berlin", sampleResult("github"))

	got, ok := c.Get("github", "golang developer", "Berlin")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.FromCache {
		t.Error("expected FromCache flag on served copy")
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Name != "Ada" {
		t.Errorf("unexpected candidates: %+v", got.Candidates)
	}
}

func TestCache_KeyNormalization(t *testing.T) {
	c := New(10 * time.Minute)
	c.Put("github", "  Golang Developer ", " BERLIN ", sampleResult("github"))

	if _, ok := c.Get("github", "golang developer", "berlin"); !ok {
		t.Error("expected hit for case-folded, trimmed key")
	}
	if _, ok := c.Get("stackoverflow", "golang developer", "berlin"); ok {
		t.Error("expected miss for different source")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Now()
	c := New(10 * time.Minute)
	c.nowFunc = func() time.Time { return now }
	c.Put("github", "q", "", sampleResult("github"))

	c.nowFunc = func() time.Time { return now.Add(9 * time.Minute) }
	if _, ok := c.Get("github", "q", ""); !ok {
		t.Error("expected hit inside TTL window")
	}

	c.nowFunc = func() time.Time { return now.Add(11 * time.Minute) }
	if _, ok := c.Get("github", "q", ""); ok {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestCache_ErroredResultsNotCached(t *testing.T) {
	c := New(10 * time.Minute)
	c.Put("github", "q", "", model.SourceResult{Source: "github", Error: "boom"})

	if _, ok := c.Get("github", "q", ""); ok {
		t.Error("errored results must never be cached")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestCache_CopyOnWrite(t *testing.T) {
	c := New(10 * time.Minute)
	orig := sampleResult("github")
	c.Put("github", "q", "", orig)

	// Mutating the original after Put must not leak into the cache.
	orig.Candidates[0].Name = "mutated"

	first, _ := c.Get("github", "q", "")
	if first.Candidates[0].Name != "Ada" {
		t.Errorf("cache entry aliased by caller after Put: %q", first.Candidates[0].Name)
	}

	// Mutating a served copy must not affect later reads.
	first.Candidates[0].Skills[0] = "rust"
	first.Candidates[0].Name = "mutated"

	second, _ := c.Get("github", "q", "")
	if second.Candidates[0].Name != "Ada" || second.Candidates[0].Skills[0] != "go" {
		t.Errorf("cache entry mutated through served copy: %+v", second.Candidates[0])
	}
}

func TestCache_Prune(t *testing.T) {
	now := time.Now()
	c := New(10 * time.Minute)
	c.nowFunc = func() time.Time { return now }
	c.Put("github", "old", "", sampleResult("github"))

	c.nowFunc = func() time.Time { return now.Add(5 * time.Minute) }
	c.Put("github", "fresh", "", sampleResult("github"))

	c.nowFunc = func() time.Time { return now.Add(12 * time.Minute) }
	c.Prune()

	if c.Len() != 1 {
		t.Errorf("expected 1 entry after prune, got %d", c.Len())
	}
	if _, ok := c.Get("github", "fresh", ""); !ok {
		t.Error("fresh entry should survive prune")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New(10 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put("github", "q", "", sampleResult("github"))
			_, _ = c.Get("github", "q", "")
			c.Prune()
		}()
	}
	wg.Wait()
	// Just verifying no race/panic.
}
