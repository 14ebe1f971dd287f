package model

// ScoreSet holds the per-dimension scores for a candidate on a 0-100 scale.
type ScoreSet struct {
	Overall     float64 `json:"overall"`
	SkillMatch  float64 `json:"skill_match"`
	Experience  float64 `json:"experience"`
	Reputation  float64 `json:"reputation"`
	Freshness   float64 `json:"freshness"`
	SocialProof float64 `json:"social_proof"`
}

// Enrichment holds fields added by the post-collection enrichment stage.
// Services only ever add or overwrite these fields; collection-time fields
// on the candidate are never touched by enrichment.
type Enrichment struct {
	Validated        bool     `json:"validated"`
	ValidationNote   string   `json:"validation_note,omitempty"`
	AIScore          float64  `json:"ai_score,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	CrossRefURL      string   `json:"cross_ref_url,omitempty"`
	DegradedServices []string `json:"degraded_services,omitempty"`
}

// Candidate is a platform-agnostic profile assembled from one source.
type Candidate struct {
	Name       string     `json:"name"`
	Title      string     `json:"title,omitempty"`
	Location   string     `json:"location,omitempty"`
	Skills     []string   `json:"skills,omitempty"`
	Platform   string     `json:"platform"`
	ProfileURL string     `json:"profile_url,omitempty"`
	Scores     ScoreSet   `json:"scores"`
	Enrichment Enrichment `json:"enrichment"`
}

// Validated reports whether the candidate carries enough identity to be
// counted toward the early-stop heuristic: a name plus a resolvable profile.
func (c Candidate) Validated() bool {
	return c.Name != "" && c.ProfileURL != ""
}

// Clone returns a deep copy of the candidate. Slices are copied so the
// original is never aliased by the returned value.
func (c Candidate) Clone() Candidate {
	out := c
	if c.Skills != nil {
		out.Skills = append([]string(nil), c.Skills...)
	}
	if c.Enrichment.DegradedServices != nil {
		out.Enrichment.DegradedServices = append([]string(nil), c.Enrichment.DegradedServices...)
	}
	return out
}
