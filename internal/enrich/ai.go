package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scoutline/sourcing-cli/internal/model"
	"github.com/scoutline/sourcing-cli/pkg/anthropic"
)

// validatePrompt asks for a plausibility check on a collected profile.
const validatePrompt = `You are validating a candidate profile collected from a public developer platform. Decide whether this looks like a real, individual person's profile (not a bot, organization, or scraping artifact).

Respond with ONLY valid JSON, no other text:
{"valid": true, "note": "brief reason"}`

// scorePrompt asks for a fit score against the search context.
const scorePrompt = `You are scoring how well a candidate profile fits a talent search. Consider skill overlap, seniority signals, and location fit. Score on a scale of 0 to 100.

Respond with ONLY valid JSON, no other text:
{"score": 0, "reasoning": "brief explanation"}`

// summaryPrompt asks for a recruiter-facing one-liner.
const summaryPrompt = `You are writing a two-sentence summary of a candidate profile for a recruiter skimming a result list. Mention the strongest signal first.

Respond with ONLY the summary text, no preamble.`

type validateResponse struct {
	Valid bool   `json:"valid"`
	Note  string `json:"note"`
}

type aiScoreResponse struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// AIServices implements the Validator, Scorer, and Summarizer enrichment
// services on top of the Anthropic API.
type AIServices struct {
	client anthropic.Client
	model  string
}

// NewAIServices creates the AI-backed enrichment services.
func NewAIServices(client anthropic.Client, model string) *AIServices {
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &AIServices{client: client, model: model}
}

// Validate implements Validator.
func (a *AIServices) Validate(ctx context.Context, c model.Candidate) (bool, string, error) {
	text, err := a.ask(ctx, validatePrompt, profileText(c), "validation")
	if err != nil {
		return false, "", err
	}
	var result validateResponse
	if err := parseJSON(text, &result); err != nil {
		return false, "", eris.Wrap(err, "enrich: parse validation response")
	}
	return result.Valid, result.Note, nil
}

// Score implements Scorer.
func (a *AIServices) Score(ctx context.Context, c model.Candidate, qc model.QueryContext) (float64, error) {
	msg := fmt.Sprintf("Search context: skills=%s seniority=%s location=%s\n\n%s",
		strings.Join(qc.Skills, ", "), qc.Seniority, qc.Location, profileText(c))
	text, err := a.ask(ctx, scorePrompt, msg, "scoring")
	if err != nil {
		return 0, err
	}
	var result aiScoreResponse
	if err := parseJSON(text, &result); err != nil {
		return 0, eris.Wrap(err, "enrich: parse score response")
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return result.Score, nil
}

// Summarize implements Summarizer.
func (a *AIServices) Summarize(ctx context.Context, c model.Candidate) (string, error) {
	text, err := a.ask(ctx, summaryPrompt, profileText(c), "summary")
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(text)
	if summary == "" {
		return "", eris.New("enrich: empty summary response")
	}
	return summary, nil
}

func (a *AIServices) ask(ctx context.Context, system, user, service string) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: 256,
		System:    []anthropic.SystemBlock{{Text: system}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", eris.Wrapf(err, "enrich: %s request", service)
	}
	resp.Usage.LogCost(a.model, service)

	text := resp.Text()
	if text == "" {
		return "", eris.Errorf("enrich: empty %s response", service)
	}
	return text, nil
}

// parseJSON finds and decodes the JSON object in a model response, which may
// carry surrounding text.
func parseJSON(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return eris.Errorf("no JSON in response: %s", text)
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

// profileText renders a candidate for a prompt.
func profileText(c model.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	if c.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", c.Title)
	}
	if c.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", c.Location)
	}
	if len(c.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(c.Skills, ", "))
	}
	fmt.Fprintf(&b, "Platform: %s\nProfile: %s\n", c.Platform, c.ProfileURL)
	return b.String()
}
