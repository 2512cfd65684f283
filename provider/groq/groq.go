// Package groq_provider implements query expansion and candidate link
// screening over Groq's OpenAI-compatible chat completions API.
package groq_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kec-hub/opportunity-engine/internal/profile"
	provider_models "github.com/kec-hub/opportunity-engine/provider/models"
)

const groqAPIURL = "https://api.groq.com/openai/v1/chat/completions"

const DefaultModel = "llama-3.1-8b-instant"

// Message represents a message in a chat completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	Temperature    float64   `json:"temperature"`
	MaxTokens      int       `json:"max_tokens,omitempty"`
	ResponseFormat any       `json:"response_format,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls Groq for query expansion. The zero value is not usable;
// construct with NewClient.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a Groq expansion client.
func NewClient(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) *Client {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		baseURL:     groqAPIURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// WithBaseURL overrides the API endpoint; used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Expand asks the model for up to max short search queries tuned to the
// profile. The prompt demands strict JSON; anything unparseable is an error
// so the planner can fall back to its base queries.
func (c *Client) Expand(ctx context.Context, sig profile.Signals, max int) ([]string, error) {
	if max < 1 {
		max = 1
	}

	payloadContext := map[string]any{
		"level":      sig.Level,
		"department": sig.Department,
		"skills":     cap8(sig.Skills),
		"interests":  cap8(sig.Interests),
	}
	ctxJSON, _ := json.Marshal(payloadContext)

	system := "You generate short search queries to find CURRENT open internships and entry-level opportunities. " +
		"Return STRICT JSON only. No prose."
	user := fmt.Sprintf(
		`Create a JSON object: {"queries": [ ... ]}. `+
			`Rules: 2-6 words per query; avoid senior roles; include 'intern' or 'internship' in most queries; `+
			`no markdown; no trailing comments. Context: %s`, ctxJSON)

	obj, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	rawQueries, ok := obj["queries"].([]any)
	if !ok {
		return nil, fmt.Errorf("expansion response missing queries array")
	}

	out := make([]string, 0, max)
	seen := make(map[string]struct{})
	for _, item := range rawQueries {
		s, ok := item.(string)
		if !ok {
			continue
		}
		q := cleanQuery(s)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

// complete runs one strict-JSON chat completion and returns the parsed
// object from the first choice.
func (c *Client) complete(ctx context.Context, system, user string) (map[string]any, error) {
	reqBody := request{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion API returned status %d (model=%s)", resp.StatusCode, c.model)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion response had no choices")
	}

	obj := extractJSONObject(parsed.Choices[0].Message.Content)
	if obj == nil {
		return nil, fmt.Errorf("completion response was not a JSON object")
	}
	return obj, nil
}

// Screen asks the model which candidate URLs are real application pages
// for internships or entry-level roles. It returns the URLs to keep;
// callers treat an error or an empty list as "keep everything".
func (c *Client) Screen(ctx context.Context, sig profile.Signals, candidates []provider_models.Candidate) ([]string, error) {
	if len(candidates) > provider_models.MaxScreenCandidates {
		candidates = candidates[:provider_models.MaxScreenCandidates]
	}

	payloadContext := map[string]any{
		"level":      sig.Level,
		"department": sig.Department,
		"skills":     cap8(sig.Skills),
		"interests":  cap8(sig.Interests),
	}
	ctxJSON, _ := json.Marshal(payloadContext)

	type payloadCandidate struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
		Host    string `json:"host"`
	}
	payload := make([]payloadCandidate, 0, len(candidates))
	for _, cand := range candidates {
		payload = append(payload, payloadCandidate{
			Title:   cand.Title,
			URL:     cand.URL,
			Snippet: cand.Snippet,
			Host:    cand.Host,
		})
	}
	candJSON, _ := json.Marshal(payload)

	system := "You are a link filter for job opportunities. Return STRICT JSON only. No prose."
	user := fmt.Sprintf(
		`Select only real job posting/apply links for internships or entry-level roles. `+
			`Prefer official company career pages and common ATS pages (Greenhouse/Lever/SmartRecruiters/Workday). `+
			`Avoid unrelated pages, blogs, salary pages, newsletters and low-quality aggregators. `+
			`Return: {"keep": ["https://...", ...]}. Context: %s`+"\nCandidates: %s", ctxJSON, candJSON)

	obj, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	rawKeep, ok := obj["keep"].([]any)
	if !ok {
		return nil, fmt.Errorf("screen response missing keep array")
	}
	out := make([]string, 0, len(rawKeep))
	for _, item := range rawKeep {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "http") {
			out = append(out, s)
		}
	}
	return out, nil
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// extractJSONObject pulls the first JSON object out of model output,
// tolerating markdown code fences around it.
func extractJSONObject(text string) map[string]any {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj
	}
	m := jsonObjectRe.FindString(cleaned)
	if m == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(m), &obj); err != nil {
		return nil
	}
	return obj
}

var queryCharsRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_/+.]`)

var spaceRe = regexp.MustCompile(`\s+`)

// cleanQuery keeps queries short and search-engine friendly.
func cleanQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	if len(q) > 80 {
		cut := 80
		for cut > 0 && !utf8.RuneStart(q[cut]) {
			cut--
		}
		q = q[:cut]
	}
	q = queryCharsRe.ReplaceAllString(q, " ")
	q = spaceRe.ReplaceAllString(q, " ")
	q = strings.TrimSpace(q)
	if len(q) < 3 {
		return ""
	}
	return q
}

func cap8(in []string) []string {
	if len(in) > 8 {
		return in[:8]
	}
	return in
}
