package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kec-hub/opportunity-engine/tools/websearch/models"
)

const defaultBaseURL = "https://google.serper.dev/search"

const providerName = "serper"

// Search queries the Serper API (https://serper.dev/ docs).
type Search struct {
	APIKey  string
	BaseURL string // overridable for tests
	Client  *http.Client
}

func (s Search) Search(ctx context.Context, q string, limit int) ([]models.Hit, error) {
	payload := map[string]any{"q": q, "num": limit}
	body, _ := json.Marshal(payload)

	base := s.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, strings.NewReader(string(body)))
	if err != nil {
		return nil, models.Errf(providerName, "build request: %v", err)
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, models.Wrapf(providerName, err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, models.Errf(providerName, "request failed (status=%d): check SERPER API key, plan and quota", resp.StatusCode)
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Date    string `json:"date"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, models.Errf(providerName, "malformed response: %v", err)
	}

	var out []models.Hit
	for i, it := range raw.Organic {
		if i >= limit {
			break
		}
		out = append(out, models.Hit{
			Title:     it.Title,
			URL:       it.Link,
			Snippet:   it.Snippet,
			Published: it.Date,
			Source:    providerName,
		})
	}
	return out, nil
}
