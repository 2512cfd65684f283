package googlecse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kec-hub/opportunity-engine/tools/websearch/models"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

const providerName = "googlecse"

// Search queries a Google Programmable Search Engine (Custom Search JSON
// API). The API caps num at 10 per request.
type Search struct {
	APIKey  string
	CX      string
	BaseURL string // overridable for tests
	Client  *http.Client
}

func (s Search) Search(ctx context.Context, q string, limit int) ([]models.Hit, error) {
	if limit > 10 {
		limit = 10
	}
	base := s.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	params := url.Values{}
	params.Set("key", s.APIKey)
	params.Set("cx", s.CX)
	params.Set("q", q)
	params.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, models.Errf(providerName, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

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
		return nil, models.Errf(providerName,
			"request failed (status=%d): check that the Custom Search API is enabled, the key and CX are correct, and quota remains", resp.StatusCode)
	}

	var raw struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, models.Errf(providerName, "malformed response: %v", err)
	}

	var out []models.Hit
	for i, it := range raw.Items {
		if i >= limit {
			break
		}
		out = append(out, models.Hit{
			Title:   it.Title,
			URL:     it.Link,
			Snippet: it.Snippet,
			Source:  providerName,
		})
	}
	return out, nil
}
