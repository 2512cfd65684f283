package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kec-hub/opportunity-engine/tools/websearch/models"
)

const defaultBaseURL = "https://api.search.brave.com/res/v1/web/search"

const providerName = "brave"

// Search queries the Brave Search API
// (https://api.search.brave.com/app/documentation/web-search).
type Search struct {
	APIKey  string
	BaseURL string // overridable for tests
	Client  *http.Client
}

func (s Search) Search(ctx context.Context, q string, limit int) ([]models.Hit, error) {
	base := s.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	endpoint := fmt.Sprintf("%s?q=%s&count=%d", base, url.QueryEscape(q), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.Errf(providerName, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.APIKey)

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
		return nil, models.Errf(providerName, "request failed (status=%d): check Brave subscription token and quota", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
				PageAge string `json:"page_age"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, models.Errf(providerName, "malformed response: %v", err)
	}

	var out []models.Hit
	for i, r := range raw.Web.Results {
		if i >= limit {
			break
		}
		out = append(out, models.Hit{
			Title:     r.Title,
			URL:       r.URL,
			Snippet:   r.Snippet,
			Published: r.PageAge,
			Source:    providerName,
		})
	}
	return out, nil
}
