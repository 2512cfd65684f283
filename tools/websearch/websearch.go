// Package websearch defines the search provider capability and a factory
// selecting one concrete implementation per deployment.
package websearch

import (
	"context"
	"errors"

	"github.com/kec-hub/opportunity-engine/tools/websearch/brave"
	"github.com/kec-hub/opportunity-engine/tools/websearch/googlecse"
	"github.com/kec-hub/opportunity-engine/tools/websearch/models"
	"github.com/kec-hub/opportunity-engine/tools/websearch/serper"
)

// Searcher runs one query against the active provider. Zero hits is a
// success; every failure mode surfaces as a *models.ProviderError.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]models.Hit, error)
}

type Provider string

const (
	SerperProvider    Provider = "serper"
	BraveProvider     Provider = "brave"
	GoogleCSEProvider Provider = "googlecse"
)

// Credentials carries provider secrets. CX is only used by Google CSE.
type Credentials struct {
	APIKey string
	CX     string
}

var ErrUnsupportedProvider = errors.New("websearch: unsupported provider")

// NewSearcher returns the adapter for the configured provider.
func NewSearcher(provider Provider, creds Credentials) (Searcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{APIKey: creds.APIKey}, nil
	case BraveProvider:
		return brave.Search{APIKey: creds.APIKey}, nil
	case GoogleCSEProvider:
		return googlecse.Search{APIKey: creds.APIKey, CX: creds.CX}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
