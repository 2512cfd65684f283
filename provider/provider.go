// Package provider abstracts the optional LLM-backed query expansion
// service. Exactly one backend is active per deployment; the engine
// treats it as unreliable and always keeps a non-LLM fallback.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/kec-hub/opportunity-engine/internal/profile"
	groq_provider "github.com/kec-hub/opportunity-engine/provider/groq"
	"github.com/kec-hub/opportunity-engine/provider/models"
)

// Client names an expansion backend.
type Client string

const (
	Groq Client = "groq"
)

// Expander generates short, higher-precision search queries for a profile.
// Implementations must respect ctx and return an error rather than block.
type Expander interface {
	Expand(ctx context.Context, sig profile.Signals, max int) ([]string, error)
}

// Candidate is one accepted result offered to the link screen.
type Candidate = models.Candidate

// MaxScreenCandidates mirrors the per-call candidate cap screeners apply.
const MaxScreenCandidates = models.MaxScreenCandidates

// Screener prunes candidates down to the URLs that look like real
// application pages. It is a best-effort second pass: callers keep the
// full candidate list when it errors or returns nothing.
type Screener interface {
	Screen(ctx context.Context, sig profile.Signals, candidates []Candidate) ([]string, error)
}

var ErrUnsupportedClient = errors.New("provider: unsupported expansion client")

// NewExpander creates the configured expansion client.
func NewExpander(client Client, apiKey, model string, timeout time.Duration) (Expander, error) {
	switch client {
	case Groq:
		return groq_provider.NewClient(apiKey, model, 0.2, 256, timeout), nil
	default:
		return nil, ErrUnsupportedClient
	}
}
