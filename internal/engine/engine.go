// Package engine wires the discovery pipeline together: plan, fan out,
// normalize, dedup, screen, rank, assemble. Discover always returns a
// usable result; every external failure is degraded into meta
// diagnostics.
package engine

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/kec-hub/opportunity-engine/config"
	"github.com/kec-hub/opportunity-engine/internal/dedup"
	"github.com/kec-hub/opportunity-engine/internal/extract"
	"github.com/kec-hub/opportunity-engine/internal/fetch"
	"github.com/kec-hub/opportunity-engine/internal/planner"
	"github.com/kec-hub/opportunity-engine/internal/profile"
	"github.com/kec-hub/opportunity-engine/internal/rank"
	"github.com/kec-hub/opportunity-engine/internal/telemetry"
	"github.com/kec-hub/opportunity-engine/provider"
	"github.com/kec-hub/opportunity-engine/tools/websearch"
)

// Meta describes what actually happened during one discovery call so the
// caller can render transparency UI. All booleans are always present;
// the nullable fields serialize as explicit null when unset.
type Meta struct {
	GroqEnabled       bool    `json:"groqEnabled"`
	GroqUsed          bool    `json:"groqUsed"`
	WebSearchEnabled  bool    `json:"webSearchEnabled"`
	WebSearchProvider *string `json:"webSearchProvider"`
	WebSearchUsed     bool    `json:"webSearchUsed"`
	WebSearchError    *string `json:"webSearchError"`
}

// Result is one discovery response: ranked opportunities plus meta.
type Result struct {
	Opportunities []extract.Opportunity
	Meta          Meta
}

// Engine runs discovery calls. It is stateless between calls and safe
// for concurrent use.
type Engine struct {
	planner       *planner.Planner
	orchestrator  *fetch.Orchestrator
	normalizer    *extract.Normalizer
	screener      provider.Screener // nil when screening is disabled
	screenTimeout time.Duration
	providerName  string // "" when search is disabled
	maxResults    int
	timeout       time.Duration
	metrics       *telemetry.Metrics
	logger        *log.Logger
}

// Options configures an Engine. Planner and Orchestrator are required;
// the rest default sensibly.
type Options struct {
	Planner       *planner.Planner
	Orchestrator  *fetch.Orchestrator
	Normalizer    *extract.Normalizer
	Screener      provider.Screener
	ScreenTimeout time.Duration
	ProviderName  string
	MaxResults    int
	Timeout       time.Duration
	Metrics       *telemetry.Metrics
}

// New creates an Engine from explicit parts. Tests use this directly.
func New(opts Options) *Engine {
	if opts.Normalizer == nil {
		opts.Normalizer = extract.NewNormalizer(nil)
	}
	if opts.MaxResults < 1 {
		opts.MaxResults = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ScreenTimeout <= 0 {
		opts.ScreenTimeout = 8 * time.Second
	}
	return &Engine{
		planner:       opts.Planner,
		orchestrator:  opts.Orchestrator,
		normalizer:    opts.Normalizer,
		screener:      opts.Screener,
		screenTimeout: opts.ScreenTimeout,
		providerName:  opts.ProviderName,
		maxResults:    opts.MaxResults,
		timeout:       opts.Timeout,
		metrics:       opts.Metrics,
		logger:        log.New(log.Writer(), "[ENGINE] ", log.LstdFlags),
	}
}

// FromConfig assembles the engine from configuration. Missing credentials
// disable the matching feature; they never fail startup.
func FromConfig(cfg *config.Config) *Engine {
	logger := log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)

	var expander provider.Expander
	var screener provider.Screener
	if cfg.Expansion.Enabled() {
		exp, err := provider.NewExpander(
			provider.Client(cfg.Expansion.Provider),
			cfg.Expansion.APIKey,
			cfg.Expansion.Model,
			cfg.Expansion.Timeout,
		)
		if err != nil {
			logger.Printf("expansion disabled: %v", err)
		} else {
			expander = exp
			// The same backend screens candidate links when it can.
			if sc, ok := exp.(provider.Screener); ok {
				screener = sc
			}
		}
	}

	var searcher websearch.Searcher
	providerName := cfg.Search.ProviderName()
	if providerName != "" {
		s, err := websearch.NewSearcher(
			websearch.Provider(providerName),
			websearch.Credentials{APIKey: searchKey(cfg.Search), CX: cfg.Search.GoogleCX},
		)
		if err != nil {
			logger.Printf("web search disabled: %v", err)
			providerName = ""
		} else {
			searcher = s
		}
	}

	return New(Options{
		Planner:       planner.New(expander, cfg.Expansion.Timeout, cfg.Search.MaxQueries),
		Orchestrator:  fetch.New(searcher, cfg.Search.Workers, cfg.Search.ResultsPerQuery, cfg.Search.QueryTimeout),
		Normalizer:    extract.NewNormalizer(cfg.Search.AllowedDomains),
		Screener:      screener,
		ScreenTimeout: cfg.Expansion.Timeout,
		ProviderName:  providerName,
		MaxResults:    cfg.Search.MaxResults,
		Timeout:       cfg.General.DiscoveryTimeout,
		Metrics:       telemetry.New(),
	})
}

func searchKey(s config.SearchConfig) string {
	switch s.ProviderName() {
	case "serper":
		return s.SerperAPIKey
	case "brave":
		return s.BraveAPIKey
	case "googlecse":
		return s.GoogleAPIKey
	}
	return ""
}

// Discover runs one end-to-end discovery call for a profile. It never
// returns an error: failures degrade to an empty or sparse result with
// the meta flags explaining why.
func (e *Engine) Discover(ctx context.Context, sig profile.Signals) Result {
	start := time.Now()
	callID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	meta := Meta{
		GroqEnabled:      e.planner.ExpansionEnabled(),
		WebSearchEnabled: e.orchestrator.Enabled(),
	}
	if meta.WebSearchEnabled {
		name := e.providerName
		meta.WebSearchProvider = &name
	}

	if !meta.WebSearchEnabled {
		// Short-circuit: no provider means nothing to fetch. Planner and
		// expansion are skipped too; there is nothing to run queries on.
		e.logger.Printf("call %s: web search disabled, returning empty result", callID)
		e.observe(start, 0)
		return Result{Opportunities: []extract.Opportunity{}, Meta: meta}
	}

	queries, expansionUsed := e.planner.Plan(ctx, sig)
	meta.GroqUsed = expansionUsed
	if e.metrics != nil && meta.GroqEnabled {
		e.metrics.ObserveExpansion(expansionUsed)
	}

	outcome := e.orchestrator.Fetch(ctx, queries)
	meta.WebSearchUsed = outcome.Used
	if outcome.FirstErr != "" {
		msg := outcome.FirstErr
		meta.WebSearchError = &msg
	}
	if e.metrics != nil {
		e.metrics.ObserveProviderQueries(e.providerName, outcome.OK, outcome.Failed)
	}

	ops := e.normalizer.NormalizeAll(outcome.Hits)
	ops = dedup.Collapse(ops)
	ops = e.screen(ctx, sig, ops)
	ops = rank.Rank(ops, sig)
	if len(ops) > e.maxResults {
		ops = ops[:e.maxResults]
	}

	e.logger.Printf("call %s: %d queries -> %d hits -> %d opportunities in %v",
		callID, len(queries), len(outcome.Hits), len(ops), time.Since(start))
	e.observe(start, len(ops))
	return Result{Opportunities: ops, Meta: meta}
}

// screen asks the optional link screen to prune deduplicated candidates
// down to real application pages. It is strictly best-effort: a failure
// or an empty answer keeps the full list, and only candidates actually
// shown to the screen are subject to pruning.
func (e *Engine) screen(ctx context.Context, sig profile.Signals, ops []extract.Opportunity) []extract.Opportunity {
	if e.screener == nil || len(ops) == 0 {
		return ops
	}

	candidates := make([]provider.Candidate, 0, len(ops))
	for _, op := range ops {
		host := ""
		if u, err := url.Parse(op.SourceURL); err == nil {
			host = u.Host
		}
		candidates = append(candidates, provider.Candidate{
			Title:   op.Title,
			URL:     op.SourceURL,
			Snippet: op.Description,
			Host:    host,
		})
	}

	sctx, cancel := context.WithTimeout(ctx, e.screenTimeout)
	keep, err := e.screener.Screen(sctx, sig, candidates)
	cancel()
	if err != nil {
		e.logger.Printf("link screen failed, keeping all candidates: %v", err)
		return ops
	}
	if len(keep) == 0 {
		return ops
	}

	shown := len(candidates)
	if shown > provider.MaxScreenCandidates {
		shown = provider.MaxScreenCandidates
	}
	keepSet := make(map[string]struct{}, len(keep))
	for _, u := range keep {
		keepSet[u] = struct{}{}
	}
	out := ops[:0:0]
	for i, op := range ops {
		if i >= shown {
			out = append(out, op)
			continue
		}
		if _, ok := keepSet[op.SourceURL]; ok {
			out = append(out, op)
		}
	}
	return out
}

func (e *Engine) observe(start time.Time, results int) {
	if e.metrics != nil {
		e.metrics.ObserveDiscovery(time.Since(start), results)
	}
}
