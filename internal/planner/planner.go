// Package planner turns profile signals into a small, ordered set of
// search queries. Deterministic base queries are the fallback floor;
// LLM-expanded queries are optional, bounded by a timeout, and placed
// first when available.
package planner

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/kec-hub/opportunity-engine/internal/profile"
	"github.com/kec-hub/opportunity-engine/provider"
)

// Origin tags how a query was produced.
type Origin string

const (
	OriginBase     Origin = "base"
	OriginExpanded Origin = "expanded"
)

// PlannedQuery is one provider query plus its origin tag.
type PlannedQuery struct {
	Query  string
	Origin Origin
}

// Planner builds the planned query set for one discovery call.
type Planner struct {
	expander   provider.Expander // nil when expansion is disabled
	timeout    time.Duration
	maxQueries int
	logger     *log.Logger
}

// New creates a Planner. expander may be nil. maxQueries is clamped to
// 1..8 to keep fan-out cost predictable.
func New(expander provider.Expander, timeout time.Duration, maxQueries int) *Planner {
	if maxQueries < 1 {
		maxQueries = 1
	}
	if maxQueries > 8 {
		maxQueries = 8
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Planner{
		expander:   expander,
		timeout:    timeout,
		maxQueries: maxQueries,
		logger:     log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// ExpansionEnabled reports whether an expansion service is configured.
func (p *Planner) ExpansionEnabled() bool { return p.expander != nil }

// Plan returns the planned queries and whether expansion contributed any.
// Expansion failure is recovered here and never propagates. The plan is
// bounded by maxQueries and always retains at least one base query.
func (p *Planner) Plan(ctx context.Context, sig profile.Signals) ([]PlannedQuery, bool) {
	base := p.baseQueries(sig)

	var expanded []PlannedQuery
	used := false
	if p.expander != nil {
		ectx, cancel := context.WithTimeout(ctx, p.timeout)
		queries, err := p.expander.Expand(ectx, sig, p.maxQueries)
		cancel()
		if err != nil {
			p.logger.Printf("query expansion failed, using base queries only: %v", err)
		} else {
			for _, q := range queries {
				// Bias toward real application pages, like the base templates.
				expanded = append(expanded, PlannedQuery{Query: q + " apply", Origin: OriginExpanded})
			}
			used = len(expanded) > 0
		}
	}

	// Expanded first (assumed higher precision), then base. The cap
	// bounds the total; the last slot falls back to a base query so the
	// deterministic floor always survives.
	merged := append(append([]PlannedQuery{}, expanded...), base...)
	out := dedupe(merged)
	if len(out) > p.maxQueries {
		kept := append([]PlannedQuery{}, out[:p.maxQueries]...)
		if !containsOrigin(kept, OriginBase) {
			for _, pq := range out[p.maxQueries:] {
				if pq.Origin == OriginBase {
					kept[len(kept)-1] = pq
					break
				}
			}
		}
		out = kept
	}
	if !containsOrigin(out, OriginExpanded) {
		used = false
	}
	return out, used
}

func (p *Planner) baseQueries(sig profile.Signals) []PlannedQuery {
	seeds := append(append([]string{}, sig.Skills...), sig.Interests...)
	if len(seeds) == 0 {
		if sig.Department != "" && sig.Department != "Unknown" {
			seeds = []string{sig.Department}
		} else {
			seeds = []string{"engineering"}
		}
	}
	if len(seeds) > 3 {
		seeds = seeds[:3]
	}

	out := make([]PlannedQuery, 0, len(seeds)+1)
	for _, term := range seeds {
		out = append(out, PlannedQuery{Query: term + " internship apply", Origin: OriginBase})
	}
	out = append(out, PlannedQuery{Query: "fresher software engineer apply", Origin: OriginBase})
	return out
}

// dedupe drops duplicates case-insensitively after whitespace
// normalization, keeping the first occurrence.
func dedupe(in []PlannedQuery) []PlannedQuery {
	out := make([]PlannedQuery, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, pq := range in {
		q := strings.Join(strings.Fields(pq.Query), " ")
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, PlannedQuery{Query: q, Origin: pq.Origin})
	}
	return out
}

func containsOrigin(in []PlannedQuery, origin Origin) bool {
	for _, pq := range in {
		if pq.Origin == origin {
			return true
		}
	}
	return false
}
