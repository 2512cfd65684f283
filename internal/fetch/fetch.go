// Package fetch fans planned queries out to the active search provider
// with a bounded worker pool under one shared deadline. Partial success
// is success: whatever completed before the deadline is returned, and
// errors are captured as diagnostics instead of failing the call.
package fetch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/kec-hub/opportunity-engine/internal/planner"
	"github.com/kec-hub/opportunity-engine/tools/websearch"
	"github.com/kec-hub/opportunity-engine/tools/websearch/models"
)

// maxWorkers bounds parallel provider calls regardless of configuration.
const maxWorkers = 8

// TaggedHit is a provider hit annotated with the origin of the query that
// produced it, so normalization can propagate the match method.
type TaggedHit struct {
	Hit    models.Hit
	Origin planner.Origin
}

// Outcome is the merged result of one fan-out. FirstErr holds the first
// failing query's error message verbatim, and only when no query
// produced hits; it is a diagnostic, never a failure. OK and Failed
// count individual query outcomes.
type Outcome struct {
	Hits     []TaggedHit
	Used     bool
	FirstErr string
	OK       int
	Failed   int
}

// Orchestrator executes planned queries against one provider.
type Orchestrator struct {
	searcher     websearch.Searcher // nil when web search is disabled
	workers      int
	perQuery     int
	queryTimeout time.Duration
	logger       *log.Logger
}

// New creates an Orchestrator. searcher may be nil, in which case Fetch
// short-circuits to an empty outcome.
func New(searcher websearch.Searcher, workers, perQuery int, queryTimeout time.Duration) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if perQuery < 1 {
		perQuery = 8
	}
	return &Orchestrator{
		searcher:     searcher,
		workers:      workers,
		perQuery:     perQuery,
		queryTimeout: queryTimeout,
		logger:       log.New(log.Writer(), "[FETCH] ", log.LstdFlags),
	}
}

// Enabled reports whether a provider is configured.
func (o *Orchestrator) Enabled() bool { return o.searcher != nil }

// Fetch runs all queries concurrently and merges completed results in
// plan order, which keeps downstream dedup and ranking deterministic.
func (o *Orchestrator) Fetch(ctx context.Context, queries []planner.PlannedQuery) Outcome {
	if o.searcher == nil || len(queries) == 0 {
		return Outcome{}
	}

	type slot struct {
		hits []models.Hit
		err  error
	}
	slots := make([]slot, len(queries))

	workers := o.workers
	if workers > len(queries) {
		workers = len(queries)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				qctx := ctx
				var cancel context.CancelFunc
				if o.queryTimeout > 0 {
					qctx, cancel = context.WithTimeout(ctx, o.queryTimeout)
				}
				hits, err := o.searcher.Search(qctx, queries[i].Query, o.perQuery)
				if cancel != nil {
					cancel()
				}
				slots[i] = slot{hits: hits, err: err}
			}
		}()
	}

feed:
	for i := range queries {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	out := Outcome{Used: true}
	firstErr := ""
	for i, s := range slots {
		if s.err != nil {
			out.Failed++
			o.logger.Printf("query %q failed: %v", queries[i].Query, s.err)
			// Deadline cuts are the shared budget running out, not a
			// provider problem; they never become the diagnostic.
			if firstErr == "" && !errors.Is(s.err, context.DeadlineExceeded) && !errors.Is(s.err, context.Canceled) {
				firstErr = s.err.Error()
			}
			continue
		}
		out.OK++
		for _, h := range s.hits {
			out.Hits = append(out.Hits, TaggedHit{Hit: h, Origin: queries[i].Origin})
		}
	}
	// Partial success is success: the diagnostic surfaces only when the
	// whole fan-out came back empty-handed.
	if len(out.Hits) == 0 {
		out.FirstErr = firstErr
	}
	return out
}
