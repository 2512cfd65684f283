package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kec-hub/opportunity-engine/internal/extract"
	"github.com/kec-hub/opportunity-engine/internal/fetch"
	"github.com/kec-hub/opportunity-engine/internal/planner"
	"github.com/kec-hub/opportunity-engine/internal/profile"
	"github.com/kec-hub/opportunity-engine/provider"
	"github.com/kec-hub/opportunity-engine/tools/websearch/models"
)

type stubSearcher struct {
	hitsByQuery map[string][]models.Hit
	err         error
}

func (s *stubSearcher) Search(ctx context.Context, q string, limit int) ([]models.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if hits, ok := s.hitsByQuery[q]; ok {
		return hits, nil
	}
	return nil, nil
}

func newEngine(searcher *stubSearcher, exp stubExpander, hasExpander bool) *Engine {
	var p *planner.Planner
	if hasExpander {
		p = planner.New(exp, 100*time.Millisecond, 4)
	} else {
		p = planner.New(nil, 100*time.Millisecond, 4)
	}
	var o *fetch.Orchestrator
	if searcher != nil {
		o = fetch.New(searcher, 4, 8, time.Second)
	} else {
		o = fetch.New(nil, 4, 8, time.Second)
	}
	name := ""
	if searcher != nil {
		name = "serper"
	}
	return New(Options{Planner: p, Orchestrator: o, ProviderName: name, MaxResults: 20, Timeout: 5 * time.Second})
}

type stubExpander struct {
	queries []string
	fail    bool
}

func (s stubExpander) Expand(ctx context.Context, sig profile.Signals, max int) ([]string, error) {
	if s.fail {
		return nil, context.DeadlineExceeded
	}
	return s.queries, nil
}

func TestDiscoverGracefulDisable(t *testing.T) {
	t.Parallel()
	e := newEngine(nil, stubExpander{}, false)
	start := time.Now()
	res := e.Discover(context.Background(), profile.Signals{Department: "Computer Science"})
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("disabled discovery took %v, want milliseconds", elapsed)
	}
	if res.Meta.WebSearchEnabled || res.Meta.WebSearchUsed {
		t.Fatalf("meta should report search disabled: %+v", res.Meta)
	}
	if res.Meta.WebSearchProvider != nil || res.Meta.WebSearchError != nil {
		t.Fatalf("nullable meta fields should be nil: %+v", res.Meta)
	}
	if res.Opportunities == nil || len(res.Opportunities) != 0 {
		t.Fatalf("opportunities should be an empty slice, got %#v", res.Opportunities)
	}
}

func TestDiscoverProviderFailureIsDiagnosticNotError(t *testing.T) {
	t.Parallel()
	s := &stubSearcher{err: &models.ProviderError{Provider: "serper", Message: "quota exceeded"}}
	e := newEngine(s, stubExpander{}, false)
	res := e.Discover(context.Background(), profile.Signals{Skills: []string{"React"}})
	if len(res.Opportunities) != 0 {
		t.Fatalf("expected no opportunities, got %d", len(res.Opportunities))
	}
	if res.Meta.WebSearchError == nil || *res.Meta.WebSearchError == "" {
		t.Fatalf("webSearchError must carry the diagnostic")
	}
	if !res.Meta.WebSearchUsed {
		t.Fatalf("webSearchUsed should be true: the provider was attempted")
	}
}

func TestDiscoverScenarioDedupAndRank(t *testing.T) {
	t.Parallel()
	hits := []models.Hit{
		{Title: "React Intern at Acme", URL: "https://a.com/1", Snippet: "intern role", Source: "serper"},
		{Title: "Unrelated gardening trainee", URL: "https://b.com/2", Snippet: "trainee outdoors", Source: "serper"},
	}
	dupHit := []models.Hit{
		{Title: "Software Intern - Acme", URL: "https://a.com/1?utm=x", Snippet: "intern role", Source: "serper"},
	}
	s := &stubSearcher{hitsByQuery: map[string][]models.Hit{
		"React internship apply":          hits,
		"fresher software engineer apply": dupHit,
	}}
	e := newEngine(s, stubExpander{}, false)

	res := e.Discover(context.Background(), profile.Signals{
		Department: "Computer Science",
		Skills:     []string{"React", "Python"},
	})

	count := 0
	for _, op := range res.Opportunities {
		if strings.Contains(op.SourceURL, "a.com/1") {
			count++
			if op.Type != extract.KindInternship {
				t.Fatalf("type = %q, want Internship", op.Type)
			}
		}
	}
	if count != 1 {
		t.Fatalf("a.com/1 should appear exactly once, got %d (%+v)", count, res.Opportunities)
	}
	if len(res.Opportunities) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(res.Opportunities))
	}
	if !strings.Contains(res.Opportunities[0].SourceURL, "a.com/1") {
		t.Fatalf("skill-matching opportunity should rank first, got %+v", res.Opportunities[0])
	}
}

func TestDiscoverExpansionFailureStillQueriesBase(t *testing.T) {
	t.Parallel()
	s := &stubSearcher{hitsByQuery: map[string][]models.Hit{}}
	e := newEngine(s, stubExpander{fail: true}, true)
	res := e.Discover(context.Background(), profile.Signals{Skills: []string{"Go"}})
	if !res.Meta.GroqEnabled {
		t.Fatalf("groqEnabled should be true when an expander is configured")
	}
	if res.Meta.GroqUsed {
		t.Fatalf("groqUsed must be false after expansion failure")
	}
	if !res.Meta.WebSearchUsed {
		t.Fatalf("base queries must still reach the provider")
	}
}

func TestDiscoverDeadlinesNeverBlank(t *testing.T) {
	t.Parallel()
	s := &stubSearcher{hitsByQuery: map[string][]models.Hit{
		"fresher software engineer apply": {
			{Title: "SWE Intern at Acme", URL: "https://a.com/1", Snippet: "apply by 2026-04-01", Source: "serper"},
			{Title: "QA Intern at Initech", URL: "https://a.com/2", Snippet: "rolling basis", Source: "serper"},
		},
	}}
	e := newEngine(s, stubExpander{}, false)
	res := e.Discover(context.Background(), profile.Signals{})
	if len(res.Opportunities) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(res.Opportunities))
	}
	for _, op := range res.Opportunities {
		if op.Deadline == "" {
			t.Fatalf("blank deadline on %q", op.Title)
		}
		if op.Deadline != extract.DeadlineOpen {
			if _, err := time.Parse("2006-01-02", op.Deadline); err != nil {
				t.Fatalf("deadline %q is neither ISO nor Open", op.Deadline)
			}
		}
	}
}

type stubScreener struct {
	keep []string
	err  error
}

func (s *stubScreener) Screen(ctx context.Context, sig profile.Signals, candidates []provider.Candidate) ([]string, error) {
	return s.keep, s.err
}

func screeningEngine(searcher *stubSearcher, sc *stubScreener) *Engine {
	return New(Options{
		Planner:      planner.New(nil, 100*time.Millisecond, 4),
		Orchestrator: fetch.New(searcher, 4, 8, time.Second),
		Screener:     sc,
		ProviderName: "serper",
		MaxResults:   20,
		Timeout:      5 * time.Second,
	})
}

func TestDiscoverScreenPrunesToKeptLinks(t *testing.T) {
	t.Parallel()
	s := &stubSearcher{hitsByQuery: map[string][]models.Hit{
		"fresher software engineer apply": {
			{Title: "SWE Intern at Acme", URL: "https://boards.greenhouse.io/acme/1", Snippet: "intern role", Source: "serper"},
			{Title: "QA Intern at Initech", URL: "https://a.com/2", Snippet: "intern role", Source: "serper"},
		},
	}}
	sc := &stubScreener{keep: []string{"https://boards.greenhouse.io/acme/1"}}
	res := screeningEngine(s, sc).Discover(context.Background(), profile.Signals{})
	if len(res.Opportunities) != 1 {
		t.Fatalf("expected 1 screened opportunity, got %d", len(res.Opportunities))
	}
	if res.Opportunities[0].SourceURL != "https://boards.greenhouse.io/acme/1" {
		t.Fatalf("wrong survivor: %+v", res.Opportunities[0])
	}
}

func TestDiscoverScreenFailureKeepsAllCandidates(t *testing.T) {
	t.Parallel()
	s := &stubSearcher{hitsByQuery: map[string][]models.Hit{
		"fresher software engineer apply": {
			{Title: "SWE Intern at Acme", URL: "https://a.com/1", Snippet: "intern role", Source: "serper"},
			{Title: "QA Intern at Initech", URL: "https://a.com/2", Snippet: "intern role", Source: "serper"},
		},
	}}
	for _, sc := range []*stubScreener{
		{err: context.DeadlineExceeded},
		{keep: nil},
	} {
		res := screeningEngine(s, sc).Discover(context.Background(), profile.Signals{})
		if len(res.Opportunities) != 2 {
			t.Fatalf("screen degrade must keep all candidates, got %d", len(res.Opportunities))
		}
	}
}

func TestMetaJSONKeysAlwaysPresent(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(Meta{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"groqEnabled", "groqUsed", "webSearchEnabled", "webSearchProvider", "webSearchUsed", "webSearchError"} {
		if !strings.Contains(string(b), `"`+key+`"`) {
			t.Fatalf("meta JSON missing key %q: %s", key, b)
		}
	}
	if !strings.Contains(string(b), `"webSearchError":null`) {
		t.Fatalf("webSearchError should serialize as explicit null: %s", b)
	}
}
