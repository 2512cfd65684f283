package dedup

import (
	"testing"

	"github.com/kec-hub/opportunity-engine/internal/extract"
)

func op(title, company, url, method string) extract.Opportunity {
	return extract.Opportunity{Title: title, Company: company, SourceURL: url, MatchMethod: method}
}

func TestCollapseByURLIgnoresQueryAndScheme(t *testing.T) {
	t.Parallel()
	in := []extract.Opportunity{
		op("React Intern at Acme", "Acme", "https://a.com/1", extract.MatchMethodBase),
		op("Software Intern - Acme", "Acme", "http://www.a.com/1?utm=x", extract.MatchMethodBase),
		op("Software Intern - Acme", "Acme", "https://a.com/1/", extract.MatchMethodBase),
	}
	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(out), out)
	}
	if out[0].Title != "React Intern at Acme" {
		t.Fatalf("first-seen candidate should survive, got %q", out[0].Title)
	}
}

func TestCollapseByTitleCompany(t *testing.T) {
	t.Parallel()
	in := []extract.Opportunity{
		op("ML Intern", "Acme", "https://a.com/jobs/1", extract.MatchMethodBase),
		op("ml intern", "acme", "https://b.com/jobs/9", extract.MatchMethodBase),
		op("ML Intern", "Initech", "https://c.com/jobs/2", extract.MatchMethodBase),
	}
	out := Collapse(in)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(out), out)
	}
}

func TestCollapsePrefersExpandedOverBase(t *testing.T) {
	t.Parallel()
	in := []extract.Opportunity{
		op("SWE Intern", "Acme", "https://a.com/1", extract.MatchMethodBase),
		op("SWE Intern", "Acme", "https://a.com/1", extract.MatchMethodExpanded),
	}
	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if !out[0].ExpansionAssisted() {
		t.Fatalf("expansion-matched duplicate should win the slot")
	}

	// The reverse order keeps the expanded incumbent.
	out = Collapse([]extract.Opportunity{in[1], in[0]})
	if len(out) != 1 || !out[0].ExpansionAssisted() {
		t.Fatalf("expanded incumbent should survive: %+v", out)
	}
}

func TestCollapseNoPairSharesEitherKey(t *testing.T) {
	t.Parallel()
	in := []extract.Opportunity{
		op("A", "X", "https://a.com/1", extract.MatchMethodBase),
		op("B", "Y", "https://a.com/1?ref=2", extract.MatchMethodBase),
		op("A", "X", "https://c.com/3", extract.MatchMethodBase),
		op("C", "Z", "https://d.com/4", extract.MatchMethodBase),
	}
	out := Collapse(in)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if titleKey(out[i]) == titleKey(out[j]) {
				t.Fatalf("pair %d/%d shares title key", i, j)
			}
			if urlKey(out[i].SourceURL) == urlKey(out[j].SourceURL) {
				t.Fatalf("pair %d/%d shares url key", i, j)
			}
		}
	}
}

func TestURLKey(t *testing.T) {
	t.Parallel()
	a := urlKey("https://www.A.com/jobs/1?utm=x#top")
	b := urlKey("http://a.com/jobs/1/")
	if a == "" || a != b {
		t.Fatalf("urlKey mismatch: %q vs %q", a, b)
	}
	if urlKey("") != "" {
		t.Fatalf("empty URL must produce empty key")
	}
}
