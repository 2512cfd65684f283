// Package extract converts raw provider hits into canonical Opportunity
// records: type inference, deadline parsing, company extraction and junk
// filtering. All of it is heuristic and deterministic; a hit that cannot
// be normalized is skipped, never fatal.
package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kec-hub/opportunity-engine/internal/fetch"
	"github.com/kec-hub/opportunity-engine/internal/planner"
)

// Normalizer maps tagged hits to opportunities.
type Normalizer struct {
	// AllowedDomains restricts hits to these hosts (and their base
	// domains) when non-empty.
	AllowedDomains []string

	logger *log.Logger
}

// NewNormalizer creates a Normalizer with the given domain allowlist.
func NewNormalizer(allowedDomains []string) *Normalizer {
	return &Normalizer{
		AllowedDomains: allowedDomains,
		logger:         log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags),
	}
}

// Normalize converts one tagged hit. ok is false when the hit was
// rejected (junk page, closed listing, disallowed domain, missing
// fields).
func (n *Normalizer) Normalize(th fetch.TaggedHit) (op Opportunity, ok bool) {
	title := cleanText(th.Hit.Title)
	rawURL := strings.TrimSpace(th.Hit.URL)
	if title == "" || rawURL == "" {
		return Opportunity{}, false
	}
	snippet := cleanText(th.Hit.Snippet)

	if !n.domainAllowed(rawURL) {
		return Opportunity{}, false
	}
	if !looksLikeOpportunity(title, snippet, rawURL) {
		n.logger.Printf("skipping non-opportunity hit: %q", title)
		return Opportunity{}, false
	}
	if looksClosed(title + " " + snippet) {
		return Opportunity{}, false
	}

	company := inferCompany(title, hostOf(rawURL))
	kind := inferKind(title + " " + snippet)
	deadline := n.parseDeadline(title + " " + snippet)

	posted := ""
	if ts := parsePostedDate(th.Hit.Published); ts != "" {
		posted = ts
	}

	return Opportunity{
		ID:           hashID("rt-web", rawURL),
		Title:        title,
		Company:      company,
		Type:         kind,
		Source:       th.Hit.Source,
		MatchMethod:  matchMethodFor(th.Origin),
		Deadline:     deadline,
		Description:  snippet,
		Tags:         []string{},
		Location:     "",
		PostedDate:   posted,
		Eligibility:  DefaultEligibility,
		Requirements: []string{},
		SourceURL:    rawURL,
	}, true
}

// NormalizeAll converts a batch, dropping rejected hits.
func (n *Normalizer) NormalizeAll(hits []fetch.TaggedHit) []Opportunity {
	out := make([]Opportunity, 0, len(hits))
	for _, th := range hits {
		if op, ok := n.Normalize(th); ok {
			out = append(out, op)
		}
	}
	return out
}

func matchMethodFor(origin planner.Origin) string {
	if origin == planner.OriginExpanded {
		return MatchMethodExpanded
	}
	return MatchMethodBase
}

// kindRules is an ordered first-match-wins rule list. Ordering matters:
// "internship hackathon" classifies as Hackathon.
var kindRules = []struct {
	keywords []string
	kind     Kind
}{
	{[]string{"hackathon"}, KindHackathon},
	{[]string{"intern"}, KindInternship},
	{[]string{"workshop", "bootcamp"}, KindWorkshop},
	{[]string{"competition", "contest", "challenge"}, KindCompetition},
	{[]string{"hiring", "full-time", "full time", "fresher", "fte"}, KindFullTime},
}

func inferKind(text string) Kind {
	t := strings.ToLower(text)
	for _, rule := range kindRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.kind
			}
		}
	}
	return KindOther
}

var (
	isoDateRe   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	monthDayRe  = regexp.MustCompile(`\b([A-Z][a-z]+ \d{1,2},? \d{4})\b`)
	dayMonthRe  = regexp.MustCompile(`\b(\d{1,2} [A-Z][a-z]+,? \d{4})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`)
)

var textDateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2 January, 2006",
	"2 Jan, 2006",
}

// parseDeadline scans free text for a date-like substring and returns it
// as an ISO date, or DeadlineOpen when nothing parses.
func (n *Normalizer) parseDeadline(text string) string {
	if m := isoDateRe.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if m := monthDayRe.FindString(text); m != "" {
		if t, ok := parseAny(m, textDateLayouts); ok {
			return t.Format("2006-01-02")
		}
	}
	if m := dayMonthRe.FindString(text); m != "" {
		if t, ok := parseAny(m, textDateLayouts); ok {
			return t.Format("2006-01-02")
		}
	}
	if m := slashDateRe.FindString(text); m != "" {
		if t, err := time.Parse("02/01/2006", m); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return DeadlineOpen
}

func parseAny(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parsePostedDate normalizes the provider's published field when it looks
// like a date; providers report it in wildly different shapes, so this is
// best-effort and empty on failure.
func parsePostedDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02")
	}
	if m := isoDateRe.FindString(s); m != "" {
		return m
	}
	if t, ok := parseAny(s, textDateLayouts); ok {
		return t.Format("2006-01-02")
	}
	return ""
}

var titleSeparators = []string{" at ", " - ", " | ", " — ", " – "}

// inferCompany extracts a company name from "<role> at <company>" style
// titles, falling back to a guess from the source host.
func inferCompany(title, host string) string {
	for _, sep := range titleSeparators {
		if idx := strings.Index(title, sep); idx >= 0 {
			right := strings.TrimSpace(title[idx+len(sep):])
			if len(right) >= 2 && len(right) <= 60 {
				return right
			}
		}
	}

	base := baseDomain(host)
	if base == "" {
		return ""
	}
	guess := strings.Split(base, ".")[0]
	switch guess {
	case "", "www", "jobs", "careers":
		return ""
	}
	return strings.Title(strings.ReplaceAll(guess, "-", " "))
}

var opportunityTokens = []string{
	"intern", "internship", "fresher", "graduate", "entry level", "campus",
	"trainee", "hackathon", "workshop", "bootcamp", "competition", "contest",
	"challenge", "hiring",
}

var roleTokens = []string{
	"software engineer", "developer", "data analyst", "data scientist", "ml engineer",
}

var junkTokens = []string{"job alert", "salary", "glassdoor", "quora", "reddit"}

var opportunityURLHints = []string{
	"/jobs/", "/careers/", "/career/", "greenhouse.io", "lever.co",
	"smartrecruiters.com", "workdayjobs", "myworkdayjobs", "unstop.com", "devpost.com",
}

// looksLikeOpportunity filters obvious non-listing pages before they enter
// the result set.
func looksLikeOpportunity(title, snippet, rawURL string) bool {
	t := strings.ToLower(title + " " + snippet)
	for _, tok := range junkTokens {
		if strings.Contains(t, tok) {
			return false
		}
	}
	for _, tok := range opportunityTokens {
		if strings.Contains(t, tok) {
			return true
		}
	}
	for _, tok := range roleTokens {
		if strings.Contains(t, tok) {
			return true
		}
	}
	u := strings.ToLower(rawURL)
	for _, hint := range opportunityURLHints {
		if strings.Contains(u, hint) {
			return true
		}
	}
	return false
}

var closedRe = regexp.MustCompile(`(?i)\b(closed|expired|ended|no longer accepting|applications? closed)\b`)

func looksClosed(text string) bool {
	return closedRe.MatchString(text)
}

var spaceRe = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return truncate(s, 500)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func hashID(prefix, value string) string {
	sum := sha1.Sum([]byte(value))
	return prefix + "-" + hex.EncodeToString(sum[:])[:16]
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// baseDomain is a small heuristic (no public suffix list) that is good
// enough for allowlisting and company guessing.
func baseDomain(host string) string {
	parts := strings.Split(host, ".")
	clean := parts[:0]
	for _, p := range parts {
		if p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) <= 2 {
		return strings.Join(clean, ".")
	}
	return strings.Join(clean[len(clean)-2:], ".")
}

func (n *Normalizer) domainAllowed(rawURL string) bool {
	if len(n.AllowedDomains) == 0 {
		return true
	}
	h := hostOf(rawURL)
	if h == "" {
		return false
	}
	base := baseDomain(h)
	for _, allowed := range n.AllowedDomains {
		a := strings.ToLower(strings.TrimSpace(allowed))
		if a == "" {
			continue
		}
		if h == a || base == a {
			return true
		}
	}
	return false
}
