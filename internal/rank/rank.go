// Package rank orders deduplicated opportunities against a profile using
// a purely additive, deterministic score. Ties keep discovery order.
package rank

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kec-hub/opportunity-engine/internal/extract"
	"github.com/kec-hub/opportunity-engine/internal/profile"
)

// Scoring weights. These are defaults, not a calibrated model; see the
// package tests for the behavior they pin down.
const (
	skillWeight     = 2.0
	deptWeight      = 1.0
	expandedWeight  = 1.0
	deadlineWeight  = 0.5
	seniorityWeight = -1.5
)

// departmentSynonyms maps a lowercased department name to field terms
// that commonly stand in for it in listings.
var departmentSynonyms = map[string][]string{
	"computer science":       {"software", "cse", "computing", "it"},
	"information technology": {"software", "it"},
	"electronics":            {"ece", "embedded", "vlsi"},
	"electrical":             {"eee", "power systems"},
	"mechanical":             {"mech", "manufacturing", "cad"},
	"civil":                  {"construction", "structural"},
	"biotechnology":          {"biotech", "life sciences"},
}

var seniorityRe = regexp.MustCompile(`(?i)\b(sr\.?|senior|staff|lead|principal|manager|director|head|architect)\b`)

// Rank scores every opportunity in place and returns them ordered best
// first. The sort is stable so equal scores keep provider-response order.
func Rank(items []extract.Opportunity, sig profile.Signals) []extract.Opportunity {
	for i := range items {
		score(&items[i], sig)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items
}

func score(op *extract.Opportunity, sig profile.Signals) {
	text := op.Title + " " + op.Description + " " + strings.Join(op.Tags, " ")
	tokens := tokenize(text)

	s := 0.0
	var reasons []string

	var matched []string
	for _, skill := range sig.Skills {
		if containsAllTokens(tokens, skill) {
			s += skillWeight
			matched = append(matched, skill)
		}
	}
	if len(matched) > 0 {
		reasons = append(reasons, "skill match: "+strings.Join(matched, ", "))
	}

	if deptMatches(sig.Department, op.Title+" "+op.Description) {
		s += deptWeight
		reasons = append(reasons, "department match")
	}

	if op.ExpansionAssisted() {
		s += expandedWeight
		reasons = append(reasons, "found via expanded query")
	}

	if op.Deadline != extract.DeadlineOpen {
		s += deadlineWeight
		reasons = append(reasons, fmt.Sprintf("concrete deadline %s", op.Deadline))
	}

	if seniorityRe.MatchString(op.Title) {
		s += seniorityWeight
		reasons = append(reasons, "seniority down-rank")
	}

	op.Score = s
	op.Reasons = reasons
	if op.Reasons == nil {
		op.Reasons = []string{}
	}
}

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9+#.]+`)

// tokenize lowercases and splits on anything that is not part of a tech
// term; "+", "#" and "." survive so C++, C# and .NET match whole-word.
func tokenize(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range tokenSplitRe.Split(strings.ToLower(text), -1) {
		t = strings.Trim(t, ".")
		if len(t) >= 1 && t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}

// containsAllTokens reports whether every token of term appears as a
// whole token in the set; multi-word skills must match fully.
func containsAllTokens(tokens map[string]struct{}, term string) bool {
	parts := tokenSplitRe.Split(strings.ToLower(term), -1)
	found := false
	for _, p := range parts {
		p = strings.Trim(p, ".")
		if p == "" {
			continue
		}
		if _, ok := tokens[p]; !ok {
			return false
		}
		found = true
	}
	return found
}

func deptMatches(department, text string) bool {
	dept := strings.ToLower(strings.TrimSpace(department))
	if dept == "" || dept == "unknown" {
		return false
	}
	t := strings.ToLower(text)
	if strings.Contains(t, dept) {
		return true
	}
	for key, synonyms := range departmentSynonyms {
		if !strings.Contains(dept, key) {
			continue
		}
		for _, syn := range synonyms {
			if containsWord(t, syn) {
				return true
			}
		}
	}
	return false
}

func containsWord(text, word string) bool {
	tokens := tokenize(text)
	for _, p := range tokenSplitRe.Split(strings.ToLower(word), -1) {
		if p == "" {
			continue
		}
		if _, ok := tokens[p]; !ok {
			return false
		}
	}
	return true
}
