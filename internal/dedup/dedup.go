// Package dedup collapses opportunities that overlapping queries or
// providers discovered more than once. Identity is two canonical keys:
// normalized title+company, and normalized URL.
package dedup

import (
	"strings"

	"github.com/kec-hub/opportunity-engine/internal/extract"
)

// Collapse removes duplicates, preserving first-seen order. When a
// duplicate pair mixes match methods, the expansion-assisted record wins
// the slot (its metadata is assumed higher precision) but keeps the
// incumbent's position so ordering stays stable.
func Collapse(items []extract.Opportunity) []extract.Opportunity {
	out := make([]extract.Opportunity, 0, len(items))
	byKey := make(map[string]int, len(items)*2)

	for _, item := range items {
		tk := titleKey(item)
		uk := urlKey(item.SourceURL)

		idx, dup := byKey[tk]
		if !dup && uk != "" {
			idx, dup = byKey[uk]
		}

		if dup {
			if item.ExpansionAssisted() && !out[idx].ExpansionAssisted() {
				out[idx] = item
			}
			// Both keys now point at the surviving slot.
			byKey[tk] = idx
			if uk != "" {
				byKey[uk] = idx
			}
			continue
		}

		out = append(out, item)
		byKey[tk] = len(out) - 1
		if uk != "" {
			byKey[uk] = len(out) - 1
		}
	}
	return out
}

func titleKey(o extract.Opportunity) string {
	return "t\x00" + strings.ToLower(strings.TrimSpace(o.Title)) + "\x00" + strings.ToLower(strings.TrimSpace(o.Company))
}

// urlKey normalizes a URL for identity comparison: scheme and "www."
// dropped, host lowercased, query string, fragment and trailing slash
// stripped.
func urlKey(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	for _, prefix := range []string{"https://", "http://", "//"} {
		if strings.HasPrefix(strings.ToLower(s), prefix) {
			s = s[len(prefix):]
			break
		}
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "/")

	host := s
	rest := ""
	if i := strings.Index(s, "/"); i >= 0 {
		host, rest = s[:i], s[i:]
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return ""
	}
	return "u\x00" + host + rest
}
