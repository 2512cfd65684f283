// Package profile reduces a portal user record to the minimal shape the
// discovery engine needs. It never fails: malformed records degrade to
// safe defaults because discovery is a best-effort feature.
package profile

import "strings"

// Role is the portal account role. Only students drive realtime discovery.
type Role string

const (
	RoleStudent      Role = "student"
	RoleAlumni       Role = "alumni"
	RoleEventManager Role = "event_manager"
	RoleManagement   Role = "management"
)

// Record is the raw profile shape supplied by the portal's user module.
type Record struct {
	Email      string   `json:"email"`
	Role       Role     `json:"role"`
	Department string   `json:"department"`
	Skills     []string `json:"skills"`
	Interests  []string `json:"interests"`
}

// Signals is the query-relevant extract of a profile used by the planner
// and ranker.
type Signals struct {
	Department string
	Skills     []string
	Interests  []string
	Level      string
}

// DefaultLevel describes the academic level assumed for student profiles.
const DefaultLevel = "internship / fresher / entry-level"

// Normalize extracts Signals from a raw record, substituting defaults for
// anything missing.
func Normalize(rec Record) Signals {
	dept := strings.TrimSpace(rec.Department)
	if dept == "" {
		dept = "Unknown"
	}
	return Signals{
		Department: dept,
		Skills:     cleanList(rec.Skills),
		Interests:  cleanList(rec.Interests),
		Level:      DefaultLevel,
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
