package extract

// Kind classifies an opportunity.
type Kind string

const (
	KindInternship  Kind = "Internship"
	KindHackathon   Kind = "Hackathon"
	KindWorkshop    Kind = "Workshop"
	KindCompetition Kind = "Competition"
	KindFullTime    Kind = "Full-time"
	KindOther       Kind = "Other"
)

// DeadlineOpen is the deadline value used when no concrete date was found.
// The deadline field is always a non-empty string.
const DeadlineOpen = "Open"

// DefaultEligibility is the fallback eligibility text.
const DefaultEligibility = "See source page"

// Opportunity is the canonical record the engine returns. JSON field
// names match the portal's wire contract.
type Opportunity struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Type         Kind     `json:"type"`
	Source       string   `json:"source"`
	MatchMethod  string   `json:"matchMethod"`
	Deadline     string   `json:"deadline"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	Location     string   `json:"location"`
	PostedDate   string   `json:"postedDate"`
	Eligibility  string   `json:"eligibility"`
	Requirements []string `json:"requirements"`
	SourceURL    string   `json:"sourceUrl"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons"`
}

// MatchMethodExpanded is the label reported for hits found through
// LLM-expanded queries; MatchMethodBase marks deterministic base queries.
const (
	MatchMethodExpanded = "groq-expanded"
	MatchMethodBase     = "base"
)

// ExpansionAssisted reports whether this opportunity was found through an
// expanded query.
func (o Opportunity) ExpansionAssisted() bool {
	return o.MatchMethod == MatchMethodExpanded
}
