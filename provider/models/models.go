package models

// MaxScreenCandidates bounds how many candidates one screen call may
// carry; the prompt has a small token budget.
const MaxScreenCandidates = 18

// Candidate is one accepted search result offered to the link screen:
// enough context for the model to judge whether the URL is a real
// application page.
type Candidate struct {
	Title   string
	URL     string
	Snippet string
	Host    string
}
