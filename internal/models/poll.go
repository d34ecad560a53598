package models

// PollEntry is a parsed poll option. TeamID stays nil when the label's
// abbreviation does not resolve against the league's team directory; such
// entries are excluded from EV scoring.
type PollEntry struct {
	Label        string `json:"label"`
	AmericanOdds int    `json:"odds"`
	Votes        int    `json:"votes"`
	Rank         int    `json:"rank"`
	TeamID       *int   `json:"team_id"`
}
