package models

// BookPairDetail is one book's contribution to a team's fair probability,
// retained for audit and inspection.
type BookPairDetail struct {
	Book         string  `json:"book"`
	TeamOdds     int     `json:"team_odds"`
	OpponentOdds int     `json:"opponent_odds"`
	FairProb     float64 `json:"fair_prob"`
}

// FairProbability is the no-vig win probability for one team, averaged
// across every book that quoted both sides of the event.
type FairProbability struct {
	TeamID  int              `json:"team_id"`
	Mean    float64          `json:"mean"`
	PerBook []BookPairDetail `json:"per_book"`
}
