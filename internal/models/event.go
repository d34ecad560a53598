// Package models defines the typed domain records flowing through the
// refresh pipeline: reference directories, normalized events, poll entries,
// fair probabilities and EV results.
package models

import "time"

// MarketSource identifies a bookmaker in the reference directory.
type MarketSource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Team is static reference data for one side of a matchup.
type Team struct {
	ID           int    `json:"team_id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	EventID      int    `json:"event_id"`
	LeagueID     int    `json:"league_id"`
}

// BookQuote is a single book's price on one side of an event.
// Line is only populated for spread-style bet types.
type BookQuote struct {
	AmericanOdds int      `json:"odds"`
	Line         *float64 `json:"line"`
	LastModified string   `json:"timestamp"`
}

// TeamSideOdds holds one side's quotes keyed by book id.
type TeamSideOdds struct {
	TeamID int               `json:"team_id"`
	Books  map[int]BookQuote `json:"books"`
}

// Event is a single matchup for "today" in the target league.
// Sides[0] and Sides[1] follow the feed's side ordering.
type Event struct {
	ID       int             `json:"event_id"`
	Name     string          `json:"name"`
	StartUTC time.Time       `json:"start_utc"`
	StartRaw string          `json:"start_time"` // feed timestamp, preserved verbatim for the snapshot artifact
	Sides    [2]TeamSideOdds `json:"sides"`
}
