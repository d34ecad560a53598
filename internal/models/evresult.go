package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EVResult is one scored report row. FairProb is nil and IsMissing true when
// no qualifying book pair (and no manual override) produced a probability;
// such rows are surfaced separately, never ranked.
type EVResult struct {
	Team      string          `json:"team"`
	TeamID    int             `json:"team_id"`
	Rank      int             `json:"rank"`
	RealOdds  int             `json:"real_odds"`
	Payout    decimal.Decimal `json:"payout"`
	FairProb  *float64        `json:"fair_prob"`
	EV        decimal.Decimal `json:"ev"`
	IsMissing bool            `json:"is_missing"`
}

// EVReport is the aggregated output of one refresh cycle. Valid is sorted by
// expected value descending; Missing holds entries awaiting manual odds.
type EVReport struct {
	CycleID     uuid.UUID  `json:"cycle_id"`
	League      string     `json:"league"`
	GeneratedAt time.Time  `json:"generated_at"`
	Valid       []EVResult `json:"valid"`
	Missing     []EVResult `json:"missing"`
}
