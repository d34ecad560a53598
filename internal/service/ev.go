package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/underdog-edge/internal/models"
)

var (
	hundred   = decimal.NewFromInt(100)
	rankBonus = decimal.NewFromInt(20)
)

// Payout computes the poll's payout for a notional $100 stake: a fixed
// per-rank bonus plus the dollar return at the quoted price. A negative
// price pays (100/|odds|)*100; a positive price pays the odds themselves.
func Payout(rank, americanOdds int) decimal.Decimal {
	bonus := rankBonus.Mul(decimal.NewFromInt(int64(rank)))
	var oddsPayout decimal.Decimal
	if americanOdds < 0 {
		oddsPayout = hundred.Div(decimal.NewFromInt(int64(-americanOdds))).Mul(hundred)
	} else {
		oddsPayout = decimal.NewFromInt(int64(americanOdds))
	}
	return bonus.Add(oddsPayout)
}

// ResolveProbabilities merges computed fair probabilities with manual
// overrides. A manually supplied probability always wins for its team, for
// the current cycle only. Manual values outside (0,1) are a hard failure.
func ResolveProbabilities(computed map[int]models.FairProbability, manual map[int]float64) (map[int]float64, error) {
	probs := make(map[int]float64, len(computed)+len(manual))
	for teamID, fp := range computed {
		probs[teamID] = fp.Mean
	}
	for teamID, p := range manual {
		if p <= 0 || p >= 1 {
			return nil, fmt.Errorf("%w: manual override %v for team %d", models.ErrProbabilityRange, p, teamID)
		}
		probs[teamID] = p
	}
	return probs, nil
}

// EVCalculator scores ranked poll entries against resolved probabilities.
type EVCalculator struct {
	logger *logrus.Logger
}

// NewEVCalculator creates an EV calculator.
func NewEVCalculator(logger *logrus.Logger) *EVCalculator {
	return &EVCalculator{logger: logger}
}

// Score computes one EVResult per entry with a resolvable team id. Entries
// without a probability are flagged missing and report a zero EV; that zero
// is a sentinel for "no data", never a real expected value.
func (c *EVCalculator) Score(entries []models.PollEntry, probs map[int]float64) []models.EVResult {
	results := make([]models.EVResult, 0, len(entries))
	for _, entry := range entries {
		if entry.TeamID == nil {
			c.logger.WithField("label", entry.Label).Debug("Skipping unresolved poll entry")
			continue
		}

		payout := Payout(entry.Rank, entry.AmericanOdds)
		result := models.EVResult{
			Team:     entry.Label,
			TeamID:   *entry.TeamID,
			Rank:     entry.Rank,
			RealOdds: entry.AmericanOdds,
			Payout:   payout,
		}

		if fair, ok := probs[*entry.TeamID]; ok {
			p := fair
			result.FairProb = &p
			result.EV = payout.Mul(decimal.NewFromFloat(fair))
		} else {
			result.IsMissing = true
			result.EV = decimal.Zero
		}

		results = append(results, result)
	}
	return results
}
