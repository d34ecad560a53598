package service

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/underdog-edge/internal/metrics"
	"github.com/yourusername/underdog-edge/internal/models"
	"github.com/yourusername/underdog-edge/internal/oddsmath"
	"github.com/yourusername/underdog-edge/internal/refdata"
)

// FairProbabilityEngine turns per-book two-way prices into vig-free win
// probabilities. A book contributes only when it quotes both sides of an
// event; a -110/-110 pair is treated as a placeholder price, not a quote.
type FairProbabilityEngine struct {
	markets refdata.MarketDirectory
	logger  *logrus.Logger
}

// NewFairProbabilityEngine creates an engine resolving book names against
// the given market directory.
func NewFairProbabilityEngine(markets refdata.MarketDirectory, logger *logrus.Logger) *FairProbabilityEngine {
	return &FairProbabilityEngine{markets: markets, logger: logger}
}

// EventFairProbabilities computes both sides' fair probabilities for one
// event, with full per-book detail. Returns (nil, nil) when no book
// qualifies; both sides are then flagged missing downstream.
func (e *FairProbabilityEngine) EventFairProbabilities(ev *models.Event) (*models.FairProbability, *models.FairProbability) {
	sideA, sideB := ev.Sides[0], ev.Sides[1]

	// Deterministic detail ordering.
	bookIDs := make([]int, 0, len(sideA.Books))
	for id := range sideA.Books {
		if _, both := sideB.Books[id]; both {
			bookIDs = append(bookIDs, id)
		}
	}
	sort.Ints(bookIDs)

	detailA := make([]models.BookPairDetail, 0, len(bookIDs))
	detailB := make([]models.BookPairDetail, 0, len(bookIDs))
	sum := 0.0

	for _, id := range bookIDs {
		oddsA := sideA.Books[id].AmericanOdds
		oddsB := sideB.Books[id].AmericanOdds

		if oddsA == -110 && oddsB == -110 {
			metrics.PlaceholderPairsDiscardedTotal.Inc()
			continue
		}

		fair, err := oddsmath.PairFairProb(oddsA, oddsB)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": ev.ID,
				"book_id":  id,
			}).Warn("Skipping book with invalid odds")
			continue
		}

		name := e.markets.Name(id)
		detailA = append(detailA, models.BookPairDetail{
			Book: name, TeamOdds: oddsA, OpponentOdds: oddsB, FairProb: fair,
		})
		detailB = append(detailB, models.BookPairDetail{
			Book: name, TeamOdds: oddsB, OpponentOdds: oddsA, FairProb: 1 - fair,
		})
		sum += fair
	}

	if len(detailA) == 0 {
		return nil, nil
	}

	metrics.BookPairsUsedTotal.Add(float64(len(detailA)))

	mean := sum / float64(len(detailA))
	fpA := &models.FairProbability{TeamID: sideA.TeamID, Mean: mean, PerBook: detailA}
	// Complement by construction, so the two sides always sum to 1.
	fpB := &models.FairProbability{TeamID: sideB.TeamID, Mean: 1 - mean, PerBook: detailB}
	return fpA, fpB
}

// ComputeAll aggregates fair probabilities for every event, keyed by team id.
func (e *FairProbabilityEngine) ComputeAll(events []models.Event) map[int]models.FairProbability {
	probs := make(map[int]models.FairProbability)
	for i := range events {
		fpA, fpB := e.EventFairProbabilities(&events[i])
		if fpA == nil {
			continue
		}
		probs[fpA.TeamID] = *fpA
		probs[fpB.TeamID] = *fpB
	}
	return probs
}
