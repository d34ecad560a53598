package service

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/underdog-edge/internal/models"
)

// ResultAggregator assembles scored rows into the cycle report.
type ResultAggregator struct{}

// NewResultAggregator creates an aggregator.
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{}
}

// Aggregate partitions results into valid (has a probability) and missing,
// and sorts the valid partition by expected value descending. Ties keep
// encounter order.
func (a *ResultAggregator) Aggregate(league string, results []models.EVResult) *models.EVReport {
	report := &models.EVReport{
		CycleID:     uuid.New(),
		League:      league,
		GeneratedAt: time.Now().UTC(),
		Valid:       make([]models.EVResult, 0, len(results)),
		Missing:     make([]models.EVResult, 0),
	}

	for _, r := range results {
		if r.IsMissing {
			report.Missing = append(report.Missing, r)
		} else {
			report.Valid = append(report.Valid, r)
		}
	}

	sort.SliceStable(report.Valid, func(i, j int) bool {
		return report.Valid[i].EV.GreaterThan(report.Valid[j].EV)
	})

	return report
}
