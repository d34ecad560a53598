package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/underdog-edge/internal/models"
)

func TestPayout(t *testing.T) {
	tests := []struct {
		name     string
		rank     int
		odds     int
		expected float64
	}{
		{"rank 1 plus money", 1, 150, 170},
		{"rank 2 minus money", 2, -120, 40 + (100.0/120.0)*100},
		{"rank 3 even plus", 3, 100, 160},
		{"zero odds pays bonus only", 2, 0, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Payout(tt.rank, tt.odds).Float64()
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestScoreComputesEV(t *testing.T) {
	teamID := 101
	entries := []models.PollEntry{
		{Label: "BOS", AmericanOdds: 150, Votes: 10, Rank: 1, TeamID: &teamID},
	}
	probs := map[int]float64{101: 0.42}

	results := NewEVCalculator(quietLogger()).Score(entries, probs)
	require.Len(t, results, 1)

	r := results[0]
	assert.False(t, r.IsMissing)
	require.NotNil(t, r.FairProb)
	assert.Equal(t, 0.42, *r.FairProb)

	// EV is exactly payout * fairProb.
	want := r.Payout.Mul(decimal.NewFromFloat(0.42))
	assert.True(t, r.EV.Equal(want), "EV %s != payout*prob %s", r.EV, want)
}

func TestScoreFlagsMissingProbability(t *testing.T) {
	teamID := 102
	entries := []models.PollEntry{
		{Label: "TOR", AmericanOdds: 180, Votes: 5, Rank: 2, TeamID: &teamID},
	}

	results := NewEVCalculator(quietLogger()).Score(entries, map[int]float64{})
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.IsMissing)
	assert.Nil(t, r.FairProb)
	assert.True(t, r.EV.IsZero())
	assert.False(t, r.Payout.IsZero(), "payout is still computed for missing entries")
}

func TestScoreSkipsUnresolvedEntries(t *testing.T) {
	entries := []models.PollEntry{
		{Label: "???", AmericanOdds: 150, Votes: 3, Rank: 1},
	}

	results := NewEVCalculator(quietLogger()).Score(entries, map[int]float64{})
	assert.Empty(t, results)
}

func TestResolveProbabilitiesManualWins(t *testing.T) {
	computed := map[int]models.FairProbability{
		101: {TeamID: 101, Mean: 0.40},
		102: {TeamID: 102, Mean: 0.55},
	}
	manual := map[int]float64{
		101: 0.62, // override a computed value
		103: 0.30, // supply one the feed never produced
	}

	probs, err := ResolveProbabilities(computed, manual)
	require.NoError(t, err)
	assert.Equal(t, 0.62, probs[101])
	assert.Equal(t, 0.55, probs[102])
	assert.Equal(t, 0.30, probs[103])
}

func TestResolveProbabilitiesRejectsOutOfRange(t *testing.T) {
	for _, p := range []float64{0, -0.1, 1, 1.2} {
		_, err := ResolveProbabilities(nil, map[int]float64{101: p})
		assert.ErrorIs(t, err, models.ErrProbabilityRange, "probability %v", p)
	}
}
