package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/underdog-edge/internal/models"
	"github.com/yourusername/underdog-edge/internal/oddsmath"
	"github.com/yourusername/underdog-edge/internal/refdata"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testEvent(side0, side1 map[int]int) *models.Event {
	books0 := make(map[int]models.BookQuote, len(side0))
	for id, odds := range side0 {
		books0[id] = models.BookQuote{AmericanOdds: odds}
	}
	books1 := make(map[int]models.BookQuote, len(side1))
	for id, odds := range side1 {
		books1[id] = models.BookQuote{AmericanOdds: odds}
	}
	return &models.Event{
		ID: 900,
		Sides: [2]models.TeamSideOdds{
			{TeamID: 101, Books: books0},
			{TeamID: 102, Books: books1},
		},
	}
}

func TestEventFairProbabilitiesAveragesAcrossBooks(t *testing.T) {
	markets := refdata.MarketDirectory{5: "Pinnacle", 7: "Circa"}
	engine := NewFairProbabilityEngine(markets, quietLogger())

	// Book 5: +150/-170, book 7: +140/-160, book 9 only quotes one side.
	ev := testEvent(
		map[int]int{5: 150, 7: 140, 9: 135},
		map[int]int{5: -170, 7: -160},
	)

	fpA, fpB := engine.EventFairProbabilities(ev)
	require.NotNil(t, fpA)
	require.NotNil(t, fpB)

	p5, err := oddsmath.PairFairProb(150, -170)
	require.NoError(t, err)
	p7, err := oddsmath.PairFairProb(140, -160)
	require.NoError(t, err)
	expected := (p5 + p7) / 2

	assert.InDelta(t, expected, fpA.Mean, 1e-12)
	assert.InDelta(t, 1-expected, fpB.Mean, 1e-12)
	assert.InDelta(t, 1.0, fpA.Mean+fpB.Mean, 1e-12, "complementary probabilities sum to exactly 1")

	require.Len(t, fpA.PerBook, 2)
	assert.Equal(t, "Pinnacle", fpA.PerBook[0].Book)
	assert.Equal(t, "Circa", fpA.PerBook[1].Book)
	assert.Equal(t, 150, fpA.PerBook[0].TeamOdds)
	assert.Equal(t, -170, fpA.PerBook[0].OpponentOdds)

	// Side B's detail mirrors side A's with complement probabilities.
	assert.Equal(t, -170, fpB.PerBook[0].TeamOdds)
	assert.Equal(t, 150, fpB.PerBook[0].OpponentOdds)
	assert.InDelta(t, 1-p5, fpB.PerBook[0].FairProb, 1e-12)
}

func TestEventFairProbabilitiesMeanOfThree(t *testing.T) {
	// Books quoting fair probabilities ~[0.52, 0.48, 0.55] must aggregate
	// to their arithmetic mean.
	engine := NewFairProbabilityEngine(refdata.MarketDirectory{}, quietLogger())

	ev := testEvent(
		map[int]int{1: -109, 2: 108, 3: -123},
		map[int]int{1: 109, 2: -108, 3: 123},
	)

	fpA, fpB := engine.EventFairProbabilities(ev)
	require.NotNil(t, fpA)
	require.NotNil(t, fpB)

	sum := 0.0
	for _, d := range fpA.PerBook {
		sum += d.FairProb
	}
	assert.InDelta(t, sum/3, fpA.Mean, 1e-12)

	// Per-book fair probs land near [0.52, 0.48, 0.55]; the aggregate is
	// their plain mean, and the opponent gets the exact complement.
	assert.InDelta(t, 0.5180, fpA.Mean, 5e-4)
	assert.InDelta(t, 1-fpA.Mean, fpB.Mean, 1e-12)
}

func TestPlaceholderPairExcluded(t *testing.T) {
	engine := NewFairProbabilityEngine(refdata.MarketDirectory{}, quietLogger())

	// Book 5 is a real quote; book 7 sits at -110/-110 and is discarded.
	ev := testEvent(
		map[int]int{5: 150, 7: -110},
		map[int]int{5: -170, 7: -110},
	)

	fpA, _ := engine.EventFairProbabilities(ev)
	require.NotNil(t, fpA)
	require.Len(t, fpA.PerBook, 1)

	expected, err := oddsmath.PairFairProb(150, -170)
	require.NoError(t, err)
	assert.InDelta(t, expected, fpA.Mean, 1e-12)
}

func TestOnlyPlaceholderPairsMeansNoProbability(t *testing.T) {
	engine := NewFairProbabilityEngine(refdata.MarketDirectory{}, quietLogger())

	ev := testEvent(map[int]int{7: -110}, map[int]int{7: -110})

	fpA, fpB := engine.EventFairProbabilities(ev)
	assert.Nil(t, fpA)
	assert.Nil(t, fpB)
}

func TestZeroOddsBookSkipped(t *testing.T) {
	engine := NewFairProbabilityEngine(refdata.MarketDirectory{}, quietLogger())

	ev := testEvent(
		map[int]int{5: 150, 7: 0},
		map[int]int{5: -170, 7: -120},
	)

	fpA, _ := engine.EventFairProbabilities(ev)
	require.NotNil(t, fpA)
	assert.Len(t, fpA.PerBook, 1)
}

func TestUnknownBookGetsPlaceholderName(t *testing.T) {
	engine := NewFairProbabilityEngine(refdata.MarketDirectory{}, quietLogger())

	ev := testEvent(map[int]int{42: 150}, map[int]int{42: -170})

	fpA, _ := engine.EventFairProbabilities(ev)
	require.NotNil(t, fpA)
	assert.Equal(t, "Book 42", fpA.PerBook[0].Book)
}

func TestComputeAllKeysByTeam(t *testing.T) {
	engine := NewFairProbabilityEngine(refdata.MarketDirectory{}, quietLogger())

	events := []models.Event{
		*testEvent(map[int]int{5: 150}, map[int]int{5: -170}),
		*testEvent(map[int]int{7: -110}, map[int]int{7: -110}), // no qualifiers
	}
	events[1].Sides[0].TeamID = 201
	events[1].Sides[1].TeamID = 202

	probs := engine.ComputeAll(events)
	assert.Contains(t, probs, 101)
	assert.Contains(t, probs, 102)
	assert.NotContains(t, probs, 201, "event without qualifying books contributes nothing")
	assert.NotContains(t, probs, 202)
}
