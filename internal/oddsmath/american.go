// Package oddsmath converts between American odds and win probabilities
// and removes bookmaker margin from two-way prices.
package oddsmath

import "errors"

// ErrZeroOdds indicates an American price of 0, which has no probability.
var ErrZeroOdds = errors.New("american odds must be non-zero")

// degenerateCertainty is the display sentinel for a probability at or above 1.
const degenerateCertainty = -10000

// AmericanToProb converts a non-zero American price to its implied win
// probability. The result is always in (0, 1).
func AmericanToProb(odds int) (float64, error) {
	if odds == 0 {
		return 0, ErrZeroOdds
	}
	if odds > 0 {
		return 100 / (float64(odds) + 100), nil
	}
	stake := float64(-odds)
	return stake / (stake + 100), nil
}

// PairFairProb strips the vig from a two-way market by rescaling the two
// implied probabilities to sum to 1, and returns the first side's fair
// probability. The opposite side's fair probability is the complement.
func PairFairProb(odds1, odds2 int) (float64, error) {
	p1, err := AmericanToProb(odds1)
	if err != nil {
		return 0, err
	}
	p2, err := AmericanToProb(odds2)
	if err != nil {
		return 0, err
	}
	return p1 / (p1 + p2), nil
}

// ProbToAmerican converts a probability back to an American price, truncated
// to an integer. Used for display only; degenerate inputs map to sentinels
// (0 for prob <= 0, -10000 for prob >= 1).
func ProbToAmerican(prob float64) int {
	if prob <= 0 {
		return 0
	}
	if prob >= 1 {
		return degenerateCertainty
	}
	if prob > 0.5 {
		return int(-(prob * 100) / (1 - prob))
	}
	return int((1 - prob) * 100 / prob)
}
