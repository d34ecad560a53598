package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/underdog-edge/internal/datasource"
	"github.com/yourusername/underdog-edge/internal/metrics"
	"github.com/yourusername/underdog-edge/internal/models"
	"github.com/yourusername/underdog-edge/internal/refdata"
)

// PollProcessor parses poll options and ranks them by vote count.
type PollProcessor struct {
	logger *logrus.Logger
}

// NewPollProcessor creates a poll processor.
func NewPollProcessor(logger *logrus.Logger) *PollProcessor {
	return &PollProcessor{logger: logger}
}

// Process parses the poll payload, resolves team ids via exact abbreviation
// match within one league, and ranks entries by descending vote count.
// Entries with equal votes keep their original relative order; rank is
// 1-based. Malformed quoted odds default to 0 instead of failing the poll.
func (p *PollProcessor) Process(payload *datasource.PollPayload, teams refdata.TeamDirectory, leagueID int) []models.PollEntry {
	abbrIndex := teams.AbbreviationIndex(leagueID)

	entries := make([]models.PollEntry, 0, len(payload.Poll.Options))
	for _, opt := range payload.Poll.Options {
		entry := models.PollEntry{
			Label:        opt.Label,
			AmericanOdds: parseQuotedOdds(string(opt.Odds), p.logger),
			Votes:        opt.Count,
		}
		if id, ok := abbrIndex[opt.Label]; ok {
			teamID := id
			entry.TeamID = &teamID
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Votes > entries[j].Votes
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}

// parseQuotedOdds parses a poll-quoted American price, tolerating a leading
// "+". Unparseable values become 0.
func parseQuotedOdds(quoted string, logger *logrus.Logger) int {
	trimmed := strings.TrimPrefix(strings.TrimSpace(quoted), "+")
	odds, err := strconv.Atoi(trimmed)
	if err != nil {
		metrics.MalformedPollOddsTotal.Inc()
		logger.WithField("odds", quoted).Warn("Malformed poll odds, defaulting to 0")
		return 0
	}
	return odds
}
