// Package service implements the refresh pipeline: event normalization,
// no-vig probability aggregation, poll processing, EV scoring and report
// assembly. Components hold no hidden state between cycles; caches and
// directories are passed in and returned, never mutated.
package service

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/underdog-edge/internal/config"
	"github.com/yourusername/underdog-edge/internal/datasource"
	"github.com/yourusername/underdog-edge/internal/models"
)

// eventStartLayouts covers the feed's timestamp variants: with zone, and
// bare ISO assumed UTC.
var eventStartLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// EventNormalizer filters the raw feed to today's events in a fixed
// reference timezone and extracts per-book prices into a uniform shape.
type EventNormalizer struct {
	betTypes map[int]config.LeagueConfig
	loc      *time.Location
	logger   *logrus.Logger
	now      func() time.Time
}

// NewEventNormalizer creates a normalizer for the given league table and
// reference timezone.
func NewEventNormalizer(betTypes map[int]config.LeagueConfig, timezone string, logger *logrus.Logger) (*EventNormalizer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &EventNormalizer{
		betTypes: betTypes,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Normalize extracts today's events for one league. Events and books that
// fail extraction are skipped; they never abort the whole normalization.
// The feed may not be strictly chronological, so every event is checked
// against today's date rather than stopping at the first mismatch.
func (n *EventNormalizer) Normalize(feed *datasource.RawFeed, leagueID int) ([]models.Event, error) {
	lc, ok := n.betTypes[leagueID]
	if !ok {
		return nil, models.ErrUnknownLeague
	}

	today := n.now().In(n.loc)
	ty, tm, td := today.Date()

	raws := feed.LeagueEvents(leagueID)
	events := make([]models.Event, 0, len(raws))

	for _, raw := range raws {
		var ev datasource.RawEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			n.logger.WithError(err).Warn("Skipping malformed event record")
			continue
		}

		start, err := parseEventStart(ev.EventStart)
		if err != nil {
			n.logger.WithError(err).WithField("event_id", ev.EventID).Warn("Skipping event with unparseable start time")
			continue
		}

		local := start.In(n.loc)
		ey, em, ed := local.Date()
		if ey != ty || em != tm || ed != td {
			continue
		}

		side0, ok0 := ev.EventTeams["0"]
		side1, ok1 := ev.EventTeams["1"]
		if !ok0 || !ok1 {
			n.logger.WithError(models.ErrMalformedEvent).WithField("event_id", ev.EventID).Warn("Skipping event without two sides")
			continue
		}

		sides := [2]models.TeamSideOdds{
			{TeamID: side0.ID, Books: make(map[int]models.BookQuote)},
			{TeamID: side1.ID, Books: make(map[int]models.BookQuote)},
		}

		for key, rawSource := range ev.OddsSources {
			var sideIdx int
			switch {
			case len(key) >= 3 && key[:3] == "si0":
				sideIdx = 0
			case len(key) >= 3 && key[:3] == "si1":
				sideIdx = 1
			default:
				continue
			}

			var lines map[string]datasource.RawPriceLine
			if err := json.Unmarshal(rawSource, &lines); err != nil {
				n.logger.WithError(err).WithField("event_id", ev.EventID).Debug("Skipping malformed odds source")
				continue
			}

			// A book missing the league's bet type is skipped for this
			// event; partial data per book is fine.
			line, quoted := lines[lc.BetType]
			if !quoted {
				continue
			}

			quote := models.BookQuote{
				AmericanOdds: line.AmericanPrice,
				LastModified: line.ModifiedOn,
			}
			if lc.HasPoints {
				quote.Line = line.Points
			}
			sides[sideIdx].Books[line.MarketSourceID] = quote
		}

		events = append(events, models.Event{
			ID:       ev.EventID,
			Name:     ev.Name,
			StartUTC: start,
			StartRaw: ev.EventStart,
			Sides:    sides,
		})
	}

	return events, nil
}

// parseEventStart parses the feed's UTC start timestamp.
func parseEventStart(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range eventStartLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
