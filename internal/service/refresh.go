package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/underdog-edge/internal/config"
	"github.com/yourusername/underdog-edge/internal/datasource"
	"github.com/yourusername/underdog-edge/internal/metrics"
	"github.com/yourusername/underdog-edge/internal/models"
	"github.com/yourusername/underdog-edge/internal/refdata"
)

// RefreshState is the externally-owned state handed into a cycle: cached
// reference directories and the manual probability overlay. The service
// never mutates it; updated directories come back in the RefreshResult.
type RefreshState struct {
	Markets     refdata.MarketDirectory
	Teams       refdata.TeamDirectory
	ManualProbs map[int]float64
}

// RefreshResult is the output of one complete cycle.
type RefreshResult struct {
	Report    *models.EVReport
	Events    []models.Event
	FairProbs map[int]models.FairProbability
	Markets   refdata.MarketDirectory
	Teams     refdata.TeamDirectory
}

// RefreshService runs the sequential refresh pipeline: token, fetch,
// normalize, devig, poll, score, aggregate. A transport failure anywhere
// aborts the cycle with an error; the caller keeps its previous results.
type RefreshService struct {
	tokens     datasource.TokenProvider
	feed       *datasource.GameOddsClient
	poll       *datasource.PollClient
	normalizer *EventNormalizer
	leagues    map[string]config.LeagueConfig
	logger     *logrus.Logger
}

// NewRefreshService wires the pipeline together.
func NewRefreshService(
	tokens datasource.TokenProvider,
	feed *datasource.GameOddsClient,
	poll *datasource.PollClient,
	normalizer *EventNormalizer,
	leagues map[string]config.LeagueConfig,
	logger *logrus.Logger,
) *RefreshService {
	return &RefreshService{
		tokens:     tokens,
		feed:       feed,
		poll:       poll,
		normalizer: normalizer,
		leagues:    leagues,
		logger:     logger,
	}
}

// Refresh runs one cycle for the named league.
func (s *RefreshService) Refresh(ctx context.Context, league string, state RefreshState) (*RefreshResult, error) {
	lc, ok := s.leagues[league]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownLeague, league)
	}

	metrics.RefreshCyclesTotal.Inc()
	cycleStart := time.Now()

	token, err := s.tokens.Token(ctx)
	if err != nil {
		metrics.TransportFailuresTotal.WithLabelValues("token").Inc()
		return nil, fmt.Errorf("token resolution failed: %w", err)
	}

	fetchStart := time.Now()
	feed, err := s.feed.FetchFeed(ctx, token)
	if err != nil {
		metrics.TransportFailuresTotal.WithLabelValues("game_odds").Inc()
		return nil, err
	}
	metrics.FeedFetchDuration.Observe(time.Since(fetchStart).Seconds())

	markets, teams := s.resolveDirectories(feed, state)

	events, err := s.normalizer.Normalize(feed, lc.ID)
	if err != nil {
		return nil, err
	}
	metrics.EventsNormalizedTotal.Add(float64(len(events)))

	engine := NewFairProbabilityEngine(markets, s.logger)
	computed := engine.ComputeAll(events)

	payload, err := s.poll.FetchPoll(ctx, league)
	if err != nil {
		metrics.TransportFailuresTotal.WithLabelValues("poll").Inc()
		return nil, err
	}

	entries := NewPollProcessor(s.logger).Process(payload, teams, lc.ID)
	metrics.PollEntries.Set(float64(len(entries)))

	probs, err := ResolveProbabilities(computed, state.ManualProbs)
	if err != nil {
		return nil, err
	}
	results := NewEVCalculator(s.logger).Score(entries, probs)
	report := NewResultAggregator().Aggregate(league, results)
	metrics.MissingEntries.Set(float64(len(report.Missing)))
	metrics.CycleDuration.Observe(time.Since(cycleStart).Seconds())

	s.logger.WithFields(logrus.Fields{
		"cycle_id": report.CycleID,
		"league":   league,
		"events":   len(events),
		"entries":  len(entries),
		"missing":  len(report.Missing),
		"duration": time.Since(cycleStart).String(),
	}).Info("Refresh cycle complete")

	return &RefreshResult{
		Report:    report,
		Events:    events,
		FairProbs: computed,
		Markets:   markets,
		Teams:     teams,
	}, nil
}

// resolveDirectories reuses cached directories when present, otherwise
// rebuilds them wholesale from the feed's reference sections.
func (s *RefreshService) resolveDirectories(feed *datasource.RawFeed, state RefreshState) (refdata.MarketDirectory, refdata.TeamDirectory) {
	markets := state.Markets
	if len(markets) == 0 {
		sources := make([]models.MarketSource, 0, len(feed.MarketSources))
		for _, src := range feed.MarketSources {
			sources = append(sources, models.MarketSource{ID: src.ID, Name: src.Name})
		}
		markets = refdata.BuildMarketDirectory(sources)
	}

	teams := state.Teams
	if len(teams) == 0 {
		list := make([]models.Team, 0, len(feed.Teams))
		for _, rt := range feed.Teams {
			list = append(list, models.Team{
				ID:           rt.ID,
				Name:         rt.Name,
				Abbreviation: rt.Abbreviation,
				EventID:      rt.EventID,
				LeagueID:     rt.LeagueID,
			})
		}
		teams = refdata.BuildTeamDirectory(list)
	}

	return markets, teams
}
