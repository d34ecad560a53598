package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/underdog-edge/internal/config"
	"github.com/yourusername/underdog-edge/internal/datasource"
)

const refreshFeedFixture = `{
	"marketSources": [
		{"id": 5, "name": "Pinnacle"},
		{"id": 7, "name": "Circa"}
	],
	"teams": {
		"101": {"id": 101, "name": "Boston Bruins", "abbreviation": "BOS", "eventId": 900, "leagueId": 6},
		"102": {"id": 102, "name": "Toronto Maple Leafs", "abbreviation": "TOR", "eventId": 900, "leagueId": 6}
	},
	"gameOddsEvents": {
		"lg6:pt1:pregame": [
			{"eventId": 900, "eventStart": "2026-01-10T00:00:00Z", "name": "BOS @ TOR",
			 "eventTeams": {"0": {"id": 101}, "1": {"id": 102}},
			 "gameOddsMarketSourcesLines": {
				"si0:an0:0": {"bt1": {"marketSourceId": 5, "americanPrice": 150, "modifiedOn": ""}},
				"si1:an0:0": {"bt1": {"marketSourceId": 5, "americanPrice": -170, "modifiedOn": ""}}
			 }}
		]
	}
}`

const refreshPollFixture = `{
	"poll": {
		"options": [
			{"label": "BOS", "odds": "+150", "count": 10},
			{"label": "TOR", "odds": "-170", "count": 30},
			{"label": "ZZZ", "odds": "+300", "count": 7}
		]
	}
}`

func newRefreshFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, refreshFeedFixture)
	})
	mux.HandleFunc("/ids", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"nhl": 4242}`)
	})
	mux.HandleFunc("/proxy", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, refreshPollFixture)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshEndToEnd(t *testing.T) {
	srv := newRefreshFixtureServer(t)
	logger := quietLogger()
	httpClient := datasource.NewHTTPClient(datasource.DefaultHTTPClientConfig(), logger)

	feed := datasource.NewGameOddsClient(httpClient, srv.URL+"/feed", logger)
	poll := datasource.NewPollClient(httpClient, srv.URL+"/ids", srv.URL+"/proxy", "https://api.example.com/polls", 0, logger)

	normalizer, err := NewEventNormalizer(testLeagueTable, "America/New_York", logger)
	require.NoError(t, err)
	normalizer.now = func() time.Time { return testNow }

	leagues := map[string]config.LeagueConfig{
		"nhl": {ID: 6, BetType: "bt1", HasPoints: false},
	}
	svc := NewRefreshService(datasource.StaticToken("session-token"), feed, poll, normalizer, leagues, logger)

	result, err := svc.Refresh(context.Background(), "nhl", RefreshState{})
	require.NoError(t, err)

	// Directories were rebuilt from the feed.
	assert.Equal(t, "Pinnacle", result.Markets.Name(5))
	assert.Contains(t, result.Teams, 101)

	require.Len(t, result.Events, 1)
	require.NotNil(t, result.Report)

	// BOS and TOR resolve and carry probabilities; ZZZ is dropped before
	// scoring because no NHL team carries that abbreviation.
	require.Len(t, result.Report.Valid, 2)
	assert.Empty(t, result.Report.Missing)
	for _, r := range result.Report.Valid {
		require.NotNil(t, r.FairProb)
		assert.False(t, r.EV.IsZero())
	}

	// Valid partition is sorted by EV descending.
	assert.True(t, result.Report.Valid[0].EV.GreaterThanOrEqual(result.Report.Valid[1].EV))
	assert.Equal(t, "nhl", result.Report.League)
}

func TestRefreshUnknownLeague(t *testing.T) {
	svc := NewRefreshService(datasource.StaticToken("session-token"), nil, nil, nil,
		map[string]config.LeagueConfig{}, quietLogger())

	_, err := svc.Refresh(context.Background(), "nhl", RefreshState{})
	assert.Error(t, err)
}

func TestRefreshFeedFailureAborts(t *testing.T) {
	srv := newRefreshFixtureServer(t)
	logger := quietLogger()
	httpClient := datasource.NewHTTPClient(datasource.DefaultHTTPClientConfig(), logger)

	feed := datasource.NewGameOddsClient(httpClient, srv.URL+"/feed", logger)
	poll := datasource.NewPollClient(httpClient, srv.URL+"/ids", srv.URL+"/proxy", "https://api.example.com/polls", 0, logger)

	normalizer, err := NewEventNormalizer(testLeagueTable, "America/New_York", logger)
	require.NoError(t, err)

	leagues := map[string]config.LeagueConfig{
		"nhl": {ID: 6, BetType: "bt1", HasPoints: false},
	}
	// Wrong token: the feed rejects the fetch and the cycle aborts.
	svc := NewRefreshService(datasource.StaticToken("bad-token"), feed, poll, normalizer, leagues, logger)

	result, err := svc.Refresh(context.Background(), "nhl", RefreshState{})
	assert.Error(t, err)
	assert.Nil(t, result)
}
