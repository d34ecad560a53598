package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

const gameOddsSourceName = "game_odds"

// RawFeed is the game-odds feed payload as delivered. Events are kept as
// raw messages so a single malformed event can be skipped during
// normalization instead of failing the whole feed decode.
type RawFeed struct {
	MarketSources  []RawMarketSource            `json:"marketSources"`
	Teams          map[string]RawTeam           `json:"teams"`
	GameOddsEvents map[string][]json.RawMessage `json:"gameOddsEvents"`
}

// RawMarketSource is a bookmaker entry from the feed.
type RawMarketSource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RawTeam is a team entry from the feed.
type RawTeam struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	EventID      int    `json:"eventId"`
	LeagueID     int    `json:"leagueId"`
}

// RawEvent is one matchup from the feed. Odds sources are keyed by a
// side-prefixed string ("si0:...", "si1:..."); each value maps bet-type tags
// ("bt1", "bt2", ...) to a price line.
type RawEvent struct {
	EventID     int                        `json:"eventId"`
	EventStart  string                     `json:"eventStart"`
	Name        string                     `json:"name"`
	EventTeams  map[string]RawEventTeam    `json:"eventTeams"`
	OddsSources map[string]json.RawMessage `json:"gameOddsMarketSourcesLines"`
}

// RawEventTeam carries the team id for one side slot.
type RawEventTeam struct {
	ID int `json:"id"`
}

// RawPriceLine is a single book's price on one bet type.
type RawPriceLine struct {
	MarketSourceID int      `json:"marketSourceId"`
	AmericanPrice  int      `json:"americanPrice"`
	Points         *float64 `json:"points"`
	ModifiedOn     string   `json:"modifiedOn"`
}

// LeagueKey builds the feed key for a league's pregame section.
func LeagueKey(leagueID int) string {
	return fmt.Sprintf("lg%d:pt1:pregame", leagueID)
}

// LeagueEvents returns the raw events for one league, or nil when the feed
// carries no section for it.
func (f *RawFeed) LeagueEvents(leagueID int) []json.RawMessage {
	return f.GameOddsEvents[LeagueKey(leagueID)]
}

// GameOddsClient fetches the raw per-league event/odds feed. Pure I/O
// boundary: it never interprets the payload beyond decoding it.
type GameOddsClient struct {
	httpClient *HTTPClient
	baseURL    string
	logger     *logrus.Logger
}

// NewGameOddsClient creates a feed client for the given base URL.
func NewGameOddsClient(httpClient *HTTPClient, baseURL string, logger *logrus.Logger) *GameOddsClient {
	return &GameOddsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// FetchFeed retrieves the full feed. The session token is passed as the
// feed's "v" query parameter; an empty token omits the parameter, which the
// feed accepts for the static reference sections only.
func (c *GameOddsClient) FetchFeed(ctx context.Context, token string) (*RawFeed, error) {
	feedURL := c.baseURL
	if token != "" {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, NewDataSourceError(gameOddsSourceName, ErrCodeNetworkError, "invalid feed URL", err)
		}
		q := u.Query()
		q.Set("v", token)
		u.RawQuery = q.Encode()
		feedURL = u.String()
	}

	resp, err := c.httpClient.Get(ctx, feedURL)
	if err != nil {
		return nil, NewDataSourceError(gameOddsSourceName, ErrCodeNetworkError, "failed to fetch odds feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, NewDataSourceError(gameOddsSourceName, ErrCodeAuthenticationFailed, "session token rejected", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(gameOddsSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var feed RawFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, NewDataSourceError(gameOddsSourceName, ErrCodeInvalidData, "failed to parse odds feed", err)
	}

	c.logger.WithFields(logrus.Fields{
		"market_sources": len(feed.MarketSources),
		"teams":          len(feed.Teams),
		"league_keys":    len(feed.GameOddsEvents),
	}).Debug("Fetched odds feed")

	return &feed, nil
}
