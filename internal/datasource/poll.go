package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const pollSourceName = "poll"

// PollPayload is the poll feed contract: an object with a poll.options list.
type PollPayload struct {
	Poll struct {
		Options []PollOption `json:"options"`
	} `json:"poll"`
}

// PollOption is one poll entry as delivered: label, quoted American odds
// (string, possibly "+"-prefixed) and a vote count.
type PollOption struct {
	Label string     `json:"label"`
	Odds  QuotedOdds `json:"odds"`
	Count int        `json:"count"`
}

// QuotedOdds tolerates the feed quoting odds either as a string ("+150")
// or a bare number.
type QuotedOdds string

// UnmarshalJSON accepts both string and numeric odds values.
func (q *QuotedOdds) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = QuotedOdds(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*q = QuotedOdds(n.String())
		return nil
	}
	return fmt.Errorf("odds is neither string nor number: %s", string(data))
}

// PollClient fetches the daily underdog poll. Poll ids are resolved per
// sport from an ids endpoint, then the poll itself is fetched through the
// proxy worker. Responses are cached for a short TTL so repeated refreshes
// within a cycle window do not hammer the worker.
type PollClient struct {
	httpClient *HTTPClient
	idsURL     string
	proxyURL   string
	pollAPIURL string
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewPollClient creates a poll client. cacheTTL <= 0 disables caching.
func NewPollClient(httpClient *HTTPClient, idsURL, proxyURL, pollAPIURL string, cacheTTL time.Duration, logger *logrus.Logger) *PollClient {
	var c *cache.Cache
	if cacheTTL > 0 {
		c = cache.New(cacheTTL, 2*cacheTTL)
	}
	return &PollClient{
		httpClient: httpClient,
		idsURL:     idsURL,
		proxyURL:   proxyURL,
		pollAPIURL: pollAPIURL,
		cache:      c,
		logger:     logger,
	}
}

// FetchPoll retrieves the poll for one sport.
func (c *PollClient) FetchPoll(ctx context.Context, sport string) (*PollPayload, error) {
	if c.cache != nil {
		if cached, found := c.cache.Get(sport); found {
			if payload, ok := cached.(*PollPayload); ok {
				c.logger.WithField("sport", sport).Debug("Poll served from cache")
				return payload, nil
			}
		}
	}

	pollID, err := c.fetchPollID(ctx, sport)
	if err != nil {
		return nil, err
	}

	payload, err := c.fetchPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(sport, payload, cache.DefaultExpiration)
	}
	return payload, nil
}

// fetchPollID resolves the sport name to its current poll id.
func (c *PollClient) fetchPollID(ctx context.Context, sport string) (string, error) {
	resp, err := c.httpClient.Get(ctx, c.idsURL)
	if err != nil {
		return "", NewDataSourceError(pollSourceName, ErrCodeNetworkError, "failed to fetch poll ids", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", NewDataSourceError(pollSourceName, ErrCodeServerError,
			fmt.Sprintf("poll ids endpoint returned %d", resp.StatusCode), nil)
	}

	var ids map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return "", NewDataSourceError(pollSourceName, ErrCodeInvalidData, "failed to parse poll ids", err)
	}

	id, ok := ids[strings.ToLower(sport)]
	if !ok || id.String() == "" {
		return "", NewDataSourceError(pollSourceName, ErrCodeNotFound,
			fmt.Sprintf("no poll id for sport %q", sport), nil)
	}
	return id.String(), nil
}

// fetchPoll retrieves the poll payload through the proxy worker.
func (c *PollClient) fetchPoll(ctx context.Context, pollID string) (*PollPayload, error) {
	target := fmt.Sprintf("%s/%s", strings.TrimRight(c.pollAPIURL, "/"), pollID)
	workerURL := fmt.Sprintf("%s?url=%s", c.proxyURL, url.QueryEscape(target))

	resp, err := c.httpClient.Get(ctx, workerURL)
	if err != nil {
		return nil, NewDataSourceError(pollSourceName, ErrCodeNetworkError, "failed to fetch poll", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewDataSourceError(pollSourceName, ErrCodeServerError,
			fmt.Sprintf("poll endpoint returned %d", resp.StatusCode), nil)
	}

	var payload PollPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewDataSourceError(pollSourceName, ErrCodeInvalidData, "failed to parse poll payload", err)
	}

	c.logger.WithFields(logrus.Fields{
		"poll_id": pollID,
		"options": len(payload.Poll.Options),
	}).Debug("Fetched poll")

	return &payload, nil
}
