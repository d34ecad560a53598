package datasource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPollTestServers(t *testing.T, pollBody string) (ids *httptest.Server, worker *httptest.Server, hits *int) {
	t.Helper()
	count := 0
	ids = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nhl": 4821, "nba": "4822"}`))
	}))
	worker = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		assert.Contains(t, r.URL.Query().Get("url"), "/polls/4821")
		w.Write([]byte(pollBody))
	}))
	t.Cleanup(ids.Close)
	t.Cleanup(worker.Close)
	return ids, worker, &count
}

func TestFetchPoll(t *testing.T) {
	body := `{"poll": {"options": [
		{"label": "BOS", "odds": "+150", "count": 42},
		{"label": "DET", "odds": -120, "count": 17}
	]}}`
	ids, worker, _ := newPollTestServers(t, body)

	client := NewPollClient(newTestHTTPClient(), ids.URL, worker.URL, "https://api.example.com/polls", 0, logrus.New())

	payload, err := client.FetchPoll(context.Background(), "nhl")
	require.NoError(t, err)
	require.Len(t, payload.Poll.Options, 2)

	// Odds arrive either as string or number; both normalize to a string.
	assert.Equal(t, QuotedOdds("+150"), payload.Poll.Options[0].Odds)
	assert.Equal(t, QuotedOdds("-120"), payload.Poll.Options[1].Odds)
	assert.Equal(t, 42, payload.Poll.Options[0].Count)
}

func TestFetchPollCaches(t *testing.T) {
	ids, worker, hits := newPollTestServers(t, `{"poll": {"options": []}}`)

	client := NewPollClient(newTestHTTPClient(), ids.URL, worker.URL, "https://api.example.com/polls", 10*time.Minute, logrus.New())

	_, err := client.FetchPoll(context.Background(), "nhl")
	require.NoError(t, err)
	_, err = client.FetchPoll(context.Background(), "nhl")
	require.NoError(t, err)

	assert.Equal(t, 1, *hits, "second fetch inside the TTL must hit the cache")
}

func TestFetchPollUnknownSport(t *testing.T) {
	ids, worker, _ := newPollTestServers(t, `{}`)

	client := NewPollClient(newTestHTTPClient(), ids.URL, worker.URL, "https://api.example.com/polls", 0, logrus.New())

	_, err := client.FetchPoll(context.Background(), "curling")
	var dsErr DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ErrCodeNotFound, dsErr.Code)
}

func TestFetchPollIDsEndpointDown(t *testing.T) {
	ids := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ids.Close()

	client := NewPollClient(newTestHTTPClient(), ids.URL, "http://unused", "https://api.example.com/polls", 0, logrus.New())

	_, err := client.FetchPoll(context.Background(), "nhl")
	var dsErr DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ErrCodeServerError, dsErr.Code)
}

func TestQuotedOddsRejectsGarbage(t *testing.T) {
	var opt PollOption
	err := json.Unmarshal([]byte(`{"label": "X", "odds": ["+150"], "count": 1}`), &opt)
	assert.Error(t, err)
}
