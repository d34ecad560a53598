package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func readyStatus(t *testing.T, s *Server) (int, ReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body ReadyResponse
	require.NoError(t, decodeBody(rec, &body))
	return rec.Code, body
}

func decodeBody(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func TestReadyBeforeFirstCycle(t *testing.T) {
	s := NewServer(Config{ServiceName: "underdog-edge"})

	code, body := readyStatus(t, s)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body.Status)
	assert.Contains(t, body.Checks["cycle"], "no completed cycle")
}

func TestReadyAfterSuccessfulCycle(t *testing.T) {
	s := NewServer(Config{ServiceName: "underdog-edge"})
	s.RecordCycle(nil)

	code, body := readyStatus(t, s)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.LastCycle)
}

func TestReadyStaleCycle(t *testing.T) {
	s := NewServer(Config{ServiceName: "underdog-edge", MaxCycleAge: time.Minute})
	s.RecordCycle(nil)
	s.mu.Lock()
	s.lastCycle = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	code, body := readyStatus(t, s)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks["cycle"], "stale")
}

func TestReadyFailedAttemptKeepsLastSuccess(t *testing.T) {
	s := NewServer(Config{ServiceName: "underdog-edge"})
	s.RecordCycle(nil)
	s.RecordCycle(errors.New("feed down"))

	code, body := readyStatus(t, s)
	assert.Equal(t, http.StatusOK, code, "a failed attempt after a success stays ready")
	assert.Contains(t, body.Checks["cycle"], "feed down")
}

func TestReadyDatabaseDown(t *testing.T) {
	s := NewServer(Config{ServiceName: "underdog-edge", DB: fakePinger{err: errors.New("refused")}})
	s.RecordCycle(nil)

	code, body := readyStatus(t, s)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks["database"], "refused")
}

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(Config{ServiceName: "underdog-edge"})
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body StatusResponse
	require.NoError(t, decodeBody(rec, &body))
	assert.Equal(t, "underdog-edge", body.Service)
}
