package ops

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

	"github.com/m3rciful/shopbot/core/store"
)

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewRouter(Options{Store: store.NewMemory()}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, NewRouter(Options{Store: downStore{}}), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestStats(t *testing.T) {
	r := NewRouter(Options{
		Sessions:   func() int { return 3 },
		Mailboxes:  func() int { return 2 },
		SendErrors: func() uint64 { return 7 },
	})
	rec := get(t, r, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var s Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 3, s.Sessions)
	assert.Equal(t, 2, s.Mailboxes)
	assert.Equal(t, uint64(7), s.SendErrors)
	assert.NotEmpty(t, s.Version)
}

func TestStatsWithoutCounters(t *testing.T) {
	rec := get(t, NewRouter(Options{}), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var s Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Zero(t, s.Sessions)
}

func TestServerShutdown(t *testing.T) {
	s := Start("127.0.0.1:0", NewRouter(Options{}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))

	var nilServer *Server
	assert.NoError(t, nilServer.Shutdown(ctx))
}
