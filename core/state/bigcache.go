package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/m3rciful/shopbot/core/logger"
)

// bigcacheManager stores JSON-encoded sessions in bigcache so idle
// conversations expire after the configured life window.
type bigcacheManager struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

// NewBigcacheManager builds a Manager whose sessions expire after idleTTL without writes.
func NewBigcacheManager(ctx context.Context, idleTTL time.Duration) (Manager, error) {
	cfg := bigcache.DefaultConfig(idleTTL)
	cfg.CleanWindow = idleTTL / 4
	if cfg.CleanWindow < time.Second {
		cfg.CleanWindow = time.Second
	}
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("state: init bigcache: %w", err)
	}
	return &bigcacheManager{cache: cache, now: time.Now}, nil
}

func cacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (m *bigcacheManager) Get(userID int64) Session {
	data, err := m.cache.Get(cacheKey(userID))
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			logger.CONV.Warn("session read failed",
				slog.String("event", "session.get"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		return Session{State: StateIdle}
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		logger.CONV.Warn("session decode failed",
			slog.String("event", "session.get"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return Session{State: StateIdle}
	}
	return s
}

func (m *bigcacheManager) Put(userID int64, s Session) {
	s.UpdatedAt = m.now()
	data, err := json.Marshal(s)
	if err == nil {
		err = m.cache.Set(cacheKey(userID), data)
	}
	if err != nil {
		logger.CONV.Error("session write failed",
			slog.String("event", "session.put"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func (m *bigcacheManager) GetState(userID int64) State {
	return m.Get(userID).State
}

func (m *bigcacheManager) Clear(userID int64) {
	if err := m.cache.Delete(cacheKey(userID)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		logger.CONV.Warn("session delete failed",
			slog.String("event", "session.clear"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func (m *bigcacheManager) InProgress(userID int64) bool {
	st := m.GetState(userID)
	return st != StateIdle && st != ""
}

func (m *bigcacheManager) Len() int {
	return m.cache.Len()
}
