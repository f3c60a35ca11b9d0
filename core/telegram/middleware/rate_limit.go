package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const pruneThreshold = 4096

// RateLimitOptions configures RateLimitMiddleware. Exclude holds update kinds
// ("callback", "message") that bypass the limit.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// limiter remembers when each user was last let through.
type limiter struct {
	mu       sync.Mutex
	interval time.Duration
	seen     map[int64]time.Time
}

func (l *limiter) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.seen[userID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.seen[userID] = now
	if len(l.seen) > pruneThreshold {
		for id, ts := range l.seen {
			if now.Sub(ts) >= l.interval {
				delete(l.seen, id)
			}
		}
	}
	return true
}

// RateLimitMiddleware drops updates arriving from a user less than Interval after the
// previous accepted one. A zero Interval disables it.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lim := &limiter{interval: opts.Interval, seen: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := tghelpers.UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip || lim.allow(user.ID, time.Now()) {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("outcome", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
