package middleware

import (
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware binds the correlation context to c and logs a sampled receipt line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received",
				receiptAttrs(c, tghelpers.UpdateMeta(c))...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, m tghelpers.Meta) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", m.Kind),
		slog.String("chat_type", string(m.ChatType)),
		slog.String("username", logger.SanitizeLimit(m.Username, 64)),
		slog.String("lang", m.Lang),
	}
	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.ParseCallbackData(cb)
		return append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	}
	return append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
}
