package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// summary describes the handler.handled line written after each routed update.
// Empty status and outcome are derived from the handler error.
type summary struct {
	handler string
	status  string
	outcome string
	attrs   []slog.Attr
}

func (s summary) run(c tele.Context, h tele.HandlerFunc) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, s.handler)
	var err error
	if h != nil {
		err = h(c)
	}
	s.log(ctx, c, err, logger.Took(start))
	return err
}

func (s summary) log(ctx context.Context, c tele.Context, err error, took time.Duration) {
	if s.status == "" {
		s.status = logger.Status(err)
	}
	if s.outcome == "" {
		s.outcome = logger.Status(err)
	}
	replies := tghelpers.RepliesFrom(c)
	attrs := append([]slog.Attr{
		slog.String("status", s.status),
		slog.String("handler", s.handler),
		slog.String("outcome", s.outcome),
		slog.Int("messages", replies.Messages),
		slog.Bool("kb", replies.Keyboard),
		slog.Duration("duration", took),
	}, s.attrs...)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

// handlerName turns a command or callback key into a log-friendly name.
func handlerName(kind, name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		name = "unknown"
	}
	return kind + "." + strings.ReplaceAll(name, " ", "_")
}

// errorCode prefers an error's own Code() and falls back to its type name.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := err.(interface{ Code() string }); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(name)
}
