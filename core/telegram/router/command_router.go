package router

import (
	"context"
	"log/slog"
	"slices"

	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures the admin gate of AdminOnly commands.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command, in name order.
// AdminOnly commands are gated before their summary line is written.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	slices.Sort(names)

	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		def := cmds[name]
		h := summarized(name, def.Handler)
		if def.AdminOnly {
			h = gate(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "routes.commands",
		slog.String("status", "ok"),
		slog.Int("count", len(routes)),
		slog.Int("total", len(reg.ListCallbacks())),
	)
	return routes
}

func summarized(cmd string, h tele.HandlerFunc) tele.HandlerFunc {
	s := summary{handler: handlerName("command", cmd)}
	return func(c tele.Context) error {
		return s.run(c, h)
	}
}
