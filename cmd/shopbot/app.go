package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/shopbot/core/bootstrap"
	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/state"
	coretelegram "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/internal/bot"
	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/catalog"
	"github.com/m3rciful/shopbot/internal/conversation"
	"github.com/m3rciful/shopbot/internal/i18n"
	"github.com/m3rciful/shopbot/internal/ops"
	"github.com/m3rciful/shopbot/internal/seed"
	"github.com/m3rciful/shopbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

type app struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	sessions state.Manager
	ctrl     *conversation.Controller
	boxes    *conversation.Mailboxes
	adapter  *bot.Adapter
}

func newApp(cfg *coreconfig.Config) (*app, error) {
	ctx := context.Background()
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config: cfg,
		Modules: bootstrap.Modules{
			Seeders: []bootstrap.Seeder{seed.Seeder{Path: cfg.Seed.CatalogFile}},
		},
	})
	if err != nil {
		return nil, err
	}

	sessions, err := newSessions(ctx, cfg.Session)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	usersSvc := users.New(infra.Store)
	catalogSvc := catalog.New(infra.Store)
	cartSvc := cart.New(infra.Store, catalogSvc)

	adminLang, _ := i18n.ParseLang(cfg.Conversation.AdminLang)
	ctrl := conversation.New(usersSvc, catalogSvc, cartSvc, sessions, conversation.Options{
		AdminID:   cfg.Telegram.AdminID,
		AdminLang: adminLang,
		Hours:     cfg.Shop.Hours,
		Phone:     cfg.Shop.Phone,
	})
	boxes := conversation.NewMailboxes(
		cfg.Conversation.MailboxSize,
		cfg.Conversation.MailboxIdle,
		cfg.Conversation.HandlerTimeout,
	)

	return &app{
		cfg:      cfg,
		infra:    infra,
		sessions: sessions,
		ctrl:     ctrl,
		boxes:    boxes,
		adapter:  bot.New(ctrl, boxes, usersSvc),
	}, nil
}

func newSessions(ctx context.Context, cfg coreconfig.SessionConfig) (state.Manager, error) {
	switch cfg.Backend {
	case coreconfig.SessionBigcache:
		m, err := state.NewBigcacheManager(ctx, cfg.IdleTTL)
		if err != nil {
			return nil, fmt.Errorf("sessions: %w", err)
		}
		return m, nil
	default:
		return state.NewMemoryManager(), nil
	}
}

// TelegramRunOptions assembles registry, routes and lifecycle hooks.
func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.adapter.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.adapter.OnCommand,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.adapter, reg, router.TextOptions{})...)

	var opsServer *ops.Server
	return coretelegram.RunOptions{
		Config:         a.cfg,
		Registry:       reg,
		Middlewares:    coretelegram.DefaultMiddlewares(a.cfg, answerLimited),
		Routes:         routes,
		AllowedUpdates: []string{"message", "callback_query"},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.cfg.HTTP.Listen == "" {
				return nil
			}
			opsServer = ops.Start(a.cfg.HTTP.Listen, ops.NewRouter(ops.Options{
				Store:      a.infra.Store,
				Sessions:   a.ctrl.Sessions,
				Mailboxes:  a.boxes.Len,
				SendErrors: rt.Dispatcher.ErrorCount,
			}))
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				logger.OPS.Warn("ops shutdown", slog.String("event", "http.shutdown"), slog.String("err", err.Error()))
			}
			a.boxes.Close()
			return a.infra.Close()
		},
	}, nil
}

// answerLimited clears the button spinner for throttled presses.
func answerLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond()
	}
	return nil
}
