package router

import (
	"log/slog"

	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches callback queries by key through reg.
// Handlers answer the callback query themselves.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			if c.Callback() == nil {
				return nil
			}
			key := callbacks.CallbackKey(c)
			s := summary{
				handler: handlerName("callback", key),
				attrs:   []slog.Attr{slog.String("cb_key", key)},
			}
			if h, ok := reg.GetCallback(key); ok {
				return s.run(c, h)
			}
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			s.attrs = append(s.attrs, slog.String("cause", "not_found"))
			return s.run(c, fallback)
		},
	}
}
