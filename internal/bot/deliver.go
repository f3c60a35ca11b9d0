package bot

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/internal/conversation"
)

// deliver answers the callback (with the notice as a toast) or sends the notice
// as its own message, then emits every render in order.
func deliver(ctx context.Context, c tele.Context, ev conversation.Event, r conversation.Reply) error {
	if _, pressed := ev.(conversation.ButtonPress); pressed {
		resp := &tele.CallbackResponse{Text: r.Notice}
		if err := c.Respond(resp); err != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "callback.respond",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	} else if r.Notice != "" {
		if err := tghelpers.SendText(c, r.Notice); err != nil {
			return err
		}
	}

	for _, rd := range r.Renders {
		rm := markup(rd.Buttons)
		var err error
		if rd.Mode == conversation.Edit {
			err = tghelpers.EditMarkup(c, rd.Text, rm)
		} else {
			err = tghelpers.SendMarkup(c, rd.Text, rm)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func markup(rows [][]conversation.Button) *tele.ReplyMarkup {
	kb := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Text, Data: b.Token})
		}
		kb = append(kb, r)
	}
	return keyboard.InlineButtonsRows(kb...)
}
