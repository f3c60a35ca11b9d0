// Package bot adapts Telegram updates to conversation events and delivers
// the resulting replies through the shared telegram helpers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	"github.com/m3rciful/shopbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/internal/conversation"
	"github.com/m3rciful/shopbot/internal/i18n"
)

// Handler is the conversation surface the adapter drives.
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event) (conversation.Reply, error)
	AwaitingText(userID int64) bool
}

// Languages resolves a user's chosen language for failure messages.
type Languages interface {
	Lang(ctx context.Context, id int64) (i18n.Lang, error)
}

// Adapter serializes each user's updates through a mailbox and renders replies.
type Adapter struct {
	ctrl  Handler
	boxes *conversation.Mailboxes
	langs Languages
}

// New wires an Adapter.
func New(ctrl Handler, boxes *conversation.Mailboxes, langs Languages) *Adapter {
	return &Adapter{ctrl: ctrl, boxes: boxes, langs: langs}
}

// Register binds commands, callbacks and the text fallback on the registry.
func (a *Adapter) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		conversation.CmdStart:  {Handler: a.OnCommand, Description: "Boshlash / Начать"},
		conversation.CmdCancel: {Handler: a.OnCommand, Description: "Bekor qilish / Отмена"},
		conversation.CmdAdmin:  {Handler: a.OnCommand, Description: "Admin panel", AdminOnly: true, Hidden: true},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand("/"+name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	for _, key := range conversation.TokenKeys {
		if err := reg.RegisterCallback(key, a.OnButton); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	reg.SetCallbackNotFound(a.OnButton)
	reg.SetTextFallback(a.OnText)
	return nil
}

// InProgress reports whether the user's next text message belongs to a form.
func (a *Adapter) InProgress(userID int64) bool {
	return a.ctrl.AwaitingText(userID)
}

// HandleText routes form input typed by the user.
func (a *Adapter) HandleText(c tele.Context) error {
	return a.OnText(c)
}

// OnCommand handles slash commands.
func (a *Adapter) OnCommand(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	return a.handle(c, conversation.Command{Name: commandName(c.Text()), UserID: user.ID})
}

// OnButton handles inline button presses, including stale or unknown ones.
func (a *Adapter) OnButton(c tele.Context) error {
	user := c.Sender()
	if user == nil || c.Callback() == nil {
		return nil
	}
	return a.handle(c, conversation.ButtonPress{Token: callbacks.CallbackData(c), UserID: user.ID})
}

// OnText handles free text. Unregistered slash commands are passed on as commands.
func (a *Adapter) OnText(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	text := c.Text()
	if strings.HasPrefix(text, "/") {
		return a.handle(c, conversation.Command{Name: commandName(text), UserID: user.ID})
	}
	return a.handle(c, conversation.TextMessage{Body: text, UserID: user.ID})
}

func (a *Adapter) handle(c tele.Context, ev conversation.Event) error {
	ctx := logger.WithTrace(tghelpers.BuildContext(c), uuid.NewString())
	tghelpers.StoreContext(c, ctx)

	err := a.boxes.Do(ctx, ev.Sender(), func(ctx context.Context) error {
		reply, err := a.ctrl.Handle(ctx, ev)
		if err != nil {
			return err
		}
		return deliver(ctx, c, ev, reply)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, conversation.ErrMailboxFull):
		logger.LogEvent(ctx, logger.CONV, slog.LevelWarn, "conv.mailbox_full",
			slog.String("kind", ev.Kind()),
			slog.String("outcome", "rate_limited"),
		)
		if _, ok := ev.(conversation.ButtonPress); ok {
			_ = c.Respond()
		}
		return nil
	}

	a.fail(ctx, c, ev)
	return err
}

// fail tells the user something went wrong, in their language when known.
func (a *Adapter) fail(ctx context.Context, c tele.Context, ev conversation.Event) {
	text := i18n.Both(i18n.GenericFailure)
	if lang, err := a.langs.Lang(ctx, ev.Sender()); err == nil && lang != "" {
		text = i18n.T(lang, i18n.GenericFailure)
	}
	if _, ok := ev.(conversation.ButtonPress); ok {
		_ = c.Respond()
	}
	if err := tghelpers.SendText(c, text); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "failure.notify",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// commandName extracts "start" from "/start@shop_bot payload".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(strings.TrimPrefix(name, "/"))
}
