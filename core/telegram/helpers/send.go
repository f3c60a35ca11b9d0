package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the dispatcher used by the send helpers; nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// sendAsync queues run on the dispatcher. When the queue is full or closed the
// call runs inline so the reply is not lost.
func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	if !errors.Is(err, sender.ErrQueueFull) && !errors.Is(err, sender.ErrQueueClosed) {
		return err
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "send.inline",
		slog.String("status", "retry"),
		slog.String("action", action),
		slog.String("endpoint", endpoint),
		slog.String("cause", err.Error()),
	)
	return run()
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	countReply(c, sendOpts != nil && sendOpts.ReplyMarkup != nil)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMarkup sends plain text with an optional inline keyboard.
func SendMarkup(c tele.Context, text string, rm *tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: rm})
}

// EditMarkup replaces the text and keyboard of the message the callback came from.
// Falls back to a fresh message when there is nothing to edit; an unchanged
// message is not an error.
func EditMarkup(c tele.Context, text string, rm *tele.ReplyMarkup) error {
	countReply(c, rm != nil)
	return sendAsync(c, "edit.text", "editMessageText", func() error {
		err := c.EditOrSend(text, &tele.SendOptions{ReplyMarkup: rm})
		if errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
		return err
	})
}
