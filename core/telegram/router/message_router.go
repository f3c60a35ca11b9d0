package router

import (
	"strings"

	tg "github.com/m3rciful/shopbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Conversation receives free text for users in the middle of a multi-step flow.
type Conversation interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for text routing. Order of precedence:
// active conversation, registry command or alias, registry text fallback, UnknownText.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		text := c.Text()
		if conv != nil && c.Sender() != nil && conv.InProgress(c.Sender().ID) {
			return summary{handler: "conversation"}.run(c, conv.HandleText)
		}
		if reg != nil && strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(commandName(text)); ok && cmd.Handler != nil {
				return summary{handler: handlerName("command", key)}.run(c, cmd.Handler)
			}
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return summary{handler: "fallback"}.run(c, fb)
			}
		}
		if opts.UnknownText != nil {
			return summary{handler: "unknown_text"}.run(c, opts.UnknownText)
		}
		return summary{handler: "unknown_text", status: "skip", outcome: "ignored"}.run(c, nil)
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}

// commandName strips arguments and a "@botname" suffix from a slash command.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return name
}
