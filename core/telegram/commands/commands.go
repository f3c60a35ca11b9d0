package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and never advertised.
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}

// Public reports whether the command belongs in the Telegram command menu.
func (c Command) Public() bool {
	return !c.Hidden && !c.AdminOnly
}
