package helpers

import (
	"context"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey     = "log_ctx"
	repliesKey = "replies"
)

// Meta holds the identifiers of the update behind a tele.Context.
type Meta struct {
	UpdateID int
	UserID   int64
	ChatID   int64
	ChatType tele.ChatType
	Username string
	Lang     string
	Kind     string
}

// UpdateMeta extracts Meta from c.
func UpdateMeta(c tele.Context) Meta {
	upd := c.Update()
	m := Meta{UpdateID: upd.ID, Kind: UpdateKind(upd)}
	if u := c.Sender(); u != nil {
		m.UserID, m.Username, m.Lang = u.ID, u.Username, u.LanguageCode
	}
	if ch := c.Chat(); ch != nil {
		m.ChatID, m.ChatType = ch.ID, ch.Type
	}
	return m
}

// RID is the correlation id logged with every line of the update.
func (m Meta) RID() string {
	return logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
}

// UpdateKind names the update type the way rate limit exclusions spell it.
func UpdateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return coreconfig.UpdateCallback
	case u.Message != nil:
		return coreconfig.UpdateMessage
	case u.Query != nil:
		return "inline_query"
	}
	return "other"
}

// StoreContext keeps ctx on c for later helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the stored context or derives one carrying the update ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	m := UpdateMeta(c)
	ctx := logger.WithRID(context.Background(), m.RID())
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the stored context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}

// Replies counts the messages queued while one update is handled.
type Replies struct {
	Messages int
	Keyboard bool
}

// TrackReplies starts counting replies for c.
func TrackReplies(c tele.Context) {
	c.Set(repliesKey, &Replies{})
}

// RepliesFrom returns the counters started by TrackReplies.
func RepliesFrom(c tele.Context) Replies {
	if r, ok := c.Get(repliesKey).(*Replies); ok && r != nil {
		return *r
	}
	return Replies{}
}

func countReply(c tele.Context, keyboard bool) {
	if r, ok := c.Get(repliesKey).(*Replies); ok && r != nil {
		r.Messages++
		r.Keyboard = r.Keyboard || keyboard
	}
}
