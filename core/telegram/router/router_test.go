package router

import (
	"errors"
	"testing"

	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type stubConversation struct {
	active map[int64]bool
	texts  []string
}

func (s *stubConversation) InProgress(userID int64) bool { return s.active[userID] }

func (s *stubConversation) HandleText(c tele.Context) error {
	s.texts = append(s.texts, c.Text())
	return nil
}

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func textCtx(b *tele.Bot, userID int64, text string) tele.Context {
	return b.NewContext(tele.Update{
		ID: 1,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
			Text:   text,
		},
	})
}

func TestTextRoutesPrecedence(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	var got []string
	reg.RegisterCommand("/start", commands.Command{
		Description: "start",
		Aliases:     []string{"/begin"},
		Handler:     func(tele.Context) error { got = append(got, "start"); return nil },
	})
	reg.SetTextFallback(func(c tele.Context) error { got = append(got, "fallback:"+c.Text()); return nil })

	conv := &stubConversation{active: map[int64]bool{5: true}}
	routes := TextRoutes(conv, reg, TextOptions{})
	require.Len(t, routes, 1)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)
	h := routes[0].Handler

	require.NoError(t, h(textCtx(b, 5, "Shirt\n100")))
	assert.Equal(t, []string{"Shirt\n100"}, conv.texts)

	require.NoError(t, h(textCtx(b, 6, "/begin")))
	require.NoError(t, h(textCtx(b, 6, "hello")))
	require.NoError(t, h(textCtx(b, 6, "start")))
	require.NoError(t, h(textCtx(b, 6, "/start@shopbot")))
	assert.Equal(t, []string{"start", "fallback:hello", "fallback:start", "start"}, got)
}

func TestTextRoutesUnknown(t *testing.T) {
	b := offlineBot(t)
	called := false
	routes := TextRoutes(nil, nil, TextOptions{UnknownText: func(tele.Context) error { called = true; return nil }})
	require.NoError(t, routes[0].Handler(textCtx(b, 1, "x")))
	assert.True(t, called)
}

func TestCallbackRoute(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	var hit string
	require.NoError(t, reg.RegisterCallback("cat", func(tele.Context) error { hit = "cat"; return nil }))
	reg.SetCallbackNotFound(func(tele.Context) error { hit = "missing"; return nil })

	route := CallbackRoute(reg, CallbackOptions{})
	assert.Equal(t, tele.OnCallback, route.Endpoint)

	cb := func(data string) tele.Context {
		return b.NewContext(tele.Update{ID: 2, Callback: &tele.Callback{Sender: &tele.User{ID: 9}, Data: data}})
	}
	require.NoError(t, route.Handler(cb("cat|3")))
	assert.Equal(t, "cat", hit)
	require.NoError(t, route.Handler(cb("nope")))
	assert.Equal(t, "missing", hit)
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "bad input" }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "BAD_INPUT", errorCode(codedErr{}))
	assert.Equal(t, "ERRORSTRING", errorCode(errors.New("x")))
	assert.Empty(t, errorCode(nil))
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "command.start", handlerName("command", "/Start"))
	assert.Equal(t, "callback.unknown", handlerName("callback", "  "))
	assert.Equal(t, "command.add_product", handlerName("command", "add product"))
}

func TestSummaryReturnsHandlerError(t *testing.T) {
	b := offlineBot(t)
	boom := errors.New("boom")
	err := summary{handler: "test"}.run(textCtx(b, 1, "x"), func(tele.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, summary{handler: "noop"}.run(textCtx(b, 1, "x"), nil))
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "/start", commandName("/start@shop_bot payload"))
	assert.Equal(t, "/admin", commandName("  /admin  "))
	assert.Empty(t, commandName(""))
}
