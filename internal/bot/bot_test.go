package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/state"
	"github.com/m3rciful/shopbot/core/store"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/catalog"
	"github.com/m3rciful/shopbot/internal/conversation"
	"github.com/m3rciful/shopbot/internal/i18n"
	"github.com/m3rciful/shopbot/internal/users"
)

const adminID int64 = 1

type outbound struct {
	kind   string
	text   string
	markup *tele.ReplyMarkup
}

// fakeContext records outbound calls; unimplemented methods panic through the nil embed.
type fakeContext struct {
	tele.Context

	mu       sync.Mutex
	upd      tele.Update
	store    map[string]any
	out      []outbound
	toasts   []string
	sendErr  error
	answered int
}

func newMessage(userID int64, text string) *fakeContext {
	return &fakeContext{
		upd: tele.Update{ID: 1, Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
			Text:   text,
		}},
		store: map[string]any{},
	}
}

func newPress(userID int64, data string) *fakeContext {
	return &fakeContext{
		upd: tele.Update{ID: 2, Callback: &tele.Callback{
			Sender:  &tele.User{ID: userID},
			Data:    data,
			Message: &tele.Message{Chat: &tele.Chat{ID: userID}},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.upd }

func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	return f.upd.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Callback != nil {
		return f.upd.Callback.Message.Chat
	}
	return f.upd.Message.Chat
}

func (f *fakeContext) Callback() *tele.Callback { return f.upd.Callback }

func (f *fakeContext) Text() string {
	if f.upd.Message == nil {
		return ""
	}
	return f.upd.Message.Text
}

func (f *fakeContext) Get(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *fakeContext) Set(key string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = v
}

func (f *fakeContext) record(kind string, what any, opts []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	o := outbound{kind: kind}
	o.text, _ = what.(string)
	for _, opt := range opts {
		if so, ok := opt.(*tele.SendOptions); ok && so != nil {
			o.markup = so.ReplyMarkup
		}
	}
	f.out = append(f.out, o)
	return nil
}

func (f *fakeContext) Send(what any, opts ...any) error { return f.record("send", what, opts) }

func (f *fakeContext) EditOrSend(what any, opts ...any) error { return f.record("edit", what, opts) }

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered++
	if len(resp) > 0 && resp[0] != nil {
		f.toasts = append(f.toasts, resp[0].Text)
	}
	return nil
}

type harness struct {
	t       *testing.T
	adapter *Adapter
	catalog *catalog.Service
	boxes   *conversation.Mailboxes
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	b := store.NewMemory()
	require.NoError(t, store.EnsureDefaults(ctx, b))
	u := users.New(b)
	cat := catalog.New(b)
	ctrl := conversation.New(u, cat, cart.New(b, cat), state.NewMemoryManager(), conversation.Options{AdminID: adminID})
	boxes := conversation.NewMailboxes(4, time.Minute, time.Second)
	t.Cleanup(boxes.Close)
	return &harness{t: t, adapter: New(ctrl, boxes, u), catalog: cat, boxes: boxes}
}

func buttonData(rm *tele.ReplyMarkup) []string {
	var out []string
	if rm == nil {
		return out
	}
	for _, row := range rm.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

func TestStartAndPickLanguage(t *testing.T) {
	h := newHarness(t)

	start := newMessage(42, "/start")
	require.NoError(t, h.adapter.OnCommand(start))
	require.Len(t, start.out, 1)
	assert.Equal(t, "send", start.out[0].kind)
	assert.Equal(t, i18n.Both(i18n.ChooseLanguage)+":", start.out[0].text)
	assert.Equal(t, []string{"lang|uz", "lang|ru"}, buttonData(start.out[0].markup))

	pick := newPress(42, "lang|uz")
	require.NoError(t, h.adapter.OnButton(pick))
	assert.Equal(t, 1, pick.answered)
	require.NotEmpty(t, pick.out)
	assert.Equal(t, "edit", pick.out[0].kind)
	assert.Contains(t, buttonData(pick.out[len(pick.out)-1].markup), conversation.KeyProducts)
}

func TestButtonNoticeIsToast(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, err := h.catalog.AddCategory(ctx, "Shoes")
	require.NoError(t, err)
	p, err := h.catalog.AddProduct(ctx, c.ID, "Boots", "1500", "")
	require.NoError(t, err)

	require.NoError(t, h.adapter.OnCommand(newMessage(42, "/start")))
	require.NoError(t, h.adapter.OnButton(newPress(42, "lang|ru")))
	require.NoError(t, h.adapter.OnButton(newPress(42, "products")))
	require.NoError(t, h.adapter.OnButton(newPress(42, "cat|"+c.ID)))
	require.NoError(t, h.adapter.OnButton(newPress(42, "prod|"+c.ID+"|"+p.ID)))

	add := newPress(42, "cart_add|"+c.ID+"|"+p.ID)
	require.NoError(t, h.adapter.OnButton(add))
	require.Equal(t, []string{i18n.T(i18n.Ru, i18n.AddedToCart)}, add.toasts)
	require.NotEmpty(t, add.out)
	assert.Contains(t, add.out[0].text, "1500")
}

func TestTextWithoutSessionGetsHint(t *testing.T) {
	h := newHarness(t)
	msg := newMessage(7, "hello")
	require.NoError(t, h.adapter.OnText(msg))
	require.Len(t, msg.out, 1)
	assert.Equal(t, i18n.Both(i18n.StartHint), msg.out[0].text)
}

func TestUnknownSlashTextIsCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.adapter.OnCommand(newMessage(7, "/start")))
	msg := newMessage(7, "/cancel@shop_bot")
	require.NoError(t, h.adapter.OnText(msg))
	require.Len(t, msg.out, 1)
	assert.Equal(t, i18n.Both(i18n.Cancelled), msg.out[0].text)
}

func TestAdminFormRoutesText(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.adapter.OnCommand(newMessage(adminID, "/admin")))
	require.NoError(t, h.adapter.OnButton(newPress(adminID, "add_category")))
	assert.True(t, h.adapter.InProgress(adminID))

	msg := newMessage(adminID, "Hats")
	require.NoError(t, h.adapter.HandleText(msg))
	require.NotEmpty(t, msg.out)
	assert.Equal(t, i18n.T(i18n.Ru, i18n.CategoryAdded, "Hats"), msg.out[0].text)
	assert.False(t, h.adapter.InProgress(adminID))

	cats, err := h.catalog.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
}

type failingHandler struct{ err error }

func (f failingHandler) Handle(context.Context, conversation.Event) (conversation.Reply, error) {
	return conversation.Reply{}, f.err
}

func (failingHandler) AwaitingText(int64) bool { return false }

type fixedLang i18n.Lang

func (l fixedLang) Lang(context.Context, int64) (i18n.Lang, error) { return i18n.Lang(l), nil }

func TestInfrastructureErrorSendsGenericFailure(t *testing.T) {
	boom := errors.New("disk full")
	boxes := conversation.NewMailboxes(4, time.Minute, time.Second)
	defer boxes.Close()
	a := New(failingHandler{err: boom}, boxes, fixedLang(i18n.Uz))

	press := newPress(5, "products")
	err := a.OnButton(press)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, press.answered)
	require.Len(t, press.out, 1)
	assert.Equal(t, i18n.T(i18n.Uz, i18n.GenericFailure), press.out[0].text)

	a = New(failingHandler{err: boom}, boxes, fixedLang(""))
	msg := newMessage(6, "x")
	assert.ErrorIs(t, a.OnText(msg), boom)
	require.Len(t, msg.out, 1)
	assert.Equal(t, i18n.Both(i18n.GenericFailure), msg.out[0].text)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, conversation.Event) (conversation.Reply, error) {
	panic("render exploded")
}
func (panickingHandler) AwaitingText(int64) bool { return false }

func TestHandlerPanicSendsGenericFailure(t *testing.T) {
	boxes := conversation.NewMailboxes(4, time.Minute, time.Second)
	defer boxes.Close()
	a := New(panickingHandler{}, boxes, fixedLang(i18n.Ru))

	msg := newMessage(9, "hello")
	assert.ErrorIs(t, a.OnText(msg), conversation.ErrPanic)
	require.Len(t, msg.out, 1)
	assert.Equal(t, i18n.T(i18n.Ru, i18n.GenericFailure), msg.out[0].text)

	again := newMessage(9, "hello")
	assert.ErrorIs(t, a.OnText(again), conversation.ErrPanic)
	require.Len(t, again.out, 1)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	reg := tg.NewRegistry()
	require.NoError(t, h.adapter.Register(reg))

	assert.Len(t, reg.Commands(), 3)
	assert.True(t, reg.Commands()["/admin"].AdminOnly)
	assert.Len(t, reg.ListCommands(true), 2)
	assert.ElementsMatch(t, conversation.TokenKeys, reg.ListCallbacks())
	assert.NotNil(t, reg.TextFallback())

	assert.Error(t, h.adapter.Register(reg), "duplicate callbacks are rejected")
}

func TestMarkup(t *testing.T) {
	assert.Nil(t, markup(nil))
	rm := markup([][]conversation.Button{{{Text: "A", Token: "cat|1"}}, {{Text: "Back", Token: "main_menu"}}})
	assert.Equal(t, []string{"cat|1", "main_menu"}, buttonData(rm))
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "start", commandName("/Start@shop_bot deep"))
	assert.Equal(t, "admin", commandName("/admin"))
	assert.Empty(t, commandName(""))
}
