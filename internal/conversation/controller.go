// Package conversation implements the storefront dialogue as an explicit state machine.
//
// Each inbound Event is resolved against the current session state through a
// transition table. The matched handler mutates users, catalog or carts and
// returns a Reply describing what to show. The controller owns the session
// lifecycle: /start creates it, /cancel and authorization failures clear it.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/state"
	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/catalog"
	"github.com/m3rciful/shopbot/internal/i18n"
)

// Users is the subset of the users service the controller needs.
type Users interface {
	Ensure(ctx context.Context, id int64) error
	Lang(ctx context.Context, id int64) (i18n.Lang, error)
	SetLang(ctx context.Context, id int64, lang i18n.Lang) error
}

// Catalog is the subset of the catalog service the controller needs.
type Catalog interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	GetCategory(ctx context.Context, id string) (catalog.Category, error)
	AddCategory(ctx context.Context, name string) (catalog.Category, error)
	ListProducts(ctx context.Context, categoryID string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, categoryID, productID string) (catalog.Product, error)
	AddProduct(ctx context.Context, categoryID, name, price, description string) (catalog.Product, error)
}

// Carts is the subset of the cart service the controller needs.
type Carts interface {
	AddItem(ctx context.Context, userID int64, categoryID, productID string) (cart.Item, error)
	List(ctx context.Context, userID int64) ([]cart.Item, error)
	Clear(ctx context.Context, userID int64) error
}

// Options configures role and shop details.
type Options struct {
	AdminID int64
	// AdminLang renders replies to the admin until they pick a language. It is never stored.
	AdminLang i18n.Lang
	Hours     string
	Phone     string
}

// Controller turns events into replies.
type Controller struct {
	users    Users
	catalog  Catalog
	cart     Carts
	sessions state.Manager
	opts     Options
}

// New wires a Controller.
func New(users Users, cat Catalog, carts Carts, sessions state.Manager, opts Options) *Controller {
	if !opts.AdminLang.Valid() {
		opts.AdminLang = i18n.Ru
	}
	return &Controller{
		users:    users,
		catalog:  cat,
		cart:     carts,
		sessions: sessions,
		opts:     opts,
	}
}

// turn is the per-event working set passed to transition handlers.
type turn struct {
	event   Event
	userID  int64
	session state.Session
	lang    i18n.Lang
	token   Token
	text    string
	body    string
}

func (c *Controller) isAdmin(userID int64) bool {
	return c.opts.AdminID != 0 && userID == c.opts.AdminID
}

// say renders key in the turn language, or in every language when none is chosen yet.
func (c *Controller) say(t *turn, key i18n.Key, args ...any) string {
	if t.lang == "" {
		return i18n.Both(key, args...)
	}
	return i18n.T(t.lang, key, args...)
}

// Sessions reports how many conversations are active.
func (c *Controller) Sessions() int {
	return c.sessions.Len()
}

// AwaitingText reports whether the user's current state consumes free text.
func (c *Controller) AwaitingText(userID int64) bool {
	_, ok := lookup(c.sessions.GetState(userID), onText)
	return ok
}

// Handle processes one event. Domain failures are converted into replies;
// only infrastructure errors are returned.
func (c *Controller) Handle(ctx context.Context, ev Event) (Reply, error) {
	start := time.Now()
	t := &turn{event: ev, userID: ev.Sender(), session: c.sessions.Get(ev.Sender())}
	from := t.session.State

	lang, err := c.users.Lang(ctx, t.userID)
	if err != nil {
		return Reply{}, err
	}
	t.lang = lang
	if t.lang == "" && c.isAdmin(t.userID) {
		t.lang = c.opts.AdminLang
	}

	var (
		reply   Reply
		trigger string
	)
	switch e := ev.(type) {
	case Command:
		trigger = "/" + e.Name
		reply, err = c.command(ctx, t, e)
	case ButtonPress:
		t.token = ParseToken(e.Token)
		trigger = t.token.Key
		reply, err = c.dispatch(ctx, t, trigger)
	case TextMessage:
		t.body = e.Body
		t.text = strings.TrimSpace(e.Body)
		trigger = onText
		reply, err = c.dispatch(ctx, t, trigger)
	}
	if err != nil {
		reply, err = c.handleError(ctx, t, err)
	}
	if err != nil {
		logger.LogEvent(ctx, logger.CONV, slog.LevelError, "conv.failed",
			slog.String("kind", ev.Kind()),
			slog.Int64("user_id", t.userID),
			slog.String("state_from", string(from)),
			slog.String("token", logger.SanitizeLimit(trigger, 64)),
			slog.String("status", logger.Status(err)),
			slog.Any("err", err),
			slog.Duration("took", logger.Took(start)),
		)
		return Reply{}, err
	}

	c.commit(t, reply)
	logger.LogEvent(ctx, logger.CONV, slog.LevelInfo, "conv.transition",
		slog.String("kind", ev.Kind()),
		slog.Int64("user_id", t.userID),
		slog.String("state_from", string(from)),
		slog.String("state_to", string(reply.State)),
		slog.String("token", logger.SanitizeLimit(trigger, 64)),
		slog.String("outcome", outcome(reply)),
		slog.Duration("took", logger.Took(start)),
	)
	return finalize(ev, reply), nil
}

func outcome(r Reply) string {
	switch {
	case r.outcome != "":
		return r.outcome
	case r.End:
		return "cancelled"
	}
	return "ok"
}

// commit persists the session implied by the reply.
func (c *Controller) commit(t *turn, r Reply) {
	if r.End || r.State == "" || r.State == state.StateIdle {
		c.sessions.Clear(t.userID)
		return
	}
	sess := t.session
	sess.State = r.State
	if r.State != AddProduct {
		sess.PendingCategory = ""
	}
	c.sessions.Put(t.userID, sess)
}

func (c *Controller) command(ctx context.Context, t *turn, cmd Command) (Reply, error) {
	switch strings.ToLower(cmd.Name) {
	case CmdStart:
		if err := c.users.Ensure(ctx, t.userID); err != nil {
			return Reply{}, err
		}
		t.session = state.Session{}
		return Reply{State: SelectLanguage, Renders: []Render{c.languageView(t.userID)}}, nil
	case CmdCancel:
		return Reply{End: true, Renders: []Render{{Text: c.say(t, i18n.Cancelled)}}}, nil
	case CmdAdmin:
		if err := c.users.Ensure(ctx, t.userID); err != nil {
			return Reply{}, err
		}
		return c.openAdmin(ctx, t)
	}
	st := t.session.State
	if st == state.StateIdle {
		st = ""
	}
	return Reply{State: st, outcome: "ignored"}, nil
}

func (c *Controller) dispatch(ctx context.Context, t *turn, trigger string) (Reply, error) {
	st := t.session.State
	if st == "" || st == state.StateIdle || (st != SelectLanguage && t.lang == "") {
		return Reply{Renders: []Render{{Text: c.say(t, i18n.StartHint)}}, outcome: "ignored"}, nil
	}
	if IsAdminState(st) && !c.isAdmin(t.userID) {
		return Reply{}, ErrUnauthorized
	}
	h, ok := lookup(st, trigger)
	if !ok {
		return Reply{State: st, outcome: "ignored"}, nil
	}
	return h(c, ctx, t)
}

// handleError applies the error policy: missing entities and bad input are reported and
// the conversation continues, authorization failures end it, unparsable cart data
// yields a generic failure screen. Anything else is returned to the caller.
func (c *Controller) handleError(ctx context.Context, t *turn, err error) (Reply, error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		logger.LogEvent(ctx, logger.CONV, slog.LevelWarn, "conv.denied",
			slog.Int64("user_id", t.userID),
			slog.String("state_from", string(t.session.State)),
			slog.String("outcome", "denied"),
		)
		return Reply{End: true, Renders: []Render{{Text: c.say(t, i18n.NotAdmin)}}, outcome: "denied"}, nil

	case errors.Is(err, cart.ErrDataIntegrity):
		logger.LogEvent(ctx, logger.CONV, slog.LevelError, "conv.data_integrity",
			slog.Int64("user_id", t.userID),
			slog.Any("err", err),
		)
		return Reply{State: Cart, Renders: []Render{c.failureView(t)}, outcome: "fail"}, nil

	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, ErrInvalidInput):
		key := i18n.NotFound
		var ie *InputError
		if errors.As(err, &ie) {
			key = ie.Key
		}
		st := safeState(t.session.State)
		if st == AddProduct && errors.Is(err, catalog.ErrNotFound) {
			t.session.PendingCategory = ""
		}
		r, viewErr := c.view(ctx, t, st)
		if viewErr != nil {
			if errors.Is(viewErr, cart.ErrDataIntegrity) {
				return c.handleError(ctx, t, viewErr)
			}
			if errors.Is(viewErr, ErrInvalidInput) && st == AddProduct {
				return Reply{State: AdminPanel, Notice: c.say(t, key), Renders: []Render{c.adminView(t)}}, nil
			}
			return Reply{}, viewErr
		}
		return Reply{State: st, Notice: c.say(t, key), Renders: []Render{r}}, nil
	}
	return Reply{}, err
}

// safeState is where to land after a recoverable error in st.
func safeState(st state.State) state.State {
	if st == Products {
		return Categories
	}
	return st
}

// view renders the screen of st without changing anything.
func (c *Controller) view(ctx context.Context, t *turn, st state.State) (Render, error) {
	switch st {
	case SelectLanguage:
		return c.languageView(t.userID), nil
	case MainMenu:
		return c.mainMenuView(t), nil
	case Categories, Products:
		return c.categoriesView(ctx, t)
	case Cart:
		return c.cartView(ctx, t)
	case About:
		return c.aboutView(t), nil
	case AdminPanel:
		return c.adminView(t), nil
	case AddCategory:
		return c.addCategoryView(t), nil
	case AddProduct:
		if t.session.PendingCategory != "" {
			return c.productPromptView(t), nil
		}
		return c.pickCategoryView(ctx, t)
	}
	return c.mainMenuView(t), nil
}
