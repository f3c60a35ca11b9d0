package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/state"
	"github.com/m3rciful/shopbot/internal/catalog"
	"github.com/m3rciful/shopbot/internal/i18n"
)

// onText is the trigger for free-text messages.
const onText = "<text>"

type handlerFunc func(c *Controller, ctx context.Context, t *turn) (Reply, error)

// transitions maps state and trigger (token key or onText) to a handler.
var transitions = map[state.State]map[string]handlerFunc{
	SelectLanguage: {
		KeyLang:  (*Controller).selectLanguage,
		KeyAdmin: (*Controller).openAdmin,
	},
	MainMenu: {
		KeyProducts: (*Controller).showCategories,
		KeyCatalog:  (*Controller).showCart,
		KeyAbout:    (*Controller).showAbout,
		KeyAdmin:    (*Controller).openAdmin,
	},
	Categories: {
		KeyCategory: (*Controller).showProducts,
		KeyMainMenu: (*Controller).showMainMenu,
	},
	Products: {
		KeyProduct:   (*Controller).showProduct,
		KeyProducts:  (*Controller).showCategories,
		KeyAddToCart: (*Controller).addToCart,
		KeyCategory:  (*Controller).showProducts,
	},
	Cart: {
		KeyClearCart: (*Controller).clearCart,
		KeyMainMenu:  (*Controller).showMainMenu,
		KeyOrder:     (*Controller).placeOrder,
	},
	About: {
		KeyMainMenu: (*Controller).showMainMenu,
	},
	AdminPanel: {
		KeyAddCategory: (*Controller).promptCategory,
		KeyAddProduct:  (*Controller).pickProductCategory,
		KeyMainMenu:    (*Controller).showMainMenu,
	},
	AddCategory: {
		onText:   (*Controller).saveCategory,
		KeyAdmin: (*Controller).openAdmin,
	},
	AddProduct: {
		KeyPickCat:    (*Controller).promptProduct,
		onText:        (*Controller).saveProduct,
		KeyAdmin:      (*Controller).openAdmin,
		KeyAddProduct: (*Controller).pickProductCategory,
	},
}

func lookup(st state.State, trigger string) (handlerFunc, bool) {
	h, ok := transitions[st][trigger]
	return h, ok
}

func (c *Controller) selectLanguage(ctx context.Context, t *turn) (Reply, error) {
	lang, ok := i18n.ParseLang(t.token.Arg(0))
	if !ok {
		return Reply{}, invalid(i18n.ChooseLanguage)
	}
	if err := c.users.SetLang(ctx, t.userID, lang); err != nil {
		return Reply{}, err
	}
	t.lang = lang
	return Reply{
		State:   MainMenu,
		Notice:  i18n.T(lang, i18n.LangSelected),
		Renders: []Render{c.mainMenuView(t)},
	}, nil
}

// openAdmin is the single entry into the admin panel; every path goes through the role check.
func (c *Controller) openAdmin(_ context.Context, t *turn) (Reply, error) {
	if !c.isAdmin(t.userID) {
		return Reply{}, ErrUnauthorized
	}
	return Reply{State: AdminPanel, Renders: []Render{c.adminView(t)}}, nil
}

func (c *Controller) showMainMenu(_ context.Context, t *turn) (Reply, error) {
	return Reply{State: MainMenu, Renders: []Render{c.mainMenuView(t)}}, nil
}

func (c *Controller) showCategories(ctx context.Context, t *turn) (Reply, error) {
	r, err := c.categoriesView(ctx, t)
	if err != nil {
		return Reply{}, err
	}
	return Reply{State: Categories, Renders: []Render{r}}, nil
}

func (c *Controller) showProducts(ctx context.Context, t *turn) (Reply, error) {
	r, err := c.productsView(ctx, t, t.token.Arg(0))
	if err != nil {
		return Reply{}, err
	}
	return Reply{State: Products, Renders: []Render{r}}, nil
}

func (c *Controller) showProduct(ctx context.Context, t *turn) (Reply, error) {
	r, err := c.productView(ctx, t, t.token.Arg(0), t.token.Arg(1))
	if err != nil {
		return Reply{}, err
	}
	return Reply{State: Products, Renders: []Render{r}}, nil
}

func (c *Controller) addToCart(ctx context.Context, t *turn) (Reply, error) {
	if _, err := c.cart.AddItem(ctx, t.userID, t.token.Arg(0), t.token.Arg(1)); err != nil {
		return Reply{}, err
	}
	reply, err := c.showCart(ctx, t)
	if err != nil {
		return Reply{}, err
	}
	reply.Notice = i18n.T(t.lang, i18n.AddedToCart)
	return reply, nil
}

func (c *Controller) showCart(ctx context.Context, t *turn) (Reply, error) {
	r, err := c.cartView(ctx, t)
	if err != nil {
		return Reply{}, err
	}
	return Reply{State: Cart, Renders: []Render{r}}, nil
}

func (c *Controller) clearCart(ctx context.Context, t *turn) (Reply, error) {
	if err := c.cart.Clear(ctx, t.userID); err != nil {
		return Reply{}, err
	}
	reply, err := c.showCart(ctx, t)
	if err != nil {
		return Reply{}, err
	}
	reply.Notice = i18n.T(t.lang, i18n.CartCleared)
	return reply, nil
}

// placeOrder has no fulfilment behind it yet; it re-renders the cart.
func (c *Controller) placeOrder(ctx context.Context, t *turn) (Reply, error) {
	logger.LogEvent(ctx, logger.CONV, slog.LevelWarn, "conv.order_unavailable",
		slog.Int64("user_id", t.userID),
	)
	reply, err := c.showCart(ctx, t)
	if err != nil {
		return Reply{}, err
	}
	reply.Notice = i18n.T(t.lang, i18n.OrderUnavailable)
	return reply, nil
}

func (c *Controller) showAbout(_ context.Context, t *turn) (Reply, error) {
	return Reply{State: About, Renders: []Render{c.aboutView(t)}}, nil
}

func (c *Controller) promptCategory(_ context.Context, t *turn) (Reply, error) {
	return Reply{State: AddCategory, Renders: []Render{c.addCategoryView(t)}}, nil
}

func (c *Controller) saveCategory(ctx context.Context, t *turn) (Reply, error) {
	cat, err := c.catalog.AddCategory(ctx, t.text)
	if errors.Is(err, catalog.ErrEmptyName) {
		return Reply{}, invalid(i18n.CategoryNameEmpty)
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		State:   AdminPanel,
		Notice:  i18n.T(t.lang, i18n.CategoryAdded, cat.Name),
		Renders: []Render{c.adminView(t)},
	}, nil
}

func (c *Controller) pickProductCategory(ctx context.Context, t *turn) (Reply, error) {
	r, err := c.pickCategoryView(ctx, t)
	if err != nil {
		return Reply{}, err
	}
	t.session.PendingCategory = ""
	return Reply{State: AddProduct, Renders: []Render{r}}, nil
}

func (c *Controller) promptProduct(ctx context.Context, t *turn) (Reply, error) {
	cat, err := c.catalog.GetCategory(ctx, t.token.Arg(0))
	if err != nil {
		return Reply{}, err
	}
	t.session.PendingCategory = cat.ID
	return Reply{State: AddProduct, Renders: []Render{c.productPromptView(t)}}, nil
}

// saveProduct parses "name\nprice\ndescription?" into a new product of the pending category.
// Lines are split before trimming so every field keeps its position.
func (c *Controller) saveProduct(ctx context.Context, t *turn) (Reply, error) {
	categoryID := t.session.PendingCategory
	if categoryID == "" {
		return Reply{}, invalid(i18n.PickCategoryFirst)
	}
	lines := strings.Split(strings.ReplaceAll(t.body, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return Reply{}, invalid(i18n.BadProductFormat)
	}
	var desc string
	if len(lines) > 2 {
		desc = lines[2]
	}
	p, err := c.catalog.AddProduct(ctx, categoryID, lines[0], lines[1], desc)
	if errors.Is(err, catalog.ErrEmptyName) {
		return Reply{}, invalid(i18n.BadProductFormat)
	}
	if err != nil {
		return Reply{}, err
	}
	t.session.PendingCategory = ""
	return Reply{
		State:   AdminPanel,
		Notice:  i18n.T(t.lang, i18n.ProductAdded, p.Name),
		Renders: []Render{c.adminView(t)},
	}, nil
}
