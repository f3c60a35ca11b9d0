package conversation

import (
	"context"
	"strings"

	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/i18n"
)

func (c *Controller) languageView(userID int64) Render {
	var rows [][]Button
	for _, l := range i18n.Langs {
		rows = append(rows, row(button(i18n.Label(l), NewToken(KeyLang, string(l)))))
	}
	if c.isAdmin(userID) {
		rows = append(rows, row(button(i18n.AdminLabel, NewToken(KeyAdmin))))
	}
	return Render{Text: i18n.Both(i18n.ChooseLanguage) + ":", Buttons: rows}
}

func (c *Controller) mainMenuView(t *turn) Render {
	rows := [][]Button{
		row(button(i18n.T(t.lang, i18n.BtnCart), NewToken(KeyCatalog))),
		row(button(i18n.T(t.lang, i18n.BtnProducts), NewToken(KeyProducts))),
		row(button(i18n.T(t.lang, i18n.BtnAbout), NewToken(KeyAbout))),
	}
	if c.isAdmin(t.userID) {
		rows = append(rows, row(button(i18n.T(t.lang, i18n.BtnAdminPanel), NewToken(KeyAdmin))))
	}
	return Render{Text: i18n.T(t.lang, i18n.MainMenu), Buttons: rows}
}

func (c *Controller) categoriesView(ctx context.Context, t *turn) (Render, error) {
	cats, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return Render{}, err
	}
	back := row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyMainMenu)))
	if len(cats) == 0 {
		return Render{Text: i18n.T(t.lang, i18n.NoCategories), Buttons: [][]Button{back}}, nil
	}
	rows := make([][]Button, 0, len(cats)+1)
	for _, cat := range cats {
		rows = append(rows, row(button(cat.Name, NewToken(KeyCategory, cat.ID))))
	}
	rows = append(rows, back)
	return Render{Text: i18n.T(t.lang, i18n.Categories), Buttons: rows}, nil
}

func (c *Controller) productsView(ctx context.Context, t *turn, categoryID string) (Render, error) {
	cat, err := c.catalog.GetCategory(ctx, categoryID)
	if err != nil {
		return Render{}, err
	}
	products, err := c.catalog.ListProducts(ctx, cat.ID)
	if err != nil {
		return Render{}, err
	}
	back := row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyProducts)))
	if len(products) == 0 {
		return Render{Text: i18n.T(t.lang, i18n.NoProducts), Buttons: [][]Button{back}}, nil
	}
	rows := make([][]Button, 0, len(products)+1)
	for _, p := range products {
		label := i18n.T(t.lang, i18n.ProductButton, p.Name, p.Price)
		rows = append(rows, row(button(label, NewToken(KeyProduct, cat.ID, p.ID))))
	}
	rows = append(rows, back)
	return Render{Text: i18n.T(t.lang, i18n.ProductsIn, cat.Name), Buttons: rows}, nil
}

func (c *Controller) productView(ctx context.Context, t *turn, categoryID, productID string) (Render, error) {
	p, err := c.catalog.GetProduct(ctx, categoryID, productID)
	if err != nil {
		return Render{}, err
	}
	desc := p.Description
	if desc == "" {
		desc = i18n.T(t.lang, i18n.NoDescription)
	}
	return Render{
		Text: i18n.T(t.lang, i18n.ProductDetail, p.Name, p.Price, desc),
		Buttons: [][]Button{
			row(button(i18n.T(t.lang, i18n.BtnAddToCart), NewToken(KeyAddToCart, categoryID, productID))),
			row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyCategory, categoryID))),
		},
	}, nil
}

func (c *Controller) cartView(ctx context.Context, t *turn) (Render, error) {
	items, err := c.cart.List(ctx, t.userID)
	if err != nil {
		return Render{}, err
	}
	back := row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyMainMenu)))
	if len(items) == 0 {
		return Render{Text: i18n.T(t.lang, i18n.CartEmpty), Buttons: [][]Button{back}}, nil
	}
	total, err := cart.Sum(items)
	if err != nil {
		return Render{}, err
	}
	var b strings.Builder
	b.WriteString(i18n.T(t.lang, i18n.CartTitle))
	b.WriteString("\n\n")
	for _, it := range items {
		b.WriteString(i18n.T(t.lang, i18n.CartLine, it.Name, it.Price, it.Quantity))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(i18n.T(t.lang, i18n.CartTotal, total))
	return Render{
		Text: b.String(),
		Buttons: [][]Button{
			row(button(i18n.T(t.lang, i18n.BtnOrder), NewToken(KeyOrder))),
			row(button(i18n.T(t.lang, i18n.BtnClearCart), NewToken(KeyClearCart))),
			back,
		},
	}, nil
}

// failureView is shown when the cart holds data that cannot be totalled.
func (c *Controller) failureView(t *turn) Render {
	return Render{
		Text: c.say(t, i18n.GenericFailure),
		Buttons: [][]Button{
			row(button(i18n.T(t.lang, i18n.BtnClearCart), NewToken(KeyClearCart))),
			row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyMainMenu))),
		},
	}
}

func (c *Controller) aboutView(t *turn) Render {
	return Render{
		Text:    i18n.T(t.lang, i18n.About, c.opts.Hours, c.opts.Phone),
		Buttons: [][]Button{row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyMainMenu)))},
	}
}

func (c *Controller) adminView(t *turn) Render {
	return Render{
		Text: i18n.T(t.lang, i18n.AdminPanel),
		Buttons: [][]Button{
			row(button(i18n.T(t.lang, i18n.BtnAddCategory), NewToken(KeyAddCategory))),
			row(button(i18n.T(t.lang, i18n.BtnAddProduct), NewToken(KeyAddProduct))),
			row(button(i18n.T(t.lang, i18n.BtnMainMenu), NewToken(KeyMainMenu))),
		},
	}
}

func (c *Controller) addCategoryView(t *turn) Render {
	return Render{
		Text:    i18n.T(t.lang, i18n.AddCategoryPrompt),
		Buttons: [][]Button{row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyAdmin)))},
	}
}

// pickCategoryView lists categories for the add-product flow.
// It fails with an input error when there is nothing to pick.
func (c *Controller) pickCategoryView(ctx context.Context, t *turn) (Render, error) {
	cats, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return Render{}, err
	}
	if len(cats) == 0 {
		return Render{}, invalid(i18n.NeedCategoryFirst)
	}
	rows := make([][]Button, 0, len(cats)+1)
	for _, cat := range cats {
		rows = append(rows, row(button(cat.Name, NewToken(KeyPickCat, cat.ID))))
	}
	rows = append(rows, row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyAdmin))))
	return Render{Text: i18n.T(t.lang, i18n.PickCategoryForProduct), Buttons: rows}, nil
}

func (c *Controller) productPromptView(t *turn) Render {
	return Render{
		Text:    i18n.T(t.lang, i18n.ProductFormatPrompt),
		Buttons: [][]Button{row(button(i18n.T(t.lang, i18n.BtnBack), NewToken(KeyAddProduct)))},
	}
}
