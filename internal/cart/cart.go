// Package cart stores per-user shopping carts as ordered line items.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/store"
	"github.com/m3rciful/shopbot/internal/catalog"
)

// ErrDataIntegrity is returned when a stored price is not an integer or a total overflows.
var ErrDataIntegrity = errors.New("cart: data integrity")

// Item is one cart line. Name and price are copied from the product at the time it was added.
type Item struct {
	CategoryID string `json:"category_id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
}

// Subtotal returns price times quantity.
func (it Item) Subtotal() (int64, error) {
	price, err := strconv.ParseInt(strings.TrimSpace(it.Price), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q of %s/%s", ErrDataIntegrity, it.Price, it.CategoryID, it.ProductID)
	}
	qty := int64(it.Quantity)
	sub := price * qty
	if qty != 0 && (sub/qty != price || (qty == -1 && price == math.MinInt64)) {
		return 0, fmt.Errorf("%w: subtotal overflow for %s/%s", ErrDataIntegrity, it.CategoryID, it.ProductID)
	}
	return sub, nil
}

// Sum totals items, failing on the first unparsable price or on overflow.
func Sum(items []Item) (int64, error) {
	var total int64
	for _, it := range items {
		sub, err := it.Subtotal()
		if err != nil {
			return 0, err
		}
		if (sub > 0 && total > math.MaxInt64-sub) || (sub < 0 && total < math.MinInt64-sub) {
			return 0, fmt.Errorf("%w: total overflow", ErrDataIntegrity)
		}
		total += sub
	}
	return total, nil
}

// ProductLookup resolves catalog products.
type ProductLookup interface {
	GetProduct(ctx context.Context, categoryID, productID string) (catalog.Product, error)
}

type document map[string][]Item

// Service manages carts.
type Service struct {
	store   store.Backend
	catalog ProductLookup
}

// New builds a Service.
func New(b store.Backend, products ProductLookup) *Service {
	return &Service{store: b, catalog: products}
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// AddItem appends the product as a new line with quantity 1.
// Repeated additions of the same product produce separate lines.
func (s *Service) AddItem(ctx context.Context, userID int64, categoryID, productID string) (Item, error) {
	p, err := s.catalog.GetProduct(ctx, categoryID, productID)
	if err != nil {
		return Item{}, err
	}
	item := Item{
		CategoryID: categoryID,
		ProductID:  productID,
		Name:       p.Name,
		Price:      p.Price,
		Quantity:   1,
	}
	err = store.Mutate(ctx, s.store, store.Carts, func(doc *document) error {
		if *doc == nil {
			*doc = document{}
		}
		(*doc)[key(userID)] = append((*doc)[key(userID)], item)
		return nil
	})
	if err != nil {
		return Item{}, fmt.Errorf("cart: add %d: %w", userID, err)
	}
	logger.LogEvent(ctx, logger.SVCCart, slog.LevelInfo, "cart.item_added",
		slog.Int64("user_id", userID),
		slog.String("category_id", categoryID),
		slog.String("product_id", productID),
	)
	return item, nil
}

// List returns the user's cart lines in insertion order.
func (s *Service) List(ctx context.Context, userID int64) ([]Item, error) {
	var items []Item
	err := store.View(ctx, s.store, store.Carts, func(doc *document) error {
		items = append([]Item(nil), (*doc)[key(userID)]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cart: list %d: %w", userID, err)
	}
	return items, nil
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	err := store.Mutate(ctx, s.store, store.Carts, func(doc *document) error {
		if *doc == nil {
			*doc = document{}
		}
		(*doc)[key(userID)] = []Item{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart: clear %d: %w", userID, err)
	}
	logger.LogEvent(ctx, logger.SVCCart, slog.LevelInfo, "cart.cleared",
		slog.Int64("user_id", userID),
	)
	return nil
}

// Total returns the sum of price times quantity over the user's cart.
func (s *Service) Total(ctx context.Context, userID int64) (int64, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return Sum(items)
}
