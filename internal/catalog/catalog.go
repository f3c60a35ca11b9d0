// Package catalog manages categories and their products.
//
// Identifiers are decimal strings handed out by monotonic counters kept in the
// catalog document: one global counter for categories and one per category for
// products. Prices are kept as the text the admin entered.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/store"
)

// ErrNotFound is returned when a category or product id is unknown.
var ErrNotFound = errors.New("catalog: not found")

// ErrEmptyName is returned when a category or product name is blank.
var ErrEmptyName = errors.New("catalog: empty name")

// Category is a named group of products.
type Category struct {
	ID   string
	Name string
}

// Product belongs to exactly one category.
type Product struct {
	ID          string `json:"-"`
	CategoryID  string `json:"-"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

type document struct {
	Categories     map[string]string             `json:"categories"`
	Products       map[string]map[string]Product `json:"products"`
	NextCategoryID int                           `json:"next_category_id,omitempty"`
	NextProductIDs map[string]int                `json:"next_product_ids,omitempty"`
}

func (d *document) init() {
	if d.Categories == nil {
		d.Categories = map[string]string{}
	}
	if d.Products == nil {
		d.Products = map[string]map[string]Product{}
	}
	if d.NextProductIDs == nil {
		d.NextProductIDs = map[string]int{}
	}
}

// nextCategory allocates a category id. Documents written without counters
// resume after the largest numeric id already present.
func (d *document) nextCategory() string {
	if d.NextCategoryID == 0 {
		d.NextCategoryID = maxID(keys(d.Categories)) + 1
	}
	id := strconv.Itoa(d.NextCategoryID)
	d.NextCategoryID++
	return id
}

func (d *document) nextProduct(categoryID string) string {
	next := d.NextProductIDs[categoryID]
	if next == 0 {
		next = maxID(keys(d.Products[categoryID])) + 1
	}
	d.NextProductIDs[categoryID] = next + 1
	return strconv.Itoa(next)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func maxID(ids []string) int {
	highest := 0
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// sortIDs orders numeric ids numerically and anything else after them lexically.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
}

// Service is the catalog API used by the conversation controller.
type Service struct {
	store store.Backend
}

// New builds a Service over the given backend.
func New(b store.Backend) *Service {
	return &Service{store: b}
}

func (s *Service) view(ctx context.Context, fn func(*document) error) error {
	return store.View(ctx, s.store, store.Catalog, func(d *document) error {
		d.init()
		return fn(d)
	})
}

func (s *Service) mutate(ctx context.Context, fn func(*document) error) error {
	return store.Mutate(ctx, s.store, store.Catalog, func(d *document) error {
		d.init()
		return fn(d)
	})
}

// ListCategories returns every category ordered by id.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.view(ctx, func(d *document) error {
		ids := keys(d.Categories)
		sortIDs(ids)
		out = make([]Category, 0, len(ids))
		for _, id := range ids {
			out = append(out, Category{ID: id, Name: d.Categories[id]})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return out, nil
}

// GetCategory returns the category with the given id.
func (s *Service) GetCategory(ctx context.Context, id string) (Category, error) {
	var (
		name string
		ok   bool
	)
	err := s.view(ctx, func(d *document) error {
		name, ok = d.Categories[id]
		return nil
	})
	if err != nil {
		return Category{}, fmt.Errorf("catalog: get category %s: %w", id, err)
	}
	if !ok {
		return Category{}, fmt.Errorf("catalog: category %s: %w", id, ErrNotFound)
	}
	return Category{ID: id, Name: name}, nil
}

// AddCategory appends a category and returns it with its new id.
func (s *Service) AddCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrEmptyName
	}
	var cat Category
	err := s.mutate(ctx, func(d *document) error {
		cat = Category{ID: d.nextCategory(), Name: name}
		d.Categories[cat.ID] = cat.Name
		return nil
	})
	if err != nil {
		return Category{}, fmt.Errorf("catalog: add category: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "catalog.category_added",
		slog.String("category_id", cat.ID),
		slog.String("name", logger.SanitizeLimit(cat.Name, 64)),
	)
	return cat, nil
}

// ListProducts returns the products of a category ordered by id.
// A category without products yields an empty slice.
func (s *Service) ListProducts(ctx context.Context, categoryID string) ([]Product, error) {
	var out []Product
	err := s.view(ctx, func(d *document) error {
		items := d.Products[categoryID]
		ids := keys(items)
		sortIDs(ids)
		out = make([]Product, 0, len(ids))
		for _, id := range ids {
			p := items[id]
			p.ID, p.CategoryID = id, categoryID
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list products %s: %w", categoryID, err)
	}
	return out, nil
}

// GetProduct returns a single product.
func (s *Service) GetProduct(ctx context.Context, categoryID, productID string) (Product, error) {
	var (
		p  Product
		ok bool
	)
	err := s.view(ctx, func(d *document) error {
		p, ok = d.Products[categoryID][productID]
		return nil
	})
	if err != nil {
		return Product{}, fmt.Errorf("catalog: get product %s/%s: %w", categoryID, productID, err)
	}
	if !ok {
		return Product{}, fmt.Errorf("catalog: product %s/%s: %w", categoryID, productID, ErrNotFound)
	}
	p.ID, p.CategoryID = productID, categoryID
	return p, nil
}

// AddProduct appends a product to an existing category.
func (s *Service) AddProduct(ctx context.Context, categoryID, name, price, description string) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, ErrEmptyName
	}
	p := Product{
		CategoryID:  categoryID,
		Name:        name,
		Price:       strings.TrimSpace(price),
		Description: strings.TrimSpace(description),
	}
	err := s.mutate(ctx, func(d *document) error {
		if _, ok := d.Categories[categoryID]; !ok {
			return fmt.Errorf("catalog: category %s: %w", categoryID, ErrNotFound)
		}
		p.ID = d.nextProduct(categoryID)
		if d.Products[categoryID] == nil {
			d.Products[categoryID] = map[string]Product{}
		}
		d.Products[categoryID][p.ID] = p
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return Product{}, err
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: add product: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "catalog.product_added",
		slog.String("category_id", categoryID),
		slog.String("product_id", p.ID),
		slog.String("name", logger.SanitizeLimit(p.Name, 64)),
	)
	return p, nil
}

// Empty reports whether the catalog has no categories.
func (s *Service) Empty(ctx context.Context) (bool, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return false, err
	}
	return len(cats) == 0, nil
}
