// Package seed loads an initial catalog from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/store"
	"github.com/m3rciful/shopbot/internal/catalog"
)

// File is the YAML layout of a catalog seed.
//
//	categories:
//	  - name: Shoes
//	    products:
//	      - name: Boots
//	        price: 1500
//	        description: Leather
type File struct {
	Categories []Category `yaml:"categories"`
}

// Category is one seeded category with its products.
type Category struct {
	Name     string    `yaml:"name"`
	Products []Product `yaml:"products"`
}

// Product is one seeded product. Price must be a whole number.
type Product struct {
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("seed: parse: %w", err)
	}
	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return File{}, fmt.Errorf("seed: category %d: empty name", i)
		}
		for j, p := range c.Products {
			if strings.TrimSpace(p.Name) == "" {
				return File{}, fmt.Errorf("seed: %s product %d: empty name", c.Name, j)
			}
			if _, err := strconv.ParseInt(strings.TrimSpace(p.Price), 10, 64); err != nil {
				return File{}, fmt.Errorf("seed: %s/%s: price %q is not a whole number", c.Name, p.Name, p.Price)
			}
		}
	}
	return f, nil
}

// Seeder fills an empty catalog from a YAML file. A missing path is a no-op.
type Seeder struct {
	Path string
}

// Seed loads the file when the catalog has no categories yet.
func (s Seeder) Seed(ctx context.Context, b store.Backend) error {
	if strings.TrimSpace(s.Path) == "" {
		return nil
	}
	start := time.Now()
	cat := catalog.New(b)
	empty, err := cat.Empty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.skip",
			slog.String("status", "ok"),
			slog.String("outcome", "ignored"),
			slog.String("reason", "catalog_not_empty"),
		)
		return nil
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		logger.LogEvent(ctx, logger.SEED, slog.LevelWarn, "seed.skip",
			slog.String("status", "ok"),
			slog.String("outcome", "ignored"),
			slog.String("reason", "file_missing"),
			slog.String("path", s.Path),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", s.Path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return err
	}

	products := 0
	for _, c := range f.Categories {
		created, err := cat.AddCategory(ctx, c.Name)
		if err != nil {
			return fmt.Errorf("seed: category %s: %w", c.Name, err)
		}
		for _, p := range c.Products {
			if _, err := cat.AddProduct(ctx, created.ID, p.Name, strings.TrimSpace(p.Price), p.Description); err != nil {
				return fmt.Errorf("seed: product %s: %w", p.Name, err)
			}
			products++
		}
	}

	logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.catalog",
		slog.String("status", "ok"),
		slog.Int("categories", len(f.Categories)),
		slog.Int("products", products),
		slog.Duration("took", logger.Took(start)),
	)
	return nil
}
