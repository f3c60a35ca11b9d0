package bootstrap

import (
	"context"

	"github.com/m3rciful/shopbot/core/store"
)

// Seeder loads reference data into the store once defaults exist.
type Seeder interface {
	Seed(ctx context.Context, b store.Backend) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, b store.Backend) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, b store.Backend) error {
	return f(ctx, b)
}

// Modules groups optional bootstrapping hooks.
type Modules struct {
	Seeders []Seeder
}
