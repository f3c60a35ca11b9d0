// Package store persists the bot's JSON documents behind a Backend that
// guarantees atomic read-modify-write per document.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Document names one of the independently persisted JSON trees.
type Document string

const (
	Users   Document = "users"
	Catalog Document = "catalog"
	Carts   Document = "carts"
)

// Documents lists every document the bot persists.
var Documents = []Document{Users, Catalog, Carts}

// ErrConflict is returned when an optimistic update kept losing races.
var ErrConflict = errors.New("store: concurrent update conflict")

// UpdateFunc receives the current encoded document (nil when absent) and
// returns the replacement. Returning an error aborts the write.
type UpdateFunc func(current []byte) ([]byte, error)

// Backend is the storage contract used by the domain services.
// Update must apply fn atomically with respect to other Updates of the same document.
type Backend interface {
	Read(ctx context.Context, doc Document) ([]byte, error)
	Update(ctx context.Context, doc Document, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}

var defaults = map[Document][]byte{
	Users:   []byte(`{}`),
	Catalog: []byte(`{"categories":{},"products":{}}`),
	Carts:   []byte(`{}`),
}

// EnsureDefaults creates any missing document with its empty default.
func EnsureDefaults(ctx context.Context, b Backend) error {
	for _, doc := range Documents {
		err := b.Update(ctx, doc, func(current []byte) ([]byte, error) {
			if len(current) > 0 {
				return current, nil
			}
			return defaults[doc], nil
		})
		if err != nil {
			return fmt.Errorf("store: init %s: %w", doc, err)
		}
	}
	return nil
}

// View decodes doc into a fresh T and hands it to fn.
func View[T any](ctx context.Context, b Backend, doc Document, fn func(*T) error) error {
	raw, err := b.Read(ctx, doc)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", doc, err)
	}
	var v T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("store: decode %s: %w", doc, err)
		}
	}
	return fn(&v)
}

// Mutate decodes doc, lets fn modify it and writes the result back atomically.
// Errors returned by fn are passed through unwrapped so callers can match sentinels.
func Mutate[T any](ctx context.Context, b Backend, doc Document, fn func(*T) error) error {
	var fnErr error
	err := b.Update(ctx, doc, func(current []byte) ([]byte, error) {
		var v T
		if len(current) > 0 {
			if err := json.Unmarshal(current, &v); err != nil {
				return nil, fmt.Errorf("store: decode %s: %w", doc, err)
			}
		}
		if err := fn(&v); err != nil {
			fnErr = err
			return nil, err
		}
		out, err := json.Marshal(&v)
		if err != nil {
			return nil, fmt.Errorf("store: encode %s: %w", doc, err)
		}
		return out, nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("store: update %s: %w", doc, err)
	}
	return nil
}
