package store

import (
	"context"
	"sync"
)

// Memory keeps documents in process memory. Intended for tests and local runs.
type Memory struct {
	mu   sync.Mutex
	docs map[Document][]byte
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{docs: make(map[Document][]byte)}
}

// Read returns a copy of the stored document.
func (m *Memory) Read(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.docs[doc]), nil
}

// Update applies fn while holding the backend lock.
func (m *Memory) Update(ctx context.Context, doc Document, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(clone(m.docs[doc]))
	if err != nil {
		return err
	}
	m.docs[doc] = clone(next)
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
