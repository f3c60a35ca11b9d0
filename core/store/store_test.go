package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/core/store"
)

type counterDoc struct {
	Hits map[string]int `json:"hits"`
}

func backendFactories(t *testing.T) map[string]func(t *testing.T) store.Backend {
	factories := map[string]func(t *testing.T) store.Backend{
		"Memory": func(t *testing.T) store.Backend { return store.NewMemory() },
		"File": func(t *testing.T) store.Backend {
			b, err := store.NewFile(t.TempDir())
			require.NoError(t, err)
			return b
		},
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		factories["Redis"] = func(t *testing.T) store.Backend {
			opts, err := redis.ParseURL(url)
			require.NoError(t, err)
			client := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := client.Ping(ctx).Err(); err != nil {
				t.Skipf("Skipping Redis backend: %v", err)
			}
			prefix := "test-store-" + uuid.New().String()
			t.Cleanup(func() {
				for _, doc := range store.Documents {
					client.Del(context.Background(), prefix+":"+string(doc))
				}
				client.Close()
			})
			return store.NewRedisClient(client, prefix)
		}
	}

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		factories["Postgres"] = func(t *testing.T) store.Backend {
			db, err := sqlx.Connect("postgres", dsn)
			if err != nil {
				t.Skipf("Skipping Postgres backend: %v", err)
			}
			_, err = db.Exec(`CREATE TABLE IF NOT EXISTS documents (
				name TEXT PRIMARY KEY, body JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
			require.NoError(t, err)
			_, err = db.Exec(`DELETE FROM documents`)
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return store.NewPostgres(db)
		}
	}
	return factories
}

func TestBackends(t *testing.T) {
	cases := []struct {
		name string
		test func(*testing.T, store.Backend)
	}{
		{"Defaults", testDefaults},
		{"Mutate and view", testMutateView},
		{"Aborted update", testAbortedUpdate},
		{"Concurrent writers", testConcurrentWriters},
	}
	for implName, factory := range backendFactories(t) {
		for _, tc := range cases {
			t.Run(fmt.Sprintf("%s_%s", implName, tc.name), func(t *testing.T) {
				tc.test(t, factory(t))
			})
		}
	}
}

func testDefaults(t *testing.T, b store.Backend) {
	ctx := context.Background()
	raw, err := b.Read(ctx, store.Catalog)
	require.NoError(t, err)
	assert.Empty(t, raw)

	require.NoError(t, store.EnsureDefaults(ctx, b))
	raw, err = b.Read(ctx, store.Catalog)
	require.NoError(t, err)
	assert.JSONEq(t, `{"categories":{},"products":{}}`, string(raw))

	raw, err = b.Read(ctx, store.Users)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	// existing documents are left untouched
	require.NoError(t, store.Mutate(ctx, b, store.Carts, func(d *map[string][]int) error {
		*d = map[string][]int{"1": {1}}
		return nil
	}))
	require.NoError(t, store.EnsureDefaults(ctx, b))
	raw, err = b.Read(ctx, store.Carts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":[1]}`, string(raw))
}

func testMutateView(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, store.Mutate(ctx, b, store.Users, func(d *counterDoc) error {
		if d.Hits == nil {
			d.Hits = map[string]int{}
		}
		d.Hits["a"] = 3
		return nil
	}))

	var got int
	require.NoError(t, store.View(ctx, b, store.Users, func(d *counterDoc) error {
		got = d.Hits["a"]
		return nil
	}))
	assert.Equal(t, 3, got)
}

func testAbortedUpdate(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, store.EnsureDefaults(ctx, b))
	sentinel := errors.New("nope")

	err := store.Mutate(ctx, b, store.Users, func(d *counterDoc) error {
		d.Hits = map[string]int{"lost": 1}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	raw, err := b.Read(ctx, store.Users)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func testConcurrentWriters(t *testing.T, b store.Backend) {
	ctx := context.Background()
	const writers = 16
	const perWriter = 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				err := store.Mutate(ctx, b, store.Carts, func(d *counterDoc) error {
					if d.Hits == nil {
						d.Hits = map[string]int{}
					}
					d.Hits[fmt.Sprint(id)]++
					return nil
				})
				if err != nil && !errors.Is(err, store.ErrConflict) {
					t.Errorf("mutate: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	require.NoError(t, store.View(ctx, b, store.Carts, func(d *counterDoc) error {
		assert.Len(t, d.Hits, writers)
		for id, n := range d.Hits {
			assert.Equalf(t, perWriter, n, "writer %s lost updates", id)
		}
		return nil
	}))
}

func TestFileWritesAreAtomicRenames(t *testing.T) {
	dir := t.TempDir()
	b, err := store.NewFile(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.EnsureDefaults(ctx, b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"users.json", "catalog.json", "carts.json"}, names)

	failing := errors.New("encode failed")
	err = b.Update(ctx, store.Catalog, func([]byte) ([]byte, error) { return nil, failing })
	require.ErrorIs(t, err, failing)

	data, err := os.ReadFile(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"categories":{},"products":{}}`, string(data))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := store.NewMemory()
	assert.ErrorIs(t, b.Update(ctx, store.Users, func(c []byte) ([]byte, error) { return c, nil }), context.Canceled)
}
