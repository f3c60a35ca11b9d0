package cart

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/core/store"
	"github.com/m3rciful/shopbot/internal/catalog"
)

type fixture struct {
	backend store.Backend
	catalog *catalog.Service
	cart    *Service
	catID   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	b := store.NewMemory()
	require.NoError(t, store.EnsureDefaults(ctx, b))
	cat := catalog.New(b)
	c, err := cat.AddCategory(ctx, "Electronics")
	require.NoError(t, err)
	_, err = cat.AddProduct(ctx, c.ID, "Phone", "1000", "")
	require.NoError(t, err)
	_, err = cat.AddProduct(ctx, c.ID, "Tablet", "2500", "")
	require.NoError(t, err)
	return fixture{backend: b, catalog: cat, cart: New(b, cat), catID: c.ID}
}

func TestTotalAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.cart.AddItem(ctx, 1, f.catID, "1")
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, 1, f.catID, "2")
	require.NoError(t, err)

	total, err := f.cart.Total(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3500, total)

	require.NoError(t, f.cart.Clear(ctx, 1))
	items, err := f.cart.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
	total, err = f.cart.Total(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSameProductTwiceKeepsTwoLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		_, err := f.cart.AddItem(ctx, 5, f.catID, "1")
		require.NoError(t, err)
	}
	items, err := f.cart.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, 1, it.Quantity)
		assert.Equal(t, "Phone", it.Name)
	}
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.cart.AddItem(ctx, 1, f.catID, "1")
	require.NoError(t, err)
	items, err := f.cart.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.cart.AddItem(context.Background(), 1, f.catID, "42")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestTotalNonNumericPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.AddProduct(ctx, f.catID, "Mystery", "cheap", "")
	require.NoError(t, err)

	_, err = f.cart.AddItem(ctx, 3, f.catID, "3")
	require.NoError(t, err)

	_, err = f.cart.Total(ctx, 3)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestSum(t *testing.T) {
	total, err := Sum([]Item{{Price: "1000", Quantity: 1}, {Price: " 2500 ", Quantity: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 6000, total)

	total, err = Sum(nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSumOverflowIsDataIntegrity(t *testing.T) {
	near := strconv.FormatInt(math.MaxInt64-1, 10)
	_, err := Sum([]Item{{Price: near, Quantity: 1}, {Price: near, Quantity: 1}})
	assert.ErrorIs(t, err, ErrDataIntegrity)

	_, err = Item{Price: near, Quantity: 2}.Subtotal()
	assert.ErrorIs(t, err, ErrDataIntegrity)

	low := strconv.FormatInt(math.MinInt64+1, 10)
	_, err = Sum([]Item{{Price: low, Quantity: 1}, {Price: low, Quantity: 1}})
	assert.ErrorIs(t, err, ErrDataIntegrity)

	total, err := Sum([]Item{{Price: near, Quantity: 1}, {Price: "1", Quantity: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), total)
}
