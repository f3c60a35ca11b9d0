package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/core/store"
)

func newService(t *testing.T) (*Service, store.Backend) {
	t.Helper()
	b := store.NewMemory()
	require.NoError(t, store.EnsureDefaults(context.Background(), b))
	return New(b), b
}

func TestAddCategoryAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for i, name := range []string{"Electronics", "Books", "Toys"} {
		before, err := svc.ListCategories(ctx)
		require.NoError(t, err)

		cat, err := svc.AddCategory(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, len(before)+1, i+1)
		assert.Equal(t, []string{"1", "2", "3"}[i], cat.ID)

		after, err := svc.ListCategories(ctx)
		require.NoError(t, err)
		assert.Contains(t, after, cat)
	}
}

func TestListCategoriesNumericOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for i := 0; i < 11; i++ {
		_, err := svc.AddCategory(ctx, "c")
		require.NoError(t, err)
	}
	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 11)
	assert.Equal(t, "2", cats[1].ID)
	assert.Equal(t, "10", cats[9].ID)
	assert.Equal(t, "11", cats[10].ID)
}

func TestAddCategoryRejectsBlankName(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.AddCategory(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestProductIDsArePerCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	a, err := svc.AddCategory(ctx, "A")
	require.NoError(t, err)
	b, err := svc.AddCategory(ctx, "B")
	require.NoError(t, err)

	pa, err := svc.AddProduct(ctx, a.ID, "Phone", "1000", "")
	require.NoError(t, err)
	pb, err := svc.AddProduct(ctx, b.ID, "Book", "2500", "paper")
	require.NoError(t, err)
	pa2, err := svc.AddProduct(ctx, a.ID, "Tablet", "3000", "")
	require.NoError(t, err)

	assert.Equal(t, "1", pa.ID)
	assert.Equal(t, "1", pb.ID)
	assert.Equal(t, "2", pa2.ID)

	got, err := svc.GetProduct(ctx, b.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, "Book", got.Name)
	assert.Equal(t, "paper", got.Description)
	assert.Equal(t, b.ID, got.CategoryID)
}

func TestAddProductUnknownCategory(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.AddProduct(context.Background(), "9", "x", "1", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.GetCategory(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetProduct(ctx, "1", "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProductsEmptyCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	cat, err := svc.AddCategory(ctx, "Empty")
	require.NoError(t, err)
	products, err := svc.ListProducts(ctx, cat.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCountersResumeFromLegacyDocument(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemory()
	legacy := `{"categories":{"1":"A","2":"B"},"products":{"1":{"1":{"name":"p","price":"5","description":""}}}}`
	require.NoError(t, b.Update(ctx, store.Catalog, func([]byte) ([]byte, error) {
		return []byte(legacy), nil
	}))
	svc := New(b)

	cat, err := svc.AddCategory(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, "3", cat.ID)

	p, err := svc.AddProduct(ctx, "1", "q", "6", "")
	require.NoError(t, err)
	assert.Equal(t, "2", p.ID)
}

func TestEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	empty, err := svc.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	_, err = svc.AddCategory(ctx, "A")
	require.NoError(t, err)
	empty, err = svc.Empty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)
}
