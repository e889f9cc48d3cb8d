package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhadeepds/microservices-project/internal/models"
)

func newOrder(customerID int64, lines map[int64]int) models.Order {
	return models.Order{CustomerID: &customerID, ProductQuantities: lines}
}

func TestMemoryOrderRepository_SaveAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	first, err := repo.Save(ctx, newOrder(1, map[int64]int{1: 2}))
	require.NoError(t, err)
	second, err := repo.Save(ctx, newOrder(1, map[int64]int{2: 1}))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestMemoryOrderRepository_IDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	first, err := repo.Save(ctx, newOrder(1, map[int64]int{1: 2}))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, first.ID))

	second, err := repo.Save(ctx, newOrder(1, map[int64]int{1: 2}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryOrderRepository_UpdateReplacesLines(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	saved, err := repo.Save(ctx, newOrder(1, map[int64]int{1: 2, 2: 1}))
	require.NoError(t, err)

	saved.ProductQuantities = map[int64]int{3: 4}
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	found, err := repo.Find(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, map[int64]int{3: 4}, found.ProductQuantities)
	assert.Equal(t, saved.CreatedAt, found.CreatedAt)
}

func TestMemoryOrderRepository_UpdateMissingFails(t *testing.T) {
	repo := NewMemoryOrderRepository()

	o := newOrder(1, map[int64]int{1: 1})
	o.ID = 42
	_, err := repo.Save(context.Background(), o)
	assert.Error(t, err)
}

func TestMemoryOrderRepository_FindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	saved, err := repo.Save(ctx, newOrder(1, map[int64]int{1: 2}))
	require.NoError(t, err)

	found, err := repo.Find(ctx, saved.ID)
	require.NoError(t, err)
	found.ProductQuantities[1] = 99

	again, err := repo.Find(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.ProductQuantities[1])
}

func TestMemoryOrderRepository_MissingOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	found, err := repo.Find(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, found)

	exists, err := repo.Exists(ctx, 7)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, repo.Delete(ctx, 7))
}

func TestMemoryOrderRepository_FindAllSortedByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	for i := 0; i < 3; i++ {
		_, err := repo.Save(ctx, newOrder(1, map[int64]int{1: 1}))
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, o := range all {
		assert.Equal(t, int64(i+1), o.ID)
	}
}

func TestMemoryOrderRepository_ExistsTracksLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	saved, err := repo.Save(ctx, newOrder(1, map[int64]int{1: 2}))
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, saved.ID))

	exists, err = repo.Exists(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
