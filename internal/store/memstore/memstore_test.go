package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, stock int) *models.Inventory {
	t.Helper()
	ctx := context.Background()

	cat := &models.Category{Name: "Tools"}
	require.NoError(t, s.CreateCategory(ctx, cat))
	p := &models.Product{Name: "Hammer", Price: decimal.NewFromInt(12), CategoryID: cat.ID, IsActive: true}
	require.NoError(t, s.CreateProduct(ctx, p))
	inv := &models.Inventory{ProductID: p.ID, Quantity: stock, InitialQuantity: stock, LowStockThreshold: 5}
	require.NoError(t, s.CreateInventory(ctx, inv))
	return inv
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	inv := seedProduct(t, s, 10)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(repo store.Repository) error {
		_, err := repo.DecrementStock(ctx, inv.ProductID, 3)
		require.NoError(t, err)
		require.NoError(t, repo.AppendInventoryHistory(ctx, &models.InventoryHistory{
			InventoryID: inv.ID, QuantityChange: -3, Reason: "Sale",
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetInventory(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	sum, err := s.SumInventoryHistory(ctx, inv.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestInTxCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	inv := seedProduct(t, s, 10)

	err := s.InTx(ctx, func(repo store.Repository) error {
		_, err := repo.DecrementStock(ctx, inv.ProductID, 3)
		return err
	})
	require.NoError(t, err)

	got, err := s.GetInventory(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
}

func TestDecrementStockInsufficient(t *testing.T) {
	s := New()
	ctx := context.Background()
	inv := seedProduct(t, s, 2)

	got, err := s.DecrementStock(ctx, inv.ProductID, 3)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 2, got.Quantity)

	_, err = s.DecrementStock(ctx, 999, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	inv := seedProduct(t, s, 10)

	got, err := s.GetInventory(ctx, inv.ID)
	require.NoError(t, err)
	got.Quantity = 0

	again, err := s.GetInventory(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, again.Quantity)
}

func TestDuplicateInventoryForProduct(t *testing.T) {
	s := New()
	ctx := context.Background()
	inv := seedProduct(t, s, 10)

	err := s.CreateInventory(ctx, &models.Inventory{ProductID: inv.ProductID, Quantity: 1, InitialQuantity: 1, LowStockThreshold: 1})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}
