package service

import (
	"context"
	"testing"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCreateInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInventoryService(f.store, f.events)
	product := f.addProduct(t, f.category.ID, "3.00")

	inv, err := svc.Create(ctx, &CreateInventoryRequest{ProductID: product.ID, Quantity: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, inv.Quantity)
	assert.Equal(t, 40, inv.InitialQuantity)
	assert.Equal(t, defaultLowStockThreshold, inv.LowStockThreshold)

	history, err := svc.History(ctx, inv.ID, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = svc.Create(ctx, &CreateInventoryRequest{ProductID: product.ID, Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.CodeConflict))

	_, err = svc.Create(ctx, &CreateInventoryRequest{ProductID: 9999, Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))

	_, err = svc.Create(ctx, &CreateInventoryRequest{ProductID: product.ID, Quantity: 1, LowStockThreshold: intPtr(0)})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestAdjustAppendsDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInventoryService(f.store, f.events)

	inv, err := svc.Adjust(ctx, f.inventory.ID, &AdjustInventoryRequest{Quantity: intPtr(120), Reason: "restock"})
	require.NoError(t, err)
	assert.Equal(t, 120, inv.Quantity)

	inv, err = svc.Adjust(ctx, f.inventory.ID, &AdjustInventoryRequest{Quantity: intPtr(8), Reason: "shrinkage"})
	require.NoError(t, err)
	assert.Equal(t, 8, inv.Quantity)

	history, err := svc.History(ctx, f.inventory.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, -112, history[0].QuantityChange)
	assert.Equal(t, "shrinkage", history[0].Reason)
	assert.Equal(t, 20, history[1].QuantityChange)

	require.Len(t, f.events.adjustments, 2)
	require.Len(t, f.events.lowStock, 1)
	assert.Equal(t, 8, f.events.lowStock[0].Quantity)

	check, err := svc.VerifyLedger(ctx, f.inventory.ID)
	require.NoError(t, err)
	assert.True(t, check.Balanced)
	assert.Equal(t, -92, check.HistorySum)
}

func TestAdjustZeroDeltaAppendsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInventoryService(f.store, f.events)

	inv, err := svc.Adjust(ctx, f.inventory.ID, &AdjustInventoryRequest{
		Quantity:          intPtr(100),
		LowStockThreshold: intPtr(25),
		Reason:            "recount",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, inv.LowStockThreshold)

	history, err := svc.History(ctx, f.inventory.ID, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.events.adjustments)
}

func TestAdjustValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewInventoryService(f.store, f.events)

	tests := []struct {
		name string
		req  *AdjustInventoryRequest
	}{
		{"missing reason", &AdjustInventoryRequest{Quantity: intPtr(1)}},
		{"negative quantity", &AdjustInventoryRequest{Quantity: intPtr(-1), Reason: "x"}},
		{"zero threshold", &AdjustInventoryRequest{LowStockThreshold: intPtr(0), Reason: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Adjust(context.Background(), f.inventory.ID, tt.req)
			assert.True(t, apperror.Is(err, apperror.CodeValidation))
		})
	}

	_, err := svc.Adjust(context.Background(), 9999, &AdjustInventoryRequest{Quantity: intPtr(1), Reason: "x"})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestListLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInventoryService(f.store, f.events)
	low := f.addStock(t, f.addProduct(t, f.category.ID, "1.00").ID, 3)

	items, err := svc.List(ctx, store.InventoryFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].ID)

	all, err := svc.List(ctx, store.InventoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetInventoryWithHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInventoryService(f.store, f.events)

	_, err := svc.Adjust(ctx, f.inventory.ID, &AdjustInventoryRequest{Quantity: intPtr(90), Reason: "damaged"})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, f.inventory.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, detail.Quantity)
	assert.Len(t, detail.History, 1)

	byProduct, err := svc.GetByProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, f.inventory.ID, byProduct.ID)

	_, err = svc.History(ctx, 9999, store.Page{})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestHistoryPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInventoryService(f.store, f.events)

	for q := 99; q >= 95; q-- {
		_, err := svc.Adjust(ctx, f.inventory.ID, &AdjustInventoryRequest{Quantity: intPtr(q), Reason: "tick"})
		require.NoError(t, err)
	}

	page, err := svc.History(ctx, f.inventory.ID, store.Page{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Greater(t, page[0].ID, page[1].ID)
}
