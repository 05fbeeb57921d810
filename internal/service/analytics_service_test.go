package service

import (
	"context"
	"testing"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestPeriodBounds(t *testing.T) {
	tests := []struct {
		name      string
		period    Period
		at        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"daily", PeriodDaily, utc(2024, 3, 15, 13), utc(2024, 3, 15, 0), utc(2024, 3, 16, 0)},
		{"weekly from friday", PeriodWeekly, utc(2024, 3, 15, 13), utc(2024, 3, 11, 0), utc(2024, 3, 18, 0)},
		{"weekly from sunday", PeriodWeekly, utc(2024, 3, 17, 23), utc(2024, 3, 11, 0), utc(2024, 3, 18, 0)},
		{"weekly from monday", PeriodWeekly, utc(2024, 3, 11, 0), utc(2024, 3, 11, 0), utc(2024, 3, 18, 0)},
		{"monthly", PeriodMonthly, utc(2024, 3, 15, 13), utc(2024, 3, 1, 0), utc(2024, 4, 1, 0)},
		{"monthly december", PeriodMonthly, utc(2023, 12, 31, 23), utc(2023, 12, 1, 0), utc(2024, 1, 1, 0)},
		{"monthly leap february", PeriodMonthly, utc(2024, 2, 29, 12), utc(2024, 2, 1, 0), utc(2024, 3, 1, 0)},
		{"annual", PeriodAnnual, utc(2024, 7, 4, 0), utc(2024, 1, 1, 0), utc(2025, 1, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := PeriodBounds(tt.period, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestPeriodBoundsKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	start, end, err := PeriodBounds(PeriodDaily, time.Date(2024, 3, 15, 1, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, loc), end)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)

	_, err = ParsePeriod("hourly")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

// addSale inserts a sale row directly, bypassing stock and order updates
func (f *fixture) addSale(t *testing.T, productID int64, total string, at time.Time) {
	t.Helper()
	order := f.newOrder(t, "0", "0")
	sale := &models.Sale{
		ProductID:   productID,
		OrderID:     order.ID,
		CustomerID:  f.customer.ID,
		Quantity:    1,
		UnitPrice:   dec(total),
		TotalAmount: dec(total),
		SaleDate:    at,
	}
	require.NoError(t, f.store.CreateSale(context.Background(), sale))
}

func TestRevenueMonthlyBucket(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, f.product.ID, "100.00", utc(2024, 3, 1, 0))
	f.addSale(t, f.product.ID, "50.00", time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC))
	f.addSale(t, f.product.ID, "999.00", utc(2024, 4, 1, 0))
	f.addSale(t, f.product.ID, "999.00", time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))

	date := utc(2024, 3, 15, 0)
	report, err := NewAnalyticsService(f.store, nil).Revenue(context.Background(), PeriodMonthly, &date)
	require.NoError(t, err)

	assert.Equal(t, utc(2024, 3, 1, 0), report.StartDate)
	assert.Equal(t, utc(2024, 4, 1, 0), report.EndDate)
	assert.True(t, dec("150.00").Equal(report.TotalRevenue))
	assert.Equal(t, int64(2), report.TotalSales)
	assert.True(t, dec("75.00").Equal(report.AverageOrderValue))
}

func TestRevenueEmptyPeriod(t *testing.T) {
	f := newFixture(t)
	date := utc(2020, 1, 1, 0)

	report, err := NewAnalyticsService(f.store, nil).Revenue(context.Background(), PeriodDaily, &date)
	require.NoError(t, err)
	assert.True(t, report.TotalRevenue.IsZero())
	assert.Equal(t, int64(0), report.TotalSales)
	assert.True(t, report.AverageOrderValue.IsZero())
}

func TestRevenueDefaultsToNow(t *testing.T) {
	f := newFixture(t)
	now := utc(2024, 3, 15, 12)
	f.addSale(t, f.product.ID, "10.00", utc(2024, 3, 15, 9))

	svc := NewAnalyticsService(f.store, nil).WithClock(func() time.Time { return now })
	report, err := svc.Revenue(context.Background(), PeriodDaily, nil)
	require.NoError(t, err)
	assert.Equal(t, utc(2024, 3, 15, 0), report.StartDate)
	assert.Equal(t, int64(1), report.TotalSales)
}

func TestCompareDefaultsToPreviousPeriod(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, f.product.ID, "100.00", utc(2024, 2, 10, 0))
	f.addSale(t, f.product.ID, "150.00", utc(2024, 3, 10, 0))
	f.addSale(t, f.product.ID, "50.00", utc(2024, 3, 11, 0))

	// Mar 31 must compare against February, not an overflowed March 2
	date1 := utc(2024, 3, 31, 12)
	cmp, err := NewAnalyticsService(f.store, nil).Compare(context.Background(), PeriodMonthly, &date1, nil)
	require.NoError(t, err)

	assert.Equal(t, utc(2024, 2, 1, 0), cmp.Period2.StartDate)
	assert.True(t, dec("200.00").Equal(cmp.Period1.TotalRevenue))
	assert.True(t, dec("100.00").Equal(cmp.Period2.TotalRevenue))
	assert.True(t, dec("100").Equal(cmp.RevenueChangePercentage))
	assert.True(t, dec("100").Equal(cmp.SalesChangePercentage))
}

func TestCompareZeroBaseline(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, f.product.ID, "100.00", utc(2024, 3, 10, 0))

	date1 := utc(2024, 3, 10, 0)
	date2 := utc(2023, 3, 10, 0)
	cmp, err := NewAnalyticsService(f.store, nil).Compare(context.Background(), PeriodAnnual, &date1, &date2)
	require.NoError(t, err)

	assert.True(t, cmp.Period2.TotalRevenue.IsZero())
	assert.True(t, cmp.RevenueChangePercentage.IsZero())
	assert.True(t, cmp.SalesChangePercentage.IsZero())
}

func TestCompareDecrease(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, f.product.ID, "30.00", utc(2024, 3, 12, 0))
	f.addSale(t, f.product.ID, "90.00", utc(2024, 3, 11, 0))

	date1 := utc(2024, 3, 12, 5)
	cmp, err := NewAnalyticsService(f.store, nil).Compare(context.Background(), PeriodDaily, &date1, nil)
	require.NoError(t, err)
	assert.True(t, dec("-66.67").Equal(cmp.RevenueChangePercentage), cmp.RevenueChangePercentage.String())
	assert.True(t, cmp.SalesChangePercentage.IsZero())
}

func TestCategoriesShareOfRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	games := &models.Category{Name: "Games"}
	require.NoError(t, f.store.CreateCategory(ctx, games))
	game := f.addProduct(t, games.ID, "60.00")

	f.addSale(t, f.product.ID, "25.00", utc(2024, 3, 2, 0))
	f.addSale(t, game.ID, "75.00", utc(2024, 3, 3, 0))
	f.addSale(t, game.ID, "500.00", utc(2024, 4, 3, 0))

	start, end := utc(2024, 3, 1, 0), utc(2024, 3, 31, 0)
	rows, err := NewAnalyticsService(f.store, nil).Categories(ctx, &start, &end)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Games", rows[0].CategoryName)
	assert.True(t, dec("75").Equal(rows[0].PercentageOfTotal))
	assert.Equal(t, "Books", rows[1].CategoryName)
	assert.True(t, dec("25").Equal(rows[1].PercentageOfTotal))
}

func TestCategoriesClosedRange(t *testing.T) {
	f := newFixture(t)
	end := utc(2024, 3, 31, 0)
	f.addSale(t, f.product.ID, "10.00", end)

	start := utc(2024, 3, 1, 0)
	rows, err := NewAnalyticsService(f.store, nil).Categories(context.Background(), &start, &end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, dec("100").Equal(rows[0].PercentageOfTotal))
}

func TestCategoriesInvertedRange(t *testing.T) {
	f := newFixture(t)
	start, end := utc(2024, 3, 2, 0), utc(2024, 3, 1, 0)

	_, err := NewAnalyticsService(f.store, nil).Categories(context.Background(), &start, &end)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestRevenueServedFromCache(t *testing.T) {
	f := newFixture(t)
	cache := newMemoryCache()
	svc := NewAnalyticsService(f.store, cache)
	date := utc(2024, 3, 15, 0)
	f.addSale(t, f.product.ID, "10.00", date)

	first, err := svc.Revenue(context.Background(), PeriodMonthly, &date)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// a new sale is invisible until the cache is invalidated
	f.addSale(t, f.product.ID, "10.00", date)
	second, err := svc.Revenue(context.Background(), PeriodMonthly, &date)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first.TotalSales, second.TotalSales)
}
