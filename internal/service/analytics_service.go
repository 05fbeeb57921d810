package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Period is a calendar bucket size
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAnnual  Period = "annual"
)

var hundred = decimal.NewFromInt(100)

// ParsePeriod validates a period name
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAnnual:
		return p, nil
	}
	return "", apperror.Validation("period must be one of daily, weekly, monthly, annual").
		WithDetail("period", s)
}

// PeriodBounds returns the half-open bucket [start, end) containing t, in
// t's location. Weeks start on Monday.
func PeriodBounds(period Period, t time.Time) (time.Time, time.Time, error) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())

	switch period {
	case PeriodDaily:
		return day, day.AddDate(0, 0, 1), nil
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil
	case PeriodMonthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
		return start, start.AddDate(0, 1, 0), nil
	case PeriodAnnual:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, t.Location())
		return start, start.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, apperror.Validation(fmt.Sprintf("unknown period %q", period))
}

// RevenueReport is the revenue of one period bucket
type RevenueReport struct {
	Period            Period          `json:"period"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalSales        int64           `json:"total_sales"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type RevenueComparison struct {
	Period1                 RevenueReport   `json:"period_1"`
	Period2                 RevenueReport   `json:"period_2"`
	RevenueChangePercentage decimal.Decimal `json:"revenue_change_percentage"`
	SalesChangePercentage   decimal.Decimal `json:"sales_change_percentage"`
}

type CategoryRevenue struct {
	CategoryID        int64           `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalSales        int64           `json:"total_sales"`
	PercentageOfTotal decimal.Decimal `json:"percentage_of_total"`
}

// AnalyticsService aggregates sales into revenue reports. Results are
// cached; the cache is invalidated out of band when sales change.
type AnalyticsService struct {
	store  store.Repository
	cache  Cache
	now    Clock
	logger *zap.Logger
}

// NewAnalyticsService creates a new analytics service. cache may be nil.
func NewAnalyticsService(store store.Repository, cache Cache) *AnalyticsService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &AnalyticsService{
		store:  store,
		cache:  cache,
		now:    defaultClock,
		logger: util.GetLogger(),
	}
}

// WithClock overrides the source of "now" for default dates
func (s *AnalyticsService) WithClock(now Clock) *AnalyticsService {
	s.now = now
	return s
}

// Revenue reports the bucket of period containing date (now when nil)
func (s *AnalyticsService) Revenue(ctx context.Context, period Period, date *time.Time) (*RevenueReport, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.Revenue")
	defer span.End()

	t := s.now()
	if date != nil {
		t = *date
	}
	return s.revenue(ctx, period, t)
}

func (s *AnalyticsService) revenue(ctx context.Context, period Period, t time.Time) (*RevenueReport, error) {
	start, end, err := PeriodBounds(period, t)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("revenue:%s:%d:%d", period, start.Unix(), end.Unix())
	report := &RevenueReport{}
	if s.cached(ctx, key, report) {
		return report, nil
	}

	totals, err := s.store.RevenueInRange(ctx, store.TimeRange{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("revenue %s: %w", period, err)
	}

	report = &RevenueReport{
		Period:            period,
		StartDate:         start,
		EndDate:           end,
		TotalRevenue:      totals.TotalRevenue,
		TotalSales:        totals.TotalSales,
		AverageOrderValue: decimal.Zero,
	}
	if totals.TotalSales > 0 {
		report.AverageOrderValue = totals.TotalRevenue.Div(decimal.NewFromInt(totals.TotalSales)).Round(2)
	}

	s.remember(ctx, key, report)
	return report, nil
}

// Compare reports the change from the bucket containing date2 to the one
// containing date1. date1 defaults to now, date2 to the bucket before date1.
func (s *AnalyticsService) Compare(ctx context.Context, period Period, date1, date2 *time.Time) (*RevenueComparison, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.Compare")
	defer span.End()

	t1 := s.now()
	if date1 != nil {
		t1 = *date1
	}
	current, err := s.revenue(ctx, period, t1)
	if err != nil {
		return nil, err
	}

	// the last instant before the current bucket lies in the previous one
	t2 := current.StartDate.Add(-time.Nanosecond)
	if date2 != nil {
		t2 = *date2
	}
	previous, err := s.revenue(ctx, period, t2)
	if err != nil {
		return nil, err
	}

	return &RevenueComparison{
		Period1:                 *current,
		Period2:                 *previous,
		RevenueChangePercentage: percentChange(current.TotalRevenue, previous.TotalRevenue),
		SalesChangePercentage:   percentChange(decimal.NewFromInt(current.TotalSales), decimal.NewFromInt(previous.TotalSales)),
	}, nil
}

// Categories breaks revenue down by category over the closed range
// [start, end]. start defaults to the first of the current month, end to now.
func (s *AnalyticsService) Categories(ctx context.Context, start, end *time.Time) ([]CategoryRevenue, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.Categories")
	defer span.End()

	now := s.now()
	r := store.TimeRange{
		Start:      time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		End:        now,
		IncludeEnd: true,
	}
	if start != nil {
		r.Start = *start
	}
	if end != nil {
		r.End = *end
	}
	if r.End.Before(r.Start) {
		return nil, apperror.Validation("end_date must not be before start_date")
	}

	key := fmt.Sprintf("categories:%d:%d", r.Start.UnixNano(), r.End.UnixNano())
	var result []CategoryRevenue
	if s.cached(ctx, key, &result) {
		return result, nil
	}

	totals, err := s.store.RevenueInRange(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("category revenue total: %w", err)
	}
	rows, err := s.store.CategoryRevenue(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("category revenue: %w", err)
	}

	result = make([]CategoryRevenue, 0, len(rows))
	for _, row := range rows {
		share := decimal.Zero
		if totals.TotalRevenue.IsPositive() {
			share = row.TotalRevenue.Div(totals.TotalRevenue).Mul(hundred).Round(2)
		}
		result = append(result, CategoryRevenue{
			CategoryID:        row.CategoryID,
			CategoryName:      row.CategoryName,
			TotalRevenue:      row.TotalRevenue,
			TotalSales:        row.TotalSales,
			PercentageOfTotal: share,
		})
	}

	s.remember(ctx, key, result)
	return result, nil
}

// percentChange is (current-baseline)/baseline*100, or 0 for a zero baseline
func percentChange(current, baseline decimal.Decimal) decimal.Decimal {
	if !baseline.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(baseline).Div(baseline).Mul(hundred).Round(2)
}

func (s *AnalyticsService) cached(ctx context.Context, key string, dest interface{}) bool {
	ok, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Analytics cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if ok {
		util.AnalyticsCacheHits.Inc()
		return true
	}
	util.AnalyticsCacheMisses.Inc()
	return false
}

func (s *AnalyticsService) remember(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("Analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
