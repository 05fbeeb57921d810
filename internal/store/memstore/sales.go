package memstore

import (
	"context"
	"sort"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"

	"github.com/shopspring/decimal"
)

func (r *repo) CreateSale(_ context.Context, s *models.Sale) error {
	defer r.lock()()
	if _, ok := r.st.products[s.ProductID]; !ok {
		return referenced("sales_product_id_fkey")
	}
	if _, ok := r.st.orders[s.OrderID]; !ok {
		return referenced("sales_order_id_fkey")
	}
	if _, ok := r.st.customers[s.CustomerID]; !ok {
		return referenced("sales_customer_id_fkey")
	}
	if s.Quantity <= 0 {
		return ErrCheckViolation
	}
	s.ID = r.st.next("sales")
	if s.SaleDate.IsZero() {
		s.SaleDate = r.stamp()
	}
	r.st.sales[s.ID] = *s
	return nil
}

func (r *repo) GetSale(_ context.Context, id int64) (*models.Sale, error) {
	defer r.lock()()
	s, ok := r.st.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (r *repo) ListSales(_ context.Context, filter store.SaleFilter) ([]models.Sale, error) {
	defer r.lock()()
	out := []models.Sale{}
	for _, s := range r.st.sales {
		if filter.StartDate != nil && s.SaleDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && s.SaleDate.After(*filter.EndDate) {
			continue
		}
		if filter.ProductID != nil && s.ProductID != *filter.ProductID {
			continue
		}
		if filter.CustomerID != nil && s.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.OrderID != nil && s.OrderID != *filter.OrderID {
			continue
		}
		if filter.CategoryID != nil && r.st.products[s.ProductID].CategoryID != *filter.CategoryID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SaleDate.Equal(out[j].SaleDate) {
			return out[i].SaleDate.After(out[j].SaleDate)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, filter.Page), nil
}

func (r *repo) UpdateSale(_ context.Context, s *models.Sale) error {
	defer r.lock()()
	cur, ok := r.st.sales[s.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.Quantity <= 0 {
		return ErrCheckViolation
	}
	cur.Quantity = s.Quantity
	cur.UnitPrice = s.UnitPrice
	cur.TotalAmount = s.TotalAmount
	cur.SaleDate = s.SaleDate
	r.st.sales[s.ID] = cur
	return nil
}

func (r *repo) CountSalesByOrder(_ context.Context, orderID int64) (int, error) {
	defer r.lock()()
	n := 0
	for _, s := range r.st.sales {
		if s.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func (r *repo) HasPurchased(_ context.Context, customerID, productID int64) (bool, error) {
	defer r.lock()()
	for _, s := range r.st.sales {
		if s.CustomerID == customerID && s.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *repo) RevenueInRange(_ context.Context, tr store.TimeRange) (models.RevenueTotals, error) {
	defer r.lock()()
	totals := models.RevenueTotals{TotalRevenue: decimal.Zero}
	for _, s := range r.st.sales {
		if !tr.Contains(s.SaleDate) {
			continue
		}
		totals.TotalRevenue = totals.TotalRevenue.Add(s.TotalAmount)
		totals.TotalSales++
	}
	return totals, nil
}

func (r *repo) CategoryRevenue(_ context.Context, tr store.TimeRange) ([]models.CategoryRevenueRow, error) {
	defer r.lock()()
	byCategory := map[int64]*models.CategoryRevenueRow{}
	for _, s := range r.st.sales {
		if !tr.Contains(s.SaleDate) {
			continue
		}
		p, ok := r.st.products[s.ProductID]
		if !ok {
			continue
		}
		row, ok := byCategory[p.CategoryID]
		if !ok {
			row = &models.CategoryRevenueRow{
				CategoryID:   p.CategoryID,
				CategoryName: r.st.categories[p.CategoryID].Name,
				TotalRevenue: decimal.Zero,
			}
			byCategory[p.CategoryID] = row
		}
		row.TotalRevenue = row.TotalRevenue.Add(s.TotalAmount)
		row.TotalSales++
	}

	out := make([]models.CategoryRevenueRow, 0, len(byCategory))
	for _, row := range byCategory {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRevenue.Cmp(out[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (r *repo) CreateReview(_ context.Context, rv *models.Review) error {
	defer r.lock()()
	if _, ok := r.st.products[rv.ProductID]; !ok {
		return referenced("reviews_product_id_fkey")
	}
	if _, ok := r.st.customers[rv.CustomerID]; !ok {
		return referenced("reviews_customer_id_fkey")
	}
	if rv.Rating < 1 || rv.Rating > 5 {
		return ErrCheckViolation
	}
	for _, existing := range r.st.reviews {
		if existing.ProductID == rv.ProductID && existing.CustomerID == rv.CustomerID {
			return duplicate("reviews_product_id_customer_id_key")
		}
	}
	rv.ID = r.st.next("reviews")
	rv.CreatedAt = r.stamp()
	r.st.reviews[rv.ID] = *rv
	return nil
}

func (r *repo) GetReview(_ context.Context, id int64) (*models.Review, error) {
	defer r.lock()()
	rv, ok := r.st.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rv, nil
}

func (r *repo) ListReviews(_ context.Context, productID int64, page store.Page) ([]models.Review, error) {
	defer r.lock()()
	out := []models.Review{}
	for _, rv := range r.st.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page), nil
}

func (r *repo) ReviewRatings(_ context.Context, productID int64) ([]store.RatingBucket, error) {
	defer r.lock()()
	byRating := map[int]*store.RatingBucket{}
	for _, rv := range r.st.reviews {
		if rv.ProductID != productID {
			continue
		}
		b, ok := byRating[rv.Rating]
		if !ok {
			b = &store.RatingBucket{Rating: rv.Rating}
			byRating[rv.Rating] = b
		}
		b.Count++
		if rv.IsVerifiedPurchase {
			b.Verified++
		}
	}

	out := make([]store.RatingBucket, 0, len(byRating))
	for _, b := range byRating {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })
	return out, nil
}

func (r *repo) DeleteReview(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.st.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.st.reviews, id)
	return nil
}
