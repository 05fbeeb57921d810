package memstore

import (
	"context"
	"sort"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
)

func (r *repo) CreateCategory(_ context.Context, c *models.Category) error {
	defer r.lock()()
	c.ID = r.st.next("categories")
	c.CreatedAt = r.stamp()
	r.st.categories[c.ID] = *c
	return nil
}

func (r *repo) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	defer r.lock()()
	c, ok := r.st.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (r *repo) ListCategories(_ context.Context, filter store.CategoryFilter) ([]models.Category, error) {
	defer r.lock()()
	out := []models.Category{}
	for _, c := range sortedValues(r.st.categories) {
		if filter.Search != "" && !containsFold(c.Name, filter.Search) {
			continue
		}
		out = append(out, c)
	}
	return paginate(out, filter.Page), nil
}

func (r *repo) UpdateCategory(_ context.Context, c *models.Category) error {
	defer r.lock()()
	cur, ok := r.st.categories[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Name = c.Name
	cur.Description = c.Description
	cur.UpdatedAt = r.stampPtr()
	r.st.categories[c.ID] = cur
	*c = cur
	return nil
}

func (r *repo) CreateProduct(_ context.Context, p *models.Product) error {
	defer r.lock()()
	if _, ok := r.st.categories[p.CategoryID]; !ok {
		return referenced("products_category_id_fkey")
	}
	if !p.Price.IsPositive() {
		return ErrCheckViolation
	}
	p.ID = r.st.next("products")
	p.CreatedAt = r.stamp()
	r.st.products[p.ID] = *p
	return nil
}

func (r *repo) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	defer r.lock()()
	p, ok := r.st.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r *repo) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]*models.Product, error) {
	defer r.lock()()
	out := make(map[int64]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.st.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (r *repo) ListProducts(_ context.Context, filter store.ProductFilter) ([]models.Product, error) {
	defer r.lock()()
	out := []models.Product{}
	for _, p := range sortedValues(r.st.products) {
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Search != "" && !containsFold(p.Name, filter.Search) && !containsFold(deref(p.Description), filter.Search) {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return paginate(out, filter.Page), nil
}

func (r *repo) UpdateProduct(_ context.Context, p *models.Product) error {
	defer r.lock()()
	cur, ok := r.st.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := r.st.categories[p.CategoryID]; !ok {
		return referenced("products_category_id_fkey")
	}
	if !p.Price.IsPositive() {
		return ErrCheckViolation
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.CategoryID = p.CategoryID
	cur.SKU = p.SKU
	cur.IsActive = p.IsActive
	cur.UpdatedAt = r.stampPtr()
	r.st.products[p.ID] = cur
	*p = cur
	return nil
}

func (r *repo) DeleteProduct(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.st.products[id]; !ok {
		return store.ErrNotFound
	}
	if r.productReferenced(id) {
		return referenced("product")
	}
	for _, inv := range r.st.inventory {
		if inv.ProductID == id {
			return referenced("inventory_product_id_fkey")
		}
	}
	delete(r.st.products, id)
	return nil
}

func (r *repo) IsProductReferenced(_ context.Context, id int64) (bool, error) {
	defer r.lock()()
	return r.productReferenced(id), nil
}

func (r *repo) productReferenced(id int64) bool {
	for _, it := range r.st.items {
		if it.ProductID == id {
			return true
		}
	}
	for _, s := range r.st.sales {
		if s.ProductID == id {
			return true
		}
	}
	for _, rv := range r.st.reviews {
		if rv.ProductID == id {
			return true
		}
	}
	return false
}

func (r *repo) CreateInventory(_ context.Context, inv *models.Inventory) error {
	defer r.lock()()
	if _, ok := r.st.products[inv.ProductID]; !ok {
		return referenced("inventory_product_id_fkey")
	}
	for _, existing := range r.st.inventory {
		if existing.ProductID == inv.ProductID {
			return duplicate("inventory_product_id_key")
		}
	}
	if inv.Quantity < 0 || inv.InitialQuantity < 0 || inv.LowStockThreshold < 1 {
		return ErrCheckViolation
	}
	inv.ID = r.st.next("inventory")
	inv.LastUpdated = r.stampPtr()
	r.st.inventory[inv.ID] = *inv
	return nil
}

func (r *repo) GetInventory(_ context.Context, id int64) (*models.Inventory, error) {
	defer r.lock()()
	inv, ok := r.st.inventory[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &inv, nil
}

func (r *repo) inventoryByProduct(productID int64) (models.Inventory, bool) {
	for _, inv := range r.st.inventory {
		if inv.ProductID == productID {
			return inv, true
		}
	}
	return models.Inventory{}, false
}

func (r *repo) GetInventoryByProduct(_ context.Context, productID int64) (*models.Inventory, error) {
	defer r.lock()()
	inv, ok := r.inventoryByProduct(productID)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &inv, nil
}

// Lock variants need no extra locking: transactions are already exclusive
func (r *repo) LockInventory(ctx context.Context, id int64) (*models.Inventory, error) {
	return r.GetInventory(ctx, id)
}

func (r *repo) LockInventoryByProduct(ctx context.Context, productID int64) (*models.Inventory, error) {
	return r.GetInventoryByProduct(ctx, productID)
}

func (r *repo) ListInventory(_ context.Context, filter store.InventoryFilter) ([]models.Inventory, error) {
	defer r.lock()()
	out := []models.Inventory{}
	for _, inv := range sortedValues(r.st.inventory) {
		if filter.LowStock && !inv.IsLowStock() {
			continue
		}
		out = append(out, inv)
	}
	return paginate(out, filter.Page), nil
}

func (r *repo) UpdateInventory(_ context.Context, inv *models.Inventory) error {
	defer r.lock()()
	cur, ok := r.st.inventory[inv.ID]
	if !ok {
		return store.ErrNotFound
	}
	if inv.Quantity < 0 || inv.LowStockThreshold < 1 {
		return ErrCheckViolation
	}
	cur.Quantity = inv.Quantity
	cur.LowStockThreshold = inv.LowStockThreshold
	cur.LastUpdated = r.stampPtr()
	r.st.inventory[inv.ID] = cur
	*inv = cur
	return nil
}

func (r *repo) DecrementStock(_ context.Context, productID int64, quantity int) (*models.Inventory, error) {
	defer r.lock()()
	inv, ok := r.inventoryByProduct(productID)
	if !ok {
		return nil, store.ErrNotFound
	}
	if inv.Quantity < quantity {
		return &inv, store.ErrInsufficientStock
	}
	inv.Quantity -= quantity
	inv.LastUpdated = r.stampPtr()
	r.st.inventory[inv.ID] = inv
	return &inv, nil
}

func (r *repo) DeleteInventoryByProduct(_ context.Context, productID int64) error {
	defer r.lock()()
	inv, ok := r.inventoryByProduct(productID)
	if !ok {
		return nil
	}
	for id, h := range r.st.history {
		if h.InventoryID == inv.ID {
			delete(r.st.history, id)
		}
	}
	delete(r.st.inventory, inv.ID)
	return nil
}

func (r *repo) AppendInventoryHistory(_ context.Context, entry *models.InventoryHistory) error {
	defer r.lock()()
	if _, ok := r.st.inventory[entry.InventoryID]; !ok {
		return referenced("inventory_history_inventory_id_fkey")
	}
	entry.ID = r.st.next("inventory_history")
	entry.Timestamp = r.stamp()
	r.st.history[entry.ID] = *entry
	return nil
}

func (r *repo) ListInventoryHistory(_ context.Context, inventoryID int64, page store.Page) ([]models.InventoryHistory, error) {
	defer r.lock()()
	out := []models.InventoryHistory{}
	for _, h := range r.st.history {
		if h.InventoryID == inventoryID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page), nil
}

func (r *repo) SumInventoryHistory(_ context.Context, inventoryID int64) (int, error) {
	defer r.lock()()
	sum := 0
	for _, h := range r.st.history {
		if h.InventoryID == inventoryID {
			sum += h.QuantityChange
		}
	}
	return sum, nil
}
