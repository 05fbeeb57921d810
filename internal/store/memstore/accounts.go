package memstore

import (
	"context"
	"strings"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
)

func (r *repo) CreateUser(_ context.Context, user *models.User) error {
	defer r.lock()()
	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, user.Email) {
			return duplicate("users_email_key")
		}
	}
	user.ID = r.st.next("users")
	user.CreatedAt = r.stamp()
	r.st.users[user.ID] = *user
	return nil
}

func (r *repo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	defer r.lock()()
	u, ok := r.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r *repo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	defer r.lock()()
	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *repo) GetUsersByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	defer r.lock()()
	out := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.st.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (r *repo) UpdateUser(_ context.Context, user *models.User) error {
	defer r.lock()()
	cur, ok := r.st.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, u := range r.st.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return duplicate("users_email_key")
		}
	}
	cur.Email = user.Email
	cur.FullName = user.FullName
	cur.IsActive = user.IsActive
	cur.UpdatedAt = r.stampPtr()
	r.st.users[user.ID] = cur
	*user = cur
	return nil
}

func (r *repo) DeleteUser(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.st.users[id]; !ok {
		return store.ErrNotFound
	}
	for _, c := range r.st.customers {
		if c.UserID == id {
			return referenced("customers_user_id_fkey")
		}
	}
	for _, rv := range r.st.reviews {
		if rv.UserID == id {
			return referenced("reviews_user_id_fkey")
		}
	}
	delete(r.st.users, id)
	return nil
}

func (r *repo) CreateCustomer(_ context.Context, c *models.Customer) error {
	defer r.lock()()
	if _, ok := r.st.users[c.UserID]; !ok {
		return referenced("customers_user_id_fkey")
	}
	for _, existing := range r.st.customers {
		if existing.UserID == c.UserID {
			return duplicate("customers_user_id_key")
		}
	}
	c.ID = r.st.next("customers")
	r.st.customers[c.ID] = *c
	return nil
}

func (r *repo) GetCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	defer r.lock()()
	c, ok := r.st.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (r *repo) GetCustomerByUserID(_ context.Context, userID int64) (*models.Customer, error) {
	defer r.lock()()
	for _, c := range r.st.customers {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *repo) ListCustomers(_ context.Context, filter store.CustomerFilter) ([]models.Customer, error) {
	defer r.lock()()
	out := []models.Customer{}
	for _, c := range sortedValues(r.st.customers) {
		if filter.Search != "" {
			u := r.st.users[c.UserID]
			if !containsFold(u.Email, filter.Search) &&
				!containsFold(deref(u.FullName), filter.Search) &&
				!containsFold(deref(c.Phone), filter.Search) {
				continue
			}
		}
		out = append(out, c)
	}
	return paginate(out, filter.Page), nil
}

func (r *repo) UpdateCustomer(_ context.Context, c *models.Customer) error {
	defer r.lock()()
	cur, ok := r.st.customers[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Phone = c.Phone
	cur.DefaultShippingAddressID = c.DefaultShippingAddressID
	cur.DefaultBillingAddressID = c.DefaultBillingAddressID
	r.st.customers[c.ID] = cur
	return nil
}

func (r *repo) DeleteCustomer(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.st.customers[id]; !ok {
		return store.ErrNotFound
	}
	for _, a := range r.st.addresses {
		if a.CustomerID == id {
			return referenced("addresses_customer_id_fkey")
		}
	}
	for _, o := range r.st.orders {
		if o.CustomerID == id {
			return referenced("orders_customer_id_fkey")
		}
	}
	for _, rv := range r.st.reviews {
		if rv.CustomerID == id {
			return referenced("reviews_customer_id_fkey")
		}
	}
	delete(r.st.customers, id)
	return nil
}

func (r *repo) CreateAddress(_ context.Context, a *models.Address) error {
	defer r.lock()()
	if _, ok := r.st.customers[a.CustomerID]; !ok {
		return referenced("addresses_customer_id_fkey")
	}
	a.ID = r.st.next("addresses")
	a.CreatedAt = r.stamp()
	r.st.addresses[a.ID] = *a
	return nil
}

func (r *repo) GetAddress(_ context.Context, id int64) (*models.Address, error) {
	defer r.lock()()
	a, ok := r.st.addresses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (r *repo) ListAddressesByCustomer(_ context.Context, customerID int64) ([]models.Address, error) {
	defer r.lock()()
	out := []models.Address{}
	for _, a := range sortedValues(r.st.addresses) {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *repo) UpdateAddress(_ context.Context, a *models.Address) error {
	defer r.lock()()
	cur, ok := r.st.addresses[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.StreetAddress = a.StreetAddress
	cur.City = a.City
	cur.State = a.State
	cur.PostalCode = a.PostalCode
	cur.Country = a.Country
	cur.IsDefault = a.IsDefault
	cur.UpdatedAt = r.stampPtr()
	r.st.addresses[a.ID] = cur
	*a = cur
	return nil
}

func (r *repo) DeleteAddress(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.st.addresses[id]; !ok {
		return store.ErrNotFound
	}
	for _, o := range r.st.orders {
		if o.ShippingAddressID == id || o.BillingAddressID == id {
			return referenced("orders_address_fkey")
		}
	}
	delete(r.st.addresses, id)
	return nil
}

func (r *repo) DeleteAddressesByCustomer(_ context.Context, customerID int64) error {
	defer r.lock()()
	for id, a := range r.st.addresses {
		if a.CustomerID != customerID {
			continue
		}
		for _, o := range r.st.orders {
			if o.ShippingAddressID == id || o.BillingAddressID == id {
				return referenced("orders_address_fkey")
			}
		}
	}
	for id, a := range r.st.addresses {
		if a.CustomerID == customerID {
			delete(r.st.addresses, id)
		}
	}
	return nil
}
