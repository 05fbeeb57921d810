package store

import (
	"context"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/jmoiron/sqlx"
)

// CreateUser creates a new user
func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, hashed_password, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return mapError(q.db.QueryRowxContext(ctx, query,
		user.Email, user.HashedPassword, user.FullName, user.Role, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt))
}

// GetUserByID retrieves a user by ID
func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := q.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := q.db.GetContext(ctx, &user, "SELECT * FROM users WHERE lower(email) = lower($1)", email); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// GetUsersByIDs retrieves multiple users keyed by ID
func (q *Queries) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	out := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In("SELECT * FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := q.db.SelectContext(ctx, &users, q.db.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// UpdateUser updates the mutable user fields
func (q *Queries) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE users SET email = $1, full_name = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4`,
		user.Email, user.FullName, user.IsActive, user.ID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// DeleteUser deletes a user
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// CreateCustomer creates a customer profile
func (q *Queries) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (user_id, phone, default_shipping_address_id, default_billing_address_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return mapError(q.db.GetContext(ctx, &c.ID, query,
		c.UserID, c.Phone, c.DefaultShippingAddressID, c.DefaultBillingAddressID))
}

// GetCustomerByID retrieves a customer by ID
func (q *Queries) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	if err := q.db.GetContext(ctx, &c, "SELECT * FROM customers WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// GetCustomerByUserID retrieves the profile of a user
func (q *Queries) GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error) {
	var c models.Customer
	if err := q.db.GetContext(ctx, &c, "SELECT * FROM customers WHERE user_id = $1", userID); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListCustomers lists customers, optionally searching email, name and phone
func (q *Queries) ListCustomers(ctx context.Context, filter CustomerFilter) ([]models.Customer, error) {
	w := &where{}
	if filter.Search != "" {
		p := w.arg(likePattern(filter.Search))
		w.add("(u.email ILIKE " + p + " OR u.full_name ILIKE " + p + " OR c.phone ILIKE " + p + ")")
	}

	query := "SELECT c.* FROM customers c JOIN users u ON u.id = c.user_id" +
		w.sql() + " ORDER BY c.id" + w.page(filter.Page)

	customers := []models.Customer{}
	if err := q.db.SelectContext(ctx, &customers, query, w.args...); err != nil {
		return nil, mapError(err)
	}
	return customers, nil
}

// UpdateCustomer updates the customer profile
func (q *Queries) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE customers SET phone = $1, default_shipping_address_id = $2, default_billing_address_id = $3
		WHERE id = $4`,
		c.Phone, c.DefaultShippingAddressID, c.DefaultBillingAddressID, c.ID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// DeleteCustomer deletes a customer profile
func (q *Queries) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// CreateAddress creates an address for a customer
func (q *Queries) CreateAddress(ctx context.Context, a *models.Address) error {
	query := `
		INSERT INTO addresses (customer_id, street_address, city, state, postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return mapError(q.db.QueryRowxContext(ctx, query,
		a.CustomerID, a.StreetAddress, a.City, a.State, a.PostalCode, a.Country, a.IsDefault,
	).Scan(&a.ID, &a.CreatedAt))
}

// GetAddress retrieves an address by ID
func (q *Queries) GetAddress(ctx context.Context, id int64) (*models.Address, error) {
	var a models.Address
	if err := q.db.GetContext(ctx, &a, "SELECT * FROM addresses WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

// ListAddressesByCustomer lists the addresses of a customer
func (q *Queries) ListAddressesByCustomer(ctx context.Context, customerID int64) ([]models.Address, error) {
	addresses := []models.Address{}
	err := q.db.SelectContext(ctx, &addresses,
		"SELECT * FROM addresses WHERE customer_id = $1 ORDER BY id", customerID)
	return addresses, mapError(err)
}

// UpdateAddress updates an address
func (q *Queries) UpdateAddress(ctx context.Context, a *models.Address) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE addresses
		SET street_address = $1, city = $2, state = $3, postal_code = $4, country = $5,
		    is_default = $6, updated_at = NOW()
		WHERE id = $7`,
		a.StreetAddress, a.City, a.State, a.PostalCode, a.Country, a.IsDefault, a.ID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// DeleteAddress deletes an address
func (q *Queries) DeleteAddress(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM addresses WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// DeleteAddressesByCustomer deletes every address of a customer
func (q *Queries) DeleteAddressesByCustomer(ctx context.Context, customerID int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM addresses WHERE customer_id = $1", customerID)
	return mapError(err)
}
