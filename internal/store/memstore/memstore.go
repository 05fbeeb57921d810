// Package memstore is an in-memory store.UnitOfWork. Transactions run one at
// a time against a copy of the data, which is swapped in on success, so they
// are serializable and roll back cleanly on error.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Abdu216/Ecommerce-API/internal/models"
	"github.com/Abdu216/Ecommerce-API/internal/store"
)

// ErrCheckViolation mirrors a failed CHECK constraint
var ErrCheckViolation = errors.New("check constraint violated")

type state struct {
	seq        map[string]int64
	users      map[int64]models.User
	customers  map[int64]models.Customer
	addresses  map[int64]models.Address
	categories map[int64]models.Category
	products   map[int64]models.Product
	inventory  map[int64]models.Inventory
	history    map[int64]models.InventoryHistory
	orders     map[int64]models.Order
	items      map[int64]models.OrderItem
	payments   map[int64]models.Payment
	sales      map[int64]models.Sale
	reviews    map[int64]models.Review
}

func newState() *state {
	return &state{
		seq:        map[string]int64{},
		users:      map[int64]models.User{},
		customers:  map[int64]models.Customer{},
		addresses:  map[int64]models.Address{},
		categories: map[int64]models.Category{},
		products:   map[int64]models.Product{},
		inventory:  map[int64]models.Inventory{},
		history:    map[int64]models.InventoryHistory{},
		orders:     map[int64]models.Order{},
		items:      map[int64]models.OrderItem{},
		payments:   map[int64]models.Payment{},
		sales:      map[int64]models.Sale{},
		reviews:    map[int64]models.Review{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:        maps.Clone(s.seq),
		users:      maps.Clone(s.users),
		customers:  maps.Clone(s.customers),
		addresses:  maps.Clone(s.addresses),
		categories: maps.Clone(s.categories),
		products:   maps.Clone(s.products),
		inventory:  maps.Clone(s.inventory),
		history:    maps.Clone(s.history),
		orders:     maps.Clone(s.orders),
		items:      maps.Clone(s.items),
		payments:   maps.Clone(s.payments),
		sales:      maps.Clone(s.sales),
		reviews:    maps.Clone(s.reviews),
	}
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Store is an in-memory UnitOfWork
type Store struct {
	*repo
	mu sync.Mutex
}

var _ store.UnitOfWork = (*Store)(nil)

// New creates an empty store
func New() *Store {
	s := &Store{}
	s.repo = &repo{st: newState(), now: time.Now}
	s.repo.mu = &s.mu
	return s
}

// SetClock overrides the time source used for generated timestamps
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo.now = now
}

// InTx runs fn against a private copy of the data and commits it if fn succeeds
func (s *Store) InTx(ctx context.Context, fn func(repo store.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &repo{st: s.repo.st.clone(), now: s.repo.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.repo.st = tx.st
	return nil
}

// repo implements store.Repository over a state. mu is nil inside a
// transaction, where the Store lock is already held.
type repo struct {
	st  *state
	now func() time.Time
	mu  *sync.Mutex
}

func (r *repo) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *repo) stamp() time.Time {
	return r.now().UTC()
}

func (r *repo) stampPtr() *time.Time {
	t := r.stamp()
	return &t
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", store.ErrDuplicate, constraint)
}

func referenced(constraint string) error {
	return fmt.Errorf("%w: %s", store.ErrReferenced, constraint)
}

func paginate[T any](items []T, p store.Page) []T {
	if p.Skip > 0 {
		if p.Skip >= len(items) {
			return items[:0]
		}
		items = items[p.Skip:]
	}
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// sortedValues returns the map values ordered by ascending key
func sortedValues[T any](m map[int64]T) []T {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
