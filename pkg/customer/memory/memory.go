// Package memory implements an in-memory customer repository.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"orderdesk/pkg/customer"
)

// Repository provides an in-memory implementation of customer.Repository.
type Repository struct {
	mu        sync.RWMutex
	customers map[string]customer.Customer
}

// New creates a repository holding seed.
func New(seed ...customer.Customer) *Repository {
	r := &Repository{customers: make(map[string]customer.Customer, len(seed))}
	for _, c := range seed {
		r.customers[c.ID] = c
	}
	return r
}

// emailTaken must be called with the lock held.
func (r *Repository) emailTaken(email, exceptID string) bool {
	for id, c := range r.customers {
		if id != exceptID && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

// Create stores a new customer.
func (r *Repository) Create(ctx context.Context, c customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(c.Email, c.ID) {
		return customer.ErrDuplicateEmail
	}
	r.customers[c.ID] = c
	return nil
}

// Get retrieves a customer by ID.
func (r *Repository) Get(ctx context.Context, id string) (customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

// GetByEmail retrieves a customer by email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return customer.Customer{}, customer.ErrNotFound
}

// List returns matching customers ordered by id.
func (r *Repository) List(ctx context.Context, f customer.Filter) ([]customer.Customer, error) {
	r.mu.RLock()
	out := make([]customer.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if f.Tier != "" && c.Tier != f.Tier {
			continue
		}
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Update replaces an existing customer.
func (r *Repository) Update(ctx context.Context, c customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; !ok {
		return customer.ErrNotFound
	}
	if r.emailTaken(c.Email, c.ID) {
		return customer.ErrDuplicateEmail
	}
	r.customers[c.ID] = c
	return nil
}
