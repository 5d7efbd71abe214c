// Package postgres persists customers in PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"orderdesk/pkg/customer"
)

const (
	columns = `id, name, email, tier, company, is_active, created_at, updated_at`

	uniqueViolation = pq.ErrorCode("23505")
)

// Repository persists customers in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return customer.ErrDuplicateEmail
	}
	return err
}

// Create inserts a new customer.
func (r *Repository) Create(ctx context.Context, c customer.Customer) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO customers (`+columns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.Name, c.Email, string(c.Tier), c.Company, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

// Get retrieves a customer by ID.
func (r *Repository) Get(ctx context.Context, id string) (customer.Customer, error) {
	return r.one(ctx, `SELECT `+columns+` FROM customers WHERE id=$1`, id)
}

// GetByEmail retrieves a customer by email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (customer.Customer, error) {
	return r.one(ctx, `SELECT `+columns+` FROM customers WHERE lower(email)=lower($1)`, email)
}

func (r *Repository) one(ctx context.Context, q string, arg any) (customer.Customer, error) {
	c, err := scan(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, err
}

// List returns matching customers ordered by id.
func (r *Repository) List(ctx context.Context, f customer.Filter) ([]customer.Customer, error) {
	var (
		conds []string
		args  []any
	)
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if f.Tier != "" {
		args = append(args, string(f.Tier))
		conds = append(conds, fmt.Sprintf("tier=$%d", len(args)))
	}
	q := `SELECT ` + columns + ` FROM customers`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()
	out := []customer.Customer{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update replaces an existing customer.
func (r *Repository) Update(ctx context.Context, c customer.Customer) error {
	res, err := r.db.ExecContext(ctx, `UPDATE customers SET name=$2, email=$3, tier=$4, company=$5,
		is_active=$6, updated_at=$7 WHERE id=$1`,
		c.ID, c.Name, c.Email, string(c.Tier), c.Company, c.IsActive, c.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return customer.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (customer.Customer, error) {
	var (
		c       customer.Customer
		tier    string
		updated pq.NullTime
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &tier, &c.Company, &c.IsActive, &c.CreatedAt, &updated); err != nil {
		return customer.Customer{}, err
	}
	c.Tier = customer.Tier(tier)
	if updated.Valid {
		t := updated.Time
		c.UpdatedAt = &t
	}
	return c, nil
}
