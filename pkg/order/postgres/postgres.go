// Package postgres persists orders in PostgreSQL through lib/pq.
//
// Items and the shipping address are stored as JSONB, money columns as NUMERIC.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"orderdesk/pkg/order"
)

const columns = `id, customer_id, status, items, subtotal, tax, shipping_cost, total,
	shipping_address, payment_id, refund_id, tracking_number, notes, created_at, updated_at`

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new order.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	items, addr, err := encode(o)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO orders (`+columns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.CustomerID, string(o.Status), items, o.Subtotal, o.Tax, o.ShippingCost, o.Total,
		addr, o.PaymentID, o.RefundID, o.TrackingNumber, o.Notes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM orders WHERE id=$1`, id)
	o, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

// List returns matching orders, newest first.
func (r *Repository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	if f.Offset < 0 {
		return nil, order.ErrNegativeOffset
	}
	where, args := whereClause(f)
	q := `SELECT ` + columns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()
	orders := []order.Order{}
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Count returns how many orders match f.
func (r *Repository) Count(ctx context.Context, f order.Filter) (int, error) {
	where, args := whereClause(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// Update replaces every mutable column of an existing order.
func (r *Repository) Update(ctx context.Context, o order.Order) error {
	items, addr, err := encode(o)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status=$2, items=$3, subtotal=$4, tax=$5,
		shipping_cost=$6, total=$7, shipping_address=$8, payment_id=$9, refund_id=$10,
		tracking_number=$11, notes=$12, updated_at=$13 WHERE id=$1`,
		o.ID, string(o.Status), items, o.Subtotal, o.Tax, o.ShippingCost, o.Total, addr,
		o.PaymentID, o.RefundID, o.TrackingNumber, o.Notes, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

func whereClause(f order.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func encode(o order.Order) (items, addr []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, fmt.Errorf("encode items: %w", err)
	}
	if addr, err = json.Marshal(o.ShippingAddress); err != nil {
		return nil, nil, fmt.Errorf("encode address: %w", err)
	}
	return items, addr, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (order.Order, error) {
	var (
		o           order.Order
		status      string
		items, addr []byte
	)
	err := s.Scan(&o.ID, &o.CustomerID, &status, &items, &o.Subtotal, &o.Tax, &o.ShippingCost, &o.Total,
		&addr, &o.PaymentID, &o.RefundID, &o.TrackingNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("decode items of %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return order.Order{}, fmt.Errorf("decode address of %s: %w", o.ID, err)
	}
	return o, nil
}
