package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"orderdesk/pkg/order"
)

var created = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func orderRow() []driver.Value {
	return []driver.Value{
		"ORD-ABC", "cust_001", "pending",
		[]byte(`[{"product_id":"prod_001","sku":"WIDGET-001","name":"Premium Widget","quantity":2,"unit_price":"99.99"}]`),
		"199.98", "15.9984", "8.99", "224.9684",
		[]byte(`{"street":"1 Main St","city":"Seattle","state":"WA","postal_code":"98101","country":"US"}`),
		"PAY-1", "", "", "", created, created,
	}
}

var columnNames = []string{
	"id", "customer_id", "status", "items", "subtotal", "tax", "shipping_cost", "total",
	"shipping_address", "payment_id", "refund_id", "tracking_number", "notes", "created_at", "updated_at",
}

func TestGetDecodesRow(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=$1")).
		WithArgs("ORD-ABC").
		WillReturnRows(sqlmock.NewRows(columnNames).AddRow(orderRow()...))

	o, err := repo.Get(context.Background(), "ORD-ABC")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if o.Status != order.StatusPending || len(o.Items) != 1 || o.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order %+v", o)
	}
	if !o.Total.Equal(decimal.RequireFromString("224.9684")) {
		t.Fatalf("total = %s", o.Total)
	}
	if o.ShippingAddress.State != "WA" {
		t.Fatalf("state = %q", o.ShippingAddress.State)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMissingIsErrNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=$1")).
		WithArgs("ORD-NONE").
		WillReturnRows(sqlmock.NewRows(columnNames))

	if _, err := repo.Get(context.Background(), "ORD-NONE"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateInsertsAllColumns(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("ORD-ABC", "cust_001", "pending",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "", "", "", "", created, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), order.Order{
		ID: "ORD-ABC", CustomerID: "cust_001", Status: order.StatusPending,
		CreatedAt: created, UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListBuildsFilterAndPaging(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE status=$1 AND customer_id=$2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4")).
		WithArgs("pending", "cust_001", 20, 20).
		WillReturnRows(sqlmock.NewRows(columnNames).AddRow(orderRow()...))

	orders, err := repo.List(context.Background(), order.Filter{
		Status: order.StatusPending, CustomerID: "cust_001", Offset: 20, Limit: 20,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "ORD-ABC" {
		t.Fatalf("unexpected orders %+v", orders)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountWithoutFilter(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), order.Filter{Limit: 5})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 7 {
		t.Fatalf("count = %d", n)
	}
}

func TestUpdateAndDeleteMissingRow(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE id=$1")).
		WithArgs("ORD-NONE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), order.Order{ID: "ORD-NONE"}); err != order.ErrNotFound {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "ORD-NONE"); err != order.ErrNotFound {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRejectsNegativeOffset(t *testing.T) {
	repo, mock := newMock(t)
	if _, err := repo.List(context.Background(), order.Filter{Offset: -1, Limit: 10}); !errors.Is(err, order.ErrNegativeOffset) {
		t.Fatalf("expected ErrNegativeOffset, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}
