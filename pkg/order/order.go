package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a customer purchase order.
// Invariant: Total = Subtotal + Tax + ShippingCost.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	Items           []Item          `json:"items"`
	Status          Status          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentID       string          `json:"payment_id,omitempty"`
	RefundID        string          `json:"refund_id,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ItemCount is the total quantity across all items.
func (o Order) ItemCount() int {
	return countUnits(o.Items)
}

// Cancellable reports whether the order may still be cancelled by its customer.
func (o Order) Cancellable() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// Modifiable reports whether the order may still be edited.
func (o Order) Modifiable() bool {
	return o.Status == StatusPending
}

// Item is one line of an order.
type Item struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// TotalPrice is UnitPrice × Quantity.
func (i Item) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Address is where an order ships to.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Filter narrows List and Count. Zero values match everything; Limit 0 means no limit.
type Filter struct {
	Status     Status
	CustomerID string
	Offset     int
	Limit      int
}

// Repository defines behavior for persisting orders.
//
// Implementations serialise individual calls only. Two callers mutating the same order
// concurrently (for example cancelling while updating the address) is undefined: the
// last Update wins and neither caller is told.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, f Filter) ([]Order, error)
	// Count ignores Offset and Limit.
	Count(ctx context.Context, f Filter) (int, error)
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNegativeOffset is returned by List when Filter.Offset is below zero.
	ErrNegativeOffset = errors.New("negative list offset")
	// ErrCaptureDeclined is returned when the gateway reports a capture as unsuccessful.
	ErrCaptureDeclined = errors.New("payment capture declined")
)
