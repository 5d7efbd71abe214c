// Package order implements the order lifecycle: creation and pricing, access control,
// status transitions and cancellation.
//
// Creation persists the order in pending status before authorizing payment. If
// authorization fails the order stays stored as pending without a payment id and the
// caller receives PAYMENT_AUTH_FAILED.
package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/metrics"
	"orderdesk/pkg/otel"
	"orderdesk/pkg/session"
)

const (
	maxItems    = 50
	maxQuantity = 100
	maxNotes    = 500
	// priceScale is the number of decimal places a unit price may carry.
	priceScale = 2
)

// maxUnitPrice bounds a single unit price.
var maxUnitPrice = decimal.NewFromInt(1_000_000)

// Payments is the payment gateway as seen by the lifecycle.
type Payments interface {
	Authorize(ctx context.Context, amount decimal.Decimal, customerID, orderID string) (string, error)
	Capture(ctx context.Context, paymentID string, amount *decimal.Decimal) (bool, error)
	Void(ctx context.Context, paymentID string) (bool, error)
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (string, error)
}

// Products resolves catalog details for item validation.
type Products interface {
	// Describe returns the sku and name of an orderable product; ok is false if unknown.
	Describe(ctx context.Context, productID string) (sku, name string, ok bool)
}

// ItemInput is one requested line.
type ItemInput struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateInput is a request to place an order.
type CreateInput struct {
	CustomerID      string
	Items           []ItemInput
	ShippingAddress Address
	Notes           string
}

// ListInput selects a page of orders.
type ListInput struct {
	Status     Status
	CustomerID string
	Page       int
	PageSize   int
}

// Patch is a partial update of a pending order. Nil fields are left alone.
type Patch struct {
	ShippingAddress *Address
	Notes           *string
}

// TransitionInput carries optional data for a status change.
type TransitionInput struct {
	TrackingNumber string
	Reason         string
}

// Service runs the order lifecycle against a Repository and a payment gateway.
type Service struct {
	repo     Repository
	payments Payments
	products Products
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithProducts enables catalog validation of item product ids.
func WithProducts(p Products) Option { return func(s *Service) { s.products = p } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDGenerator replaces the ORD- id generator.
func WithIDGenerator(fn func() string) Option { return func(s *Service) { s.newID = fn } }

// NewService wires the lifecycle engine.
func NewService(repo Repository, payments Payments, log *logger.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, payments: payments, log: log, now: time.Now, newID: NewID}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewID returns "ORD-" followed by 12 upper-case hex characters.
func NewID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
}

func canAct(acting session.Session, customerID string) bool {
	return acting.IsAdmin || acting.UserID == customerID
}

// Create validates and prices the request, stores the order as pending and authorizes
// payment for its total.
func (s *Service) Create(ctx context.Context, in CreateInput, acting session.Session) (Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.Create", attribute.String("customer_id", in.CustomerID))
	defer span.End()

	s.log.Info(ctx, "creating_order", "customer_id", in.CustomerID, "item_count", len(in.Items))

	if !canAct(acting, in.CustomerID) {
		return Order{}, apperr.New(apperr.AuthorizationDenied, "UNAUTHORIZED_CUSTOMER",
			"You can only create orders for your own account")
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		return Order{}, apperr.Validation("customer_id", "customer_id is required")
	}
	items, err := s.buildItems(ctx, in.Items)
	if err != nil {
		return Order{}, err
	}
	addr, err := normalizeAddress(in.ShippingAddress)
	if err != nil {
		return Order{}, err
	}
	if len(in.Notes) > maxNotes {
		return Order{}, apperr.Validation("notes", "notes must be at most 500 characters")
	}

	totals := Price(items, addr)
	now := s.now().UTC()
	o := Order{
		ID:              s.newID(),
		CustomerID:      in.CustomerID,
		Items:           items,
		Status:          StatusPending,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCost:    totals.ShippingCost,
		Total:           totals.Total,
		ShippingAddress: addr,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return Order{}, fmt.Errorf("store order: %w", err)
	}
	metrics.RecordOrderEvent("created")

	paymentID, err := s.payments.Authorize(ctx, o.Total, o.CustomerID, o.ID)
	if err != nil {
		s.log.Error(ctx, "payment_authorization_failed", "order_id", o.ID, "error", err)
		metrics.RecordOrderEvent("payment_failed")
		return Order{}, apperr.New(apperr.PaymentAuthorizationFailed, "PAYMENT_AUTH_FAILED",
			"Payment authorization failed. Please try again.").WithDetail("order_id", o.ID)
	}
	o.PaymentID = paymentID
	o.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, o); err != nil {
		return Order{}, fmt.Errorf("store payment reference: %w", err)
	}

	s.log.Info(ctx, "order_created", "order_id", o.ID, "units", o.ItemCount(), "total", o.Total.String())
	return o, nil
}

func (s *Service) buildItems(ctx context.Context, in []ItemInput) ([]Item, error) {
	if len(in) == 0 {
		return nil, apperr.New(apperr.ValidationFailed, "EMPTY_ORDER", "Order must contain at least one item")
	}
	if len(in) > maxItems {
		return nil, apperr.Validation("items", "an order may contain at most 50 items")
	}
	items := make([]Item, 0, len(in))
	for i, it := range in {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, apperr.Validation(field+".product_id", "product_id is required")
		}
		if it.Quantity < 1 || it.Quantity > maxQuantity {
			return nil, apperr.Validation(field+".quantity", "quantity must be between 1 and 100")
		}
		if it.UnitPrice.IsNegative() {
			return nil, apperr.Validation(field+".unit_price", "unit_price must not be negative")
		}
		if !it.UnitPrice.Equal(it.UnitPrice.Truncate(priceScale)) {
			return nil, apperr.Validation(field+".unit_price", "unit_price may have at most 2 decimal places")
		}
		if it.UnitPrice.GreaterThan(maxUnitPrice) {
			return nil, apperr.Validation(field+".unit_price", "unit_price must not exceed 1000000")
		}
		item := Item{ProductID: it.ProductID, SKU: it.SKU, Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		if s.products != nil {
			sku, name, ok := s.products.Describe(ctx, it.ProductID)
			if !ok {
				return nil, apperr.Newf(apperr.ValidationFailed, "PRODUCT_NOT_FOUND", "Product %s does not exist", it.ProductID).
					WithDetail("field", field+".product_id")
			}
			if item.SKU == "" {
				item.SKU = sku
			}
			if item.Name == "" {
				item.Name = name
			}
		}
		if item.Name == "" {
			item.Name = "Unknown Product"
		}
		items = append(items, item)
	}
	return items, nil
}

func normalizeAddress(a Address) (Address, error) {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	switch {
	case a.Street == "" || len(a.Street) > 200:
		return a, apperr.Validation("shipping_address.street", "street is required (max 200 characters)")
	case a.City == "" || len(a.City) > 100:
		return a, apperr.Validation("shipping_address.city", "city is required (max 100 characters)")
	case len(a.State) < 2 || len(a.State) > 50:
		return a, apperr.Validation("shipping_address.state", "state must be 2 to 50 characters")
	case len(a.PostalCode) < 5 || len(a.PostalCode) > 20:
		return a, apperr.Validation("shipping_address.postal_code", "postal_code must be 5 to 20 characters")
	}
	if len(a.Name) > 100 || len(a.Phone) > 20 {
		return a, apperr.Validation("shipping_address", "name must be at most 100 and phone at most 20 characters")
	}
	if a.Country == "" {
		a.Country = "US"
	}
	if len(a.Country) > 2 {
		return a, apperr.Validation("shipping_address.country", "country must be a 2-letter code")
	}
	return a, nil
}

// Get returns the order if acting may see it.
func (s *Service) Get(ctx context.Context, id string, acting session.Session) (Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.Get", attribute.String("order_id", id))
	defer span.End()

	o, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Order{}, apperr.Newf(apperr.NotFound, "ORDER_NOT_FOUND", "Order %s not found", id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("load order %s: %w", id, err)
	}
	if !canAct(acting, o.CustomerID) {
		return Order{}, apperr.New(apperr.AuthorizationDenied, "ORDER_ACCESS_DENIED",
			"You do not have permission to view this order")
	}
	return o, nil
}

// List returns one page of orders, newest first, and the total number matching.
// Non-admin sessions only ever see their own orders, whatever CustomerID asks for.
func (s *Service) List(ctx context.Context, in ListInput, acting session.Session) ([]Order, int, error) {
	ctx, span := otel.AddSpan(ctx, "order.List")
	defer span.End()

	if in.Page < 1 {
		return nil, 0, apperr.Validation("page", "page must be at least 1")
	}
	if in.PageSize < 1 || in.PageSize > 100 {
		return nil, 0, apperr.Validation("page_size", "page_size must be between 1 and 100")
	}
	if in.Page-1 > math.MaxInt/in.PageSize {
		return nil, 0, apperr.Validation("page", "page is out of range")
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, 0, apperr.Validation("status", fmt.Sprintf("unknown order status %q", in.Status))
	}
	customerID := in.CustomerID
	if !acting.IsAdmin {
		customerID = acting.UserID
	}

	f := Filter{Status: in.Status, CustomerID: customerID, Offset: (in.Page - 1) * in.PageSize, Limit: in.PageSize}
	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	return orders, total, nil
}

// Update applies a patch to a pending order. A new address recomputes shipping and total.
func (s *Service) Update(ctx context.Context, id string, p Patch, acting session.Session) (Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.Update", attribute.String("order_id", id))
	defer span.End()

	o, err := s.Get(ctx, id, acting)
	if err != nil {
		return Order{}, err
	}
	if !o.Modifiable() {
		return Order{}, apperr.New(apperr.NotModifiable, "ORDER_NOT_MODIFIABLE", "Only pending orders can be modified").
			WithDetail("status", string(o.Status))
	}

	if p.ShippingAddress != nil {
		addr, err := normalizeAddress(*p.ShippingAddress)
		if err != nil {
			return Order{}, err
		}
		o.ShippingAddress = addr
		o.ShippingCost = ShippingCost(o.Items)
		o.Total = o.Subtotal.Add(o.Tax).Add(o.ShippingCost)
	}
	if p.Notes != nil {
		if len(*p.Notes) > maxNotes {
			return Order{}, apperr.Validation("notes", "notes must be at most 500 characters")
		}
		o.Notes = *p.Notes
	}
	o.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, o); err != nil {
		return Order{}, fmt.Errorf("store order: %w", err)
	}
	metrics.RecordOrderEvent("updated")
	return o, nil
}

// Cancel cancels a pending or confirmed order, voiding its payment authorization.
// A failed void is logged and does not block the cancellation.
func (s *Service) Cancel(ctx context.Context, id string, acting session.Session) (Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.Cancel", attribute.String("order_id", id))
	defer span.End()

	o, err := s.Get(ctx, id, acting)
	if err != nil {
		return Order{}, err
	}
	if !o.Cancellable() {
		return Order{}, apperr.Newf(apperr.CannotCancel, "ORDER_CANNOT_CANCEL", "Cannot cancel order in %s status", o.Status)
	}
	s.voidPayment(ctx, o)

	o.Status = StatusCancelled
	o.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, o); err != nil {
		return Order{}, fmt.Errorf("store order: %w", err)
	}
	metrics.RecordOrderEvent("status_" + string(StatusCancelled))
	s.log.Info(ctx, "order_cancelled", "order_id", id)
	return o, nil
}

func (s *Service) voidPayment(ctx context.Context, o Order) {
	if o.PaymentID == "" {
		return
	}
	ok, err := s.payments.Void(ctx, o.PaymentID)
	if err != nil || !ok {
		s.log.Warn(ctx, "payment_void_failed", "order_id", o.ID, "payment_id", o.PaymentID, "error", err)
	}
}

// Transition moves an order to another status. Administrators only.
//
// Shipping captures the payment and records a tracking number, cancelling voids the
// authorization and refunding returns the full total.
func (s *Service) Transition(ctx context.Context, id string, to Status, in TransitionInput, acting session.Session) (Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.Transition", attribute.String("order_id", id), attribute.String("to", string(to)))
	defer span.End()

	if err := session.RequireAdmin(acting); err != nil {
		return Order{}, err
	}
	if !to.Valid() {
		return Order{}, apperr.Validation("status", fmt.Sprintf("unknown order status %q", to))
	}
	o, err := s.Get(ctx, id, acting)
	if err != nil {
		return Order{}, err
	}
	if !IsLegal(o.Status, to) {
		return Order{}, apperr.Newf(apperr.InvalidTransition, "INVALID_TRANSITION",
			"Cannot move order from %s to %s", o.Status, to).
			WithDetail("from", string(o.Status)).
			WithDetail("to", string(to)).
			WithDetail("allowed", o.Status.Next())
	}

	switch to {
	case StatusCancelled:
		s.voidPayment(ctx, o)
	case StatusShipped:
		if o.PaymentID != "" {
			ok, err := s.payments.Capture(ctx, o.PaymentID, nil)
			if err != nil {
				return Order{}, fmt.Errorf("capture payment %s: %w", o.PaymentID, err)
			}
			if !ok {
				return Order{}, fmt.Errorf("capture payment %s: %w", o.PaymentID, ErrCaptureDeclined)
			}
		}
		o.TrackingNumber = in.TrackingNumber
		if o.TrackingNumber == "" {
			o.TrackingNumber = "TRK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
		}
	case StatusRefunded:
		if o.PaymentID != "" {
			reason := in.Reason
			if reason == "" {
				reason = "order refunded"
			}
			refundID, err := s.payments.Refund(ctx, o.PaymentID, o.Total, reason)
			if err != nil {
				return Order{}, fmt.Errorf("refund payment %s: %w", o.PaymentID, err)
			}
			o.RefundID = refundID
		}
	}

	from := o.Status
	o.Status = to
	o.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, o); err != nil {
		return Order{}, fmt.Errorf("store order: %w", err)
	}
	metrics.RecordOrderEvent("status_" + string(to))
	s.log.Info(ctx, "order_status_changed", "order_id", id, "from", string(from), "to", string(to))
	return o, nil
}
