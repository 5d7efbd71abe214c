package order_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/order/memory"
	"orderdesk/pkg/session"
)

type fakePayments struct {
	authErr         error
	captureErr      error
	captureDeclined bool
	voidErr         error
	authorized []string
	captured   []string
	voided     []string
	refunded   []decimal.Decimal
}

func (p *fakePayments) Authorize(_ context.Context, _ decimal.Decimal, _, orderID string) (string, error) {
	if p.authErr != nil {
		return "", p.authErr
	}
	p.authorized = append(p.authorized, orderID)
	return fmt.Sprintf("PAY-%d", len(p.authorized)), nil
}

func (p *fakePayments) Capture(_ context.Context, id string, _ *decimal.Decimal) (bool, error) {
	if p.captureErr != nil {
		return false, p.captureErr
	}
	if p.captureDeclined {
		return false, nil
	}
	p.captured = append(p.captured, id)
	return true, nil
}

func (p *fakePayments) Void(_ context.Context, id string) (bool, error) {
	if p.voidErr != nil {
		return false, p.voidErr
	}
	p.voided = append(p.voided, id)
	return true, nil
}

func (p *fakePayments) Refund(_ context.Context, _ string, amount decimal.Decimal, _ string) (string, error) {
	p.refunded = append(p.refunded, amount)
	return "REF-1", nil
}

type catalog map[string][2]string

func (c catalog) Describe(_ context.Context, id string) (string, string, bool) {
	v, ok := c[id]
	return v[0], v[1], ok
}

var (
	customer = session.Session{UserID: "cust_001", UserEmail: "orders@acme.com"}
	other    = session.Session{UserID: "cust_002", UserEmail: "jane@example.com"}
	admin    = session.Session{UserID: "admin_001", UserEmail: "admin@example.com", IsAdmin: true}
)

func newService(t *testing.T, opts ...order.Option) (*order.Service, *memory.Repository, *fakePayments) {
	t.Helper()
	repo := memory.New()
	pay := &fakePayments{}
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	opts = append([]order.Option{
		order.WithClock(func() time.Time { now = now.Add(time.Second); return now }),
		order.WithIDGenerator(func() string { n++; return fmt.Sprintf("ORD-%012d", n) }),
	}, opts...)
	return order.NewService(repo, pay, logger.Nop(), opts...), repo, pay
}

func widgetOrder(customerID string) order.CreateInput {
	return order.CreateInput{
		CustomerID: customerID,
		Items: []order.ItemInput{{
			ProductID: "prod_001", SKU: "WIDGET-001", Name: "Premium Widget",
			Quantity: 2, UnitPrice: decimal.RequireFromString("99.99"),
		}},
		ShippingAddress: order.Address{Street: "1 Main St", City: "Seattle", State: "WA", PostalCode: "98101"},
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, kind, e.Kind)
	assert.Equal(t, code, e.Code)
}

func TestCreatePricesAndAuthorizes(t *testing.T) {
	svc, repo, pay := newService(t)
	o, err := svc.Create(context.Background(), widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("199.98")))
	assert.True(t, o.Tax.Equal(decimal.RequireFromString("15.9984")))
	assert.True(t, o.ShippingCost.Equal(decimal.RequireFromString("8.99")))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("224.9684")))
	assert.Equal(t, "US", o.ShippingAddress.Country)
	assert.Equal(t, "PAY-1", o.PaymentID)
	assert.Equal(t, []string{o.ID}, pay.authorized)

	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAY-1", stored.PaymentID)
}

func TestNewIDFormat(t *testing.T) {
	assert.Regexp(t, `^ORD-[0-9A-F]{12}$`, order.NewID())
}

func TestCreateRejectsOtherCustomer(t *testing.T) {
	svc, repo, _ := newService(t)
	_, err := svc.Create(context.Background(), widgetOrder("cust_002"), customer)
	requireKind(t, err, apperr.AuthorizationDenied, "UNAUTHORIZED_CUSTOMER")

	n, _ := repo.Count(context.Background(), order.Filter{})
	assert.Zero(t, n)

	_, err = svc.Create(context.Background(), widgetOrder("cust_002"), admin)
	assert.NoError(t, err, "admins may order on behalf of any customer")
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	in := widgetOrder("cust_001")
	in.Items = nil
	_, err := svc.Create(ctx, in, customer)
	requireKind(t, err, apperr.ValidationFailed, "EMPTY_ORDER")

	in = widgetOrder("cust_001")
	in.Items[0].Quantity = 0
	_, err = svc.Create(ctx, in, customer)
	requireKind(t, err, apperr.ValidationFailed, "VALIDATION_FAILED")

	in = widgetOrder("cust_001")
	in.Items[0].UnitPrice = decimal.RequireFromString("-1")
	_, err = svc.Create(ctx, in, customer)
	requireKind(t, err, apperr.ValidationFailed, "VALIDATION_FAILED")

	for _, price := range []string{"0.000048", "19.999", "1000000.01"} {
		in = widgetOrder("cust_001")
		in.Items[0].UnitPrice = decimal.RequireFromString(price)
		_, err = svc.Create(ctx, in, customer)
		requireKind(t, err, apperr.ValidationFailed, "VALIDATION_FAILED")
	}

	in = widgetOrder("cust_001")
	in.Items[0].UnitPrice = decimal.RequireFromString("1000000.00")
	_, err = svc.Create(ctx, in, customer)
	require.NoError(t, err)

	in = widgetOrder("cust_001")
	in.ShippingAddress.PostalCode = "123"
	_, err = svc.Create(ctx, in, customer)
	requireKind(t, err, apperr.ValidationFailed, "VALIDATION_FAILED")

	in = widgetOrder("cust_001")
	in.Items[0].Name = ""
	o, err := svc.Create(ctx, in, customer)
	require.NoError(t, err)
	assert.Equal(t, "Unknown Product", o.Items[0].Name)
}

func TestCreateFillsFromCatalog(t *testing.T) {
	svc, _, _ := newService(t, order.WithProducts(catalog{"prod_001": {"WIDGET-001", "Premium Widget"}}))
	ctx := context.Background()

	in := widgetOrder("cust_001")
	in.Items[0].SKU, in.Items[0].Name = "", ""
	o, err := svc.Create(ctx, in, customer)
	require.NoError(t, err)
	assert.Equal(t, "WIDGET-001", o.Items[0].SKU)
	assert.Equal(t, "Premium Widget", o.Items[0].Name)

	in.Items[0].ProductID = "prod_999"
	_, err = svc.Create(ctx, in, customer)
	requireKind(t, err, apperr.ValidationFailed, "PRODUCT_NOT_FOUND")
}

func TestCreateKeepsPendingOrderWhenPaymentFails(t *testing.T) {
	svc, repo, pay := newService(t)
	pay.authErr = errors.New("gateway down")

	_, err := svc.Create(context.Background(), widgetOrder("cust_001"), customer)
	requireKind(t, err, apperr.PaymentAuthorizationFailed, "PAYMENT_AUTH_FAILED")
	e, _ := apperr.As(err)
	orderID, _ := e.Details["order_id"].(string)
	require.NotEmpty(t, orderID)

	stored, err := repo.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Empty(t, stored.PaymentID)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	_, err = svc.Get(ctx, o.ID, other)
	requireKind(t, err, apperr.AuthorizationDenied, "ORDER_ACCESS_DENIED")

	_, err = svc.Get(ctx, o.ID, admin)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "ORD-MISSING", customer)
	requireKind(t, err, apperr.NotFound, "ORDER_NOT_FOUND")
}

func TestListScopesNonAdmins(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, widgetOrder("cust_002"), other)
	require.NoError(t, err)

	orders, total, err := svc.List(ctx, order.ListInput{CustomerID: "cust_002", Page: 1, PageSize: 2}, customer)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "customer_id filter is ignored for non-admins")
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "cust_001", o.CustomerID)
	}
	assert.True(t, orders[0].CreatedAt.After(orders[1].CreatedAt))

	_, total, err = svc.List(ctx, order.ListInput{Page: 1, PageSize: 20}, admin)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	_, total, err = svc.List(ctx, order.ListInput{CustomerID: "cust_002", Page: 1, PageSize: 20}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, _, err = svc.List(ctx, order.ListInput{Page: 0, PageSize: 20}, admin)
	requireKind(t, err, apperr.ValidationFailed, "VALIDATION_FAILED")
	_, _, err = svc.List(ctx, order.ListInput{Page: 1, PageSize: 101}, admin)
	requireKind(t, err, apperr.ValidationFailed, "VALIDATION_FAILED")
}

func TestUpdatePendingOnly(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	notes := "leave at the door"
	addr := order.Address{Street: "9 Elm St", City: "Portland", State: "OR", PostalCode: "97201"}
	updated, err := svc.Update(ctx, o.ID, order.Patch{ShippingAddress: &addr, Notes: &notes}, customer)
	require.NoError(t, err)
	assert.Equal(t, "Portland", updated.ShippingAddress.City)
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.Total.Equal(updated.Subtotal.Add(updated.Tax).Add(updated.ShippingCost)))
	assert.True(t, updated.UpdatedAt.After(o.UpdatedAt))

	_, err = svc.Transition(ctx, o.ID, order.StatusConfirmed, order.TransitionInput{}, admin)
	require.NoError(t, err)
	_, err = svc.Update(ctx, o.ID, order.Patch{Notes: &notes}, customer)
	requireKind(t, err, apperr.NotModifiable, "ORDER_NOT_MODIFIABLE")
}

func TestCancelPendingThenAgain(t *testing.T) {
	svc, _, pay := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, o.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Equal(t, []string{"PAY-1"}, pay.voided)

	_, err = svc.Cancel(ctx, o.ID, customer)
	requireKind(t, err, apperr.CannotCancel, "ORDER_CANNOT_CANCEL")
	e, _ := apperr.As(err)
	assert.Equal(t, "Cannot cancel order in cancelled status", e.Message)
}

func TestShippedOrderCannotBeCancelled(t *testing.T) {
	svc, _, pay := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	for _, to := range []order.Status{order.StatusConfirmed, order.StatusProcessing, order.StatusShipped} {
		o, err = svc.Transition(ctx, o.ID, to, order.TransitionInput{}, admin)
		require.NoError(t, err)
	}
	assert.Regexp(t, `^TRK-[0-9A-F]{12}$`, o.TrackingNumber)
	assert.Equal(t, []string{"PAY-1"}, pay.captured)

	_, err = svc.Cancel(ctx, o.ID, customer)
	requireKind(t, err, apperr.CannotCancel, "ORDER_CANNOT_CANCEL")

	_, err = svc.Transition(ctx, o.ID, order.StatusCancelled, order.TransitionInput{}, admin)
	requireKind(t, err, apperr.InvalidTransition, "INVALID_TRANSITION")
	e, _ := apperr.As(err)
	assert.Equal(t, "shipped", e.Details["from"])
	assert.Equal(t, "cancelled", e.Details["to"])
}

func TestTransitionRequiresAdmin(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, o.ID, order.StatusConfirmed, order.TransitionInput{}, customer)
	requireKind(t, err, apperr.AuthorizationDenied, "ADMIN_REQUIRED")
}

func TestTransitionShipAndRefund(t *testing.T) {
	svc, _, pay := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	o, _ = svc.Transition(ctx, o.ID, order.StatusConfirmed, order.TransitionInput{}, admin)
	o, _ = svc.Transition(ctx, o.ID, order.StatusProcessing, order.TransitionInput{}, admin)
	o, err = svc.Transition(ctx, o.ID, order.StatusShipped, order.TransitionInput{TrackingNumber: "1Z999"}, admin)
	require.NoError(t, err)
	assert.Equal(t, "1Z999", o.TrackingNumber)

	o, err = svc.Transition(ctx, o.ID, order.StatusDelivered, order.TransitionInput{}, admin)
	require.NoError(t, err)
	o, err = svc.Transition(ctx, o.ID, order.StatusRefunded, order.TransitionInput{Reason: "damaged"}, admin)
	require.NoError(t, err)
	assert.Equal(t, "REF-1", o.RefundID)
	require.Len(t, pay.refunded, 1)
	assert.True(t, pay.refunded[0].Equal(o.Total))

	_, err = svc.Transition(ctx, o.ID, order.StatusPending, order.TransitionInput{}, admin)
	requireKind(t, err, apperr.InvalidTransition, "INVALID_TRANSITION")
}

func TestFailedCaptureLeavesStatus(t *testing.T) {
	svc, repo, pay := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)
	o, _ = svc.Transition(ctx, o.ID, order.StatusConfirmed, order.TransitionInput{}, admin)
	o, _ = svc.Transition(ctx, o.ID, order.StatusProcessing, order.TransitionInput{}, admin)

	pay.captureErr = errors.New("declined")
	_, err = svc.Transition(ctx, o.ID, order.StatusShipped, order.TransitionInput{}, admin)
	require.Error(t, err)

	stored, _ := repo.Get(ctx, o.ID)
	assert.Equal(t, order.StatusProcessing, stored.Status)
}

func TestListRejectsPageBeyondOffsetRange(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	_, _, err = svc.List(ctx, order.ListInput{Page: math.MaxInt/100 + 2, PageSize: 100}, admin)
	requireKind(t, err, apperr.ValidationFailed, "VALIDATION_FAILED")

	found, total, err := svc.List(ctx, order.ListInput{Page: math.MaxInt/100 + 1, PageSize: 100}, admin)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 1, total)
}

func TestCancelSucceedsWhenVoidFails(t *testing.T) {
	svc, repo, pay := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)

	pay.voidErr = errors.New("gateway unavailable")
	cancelled, err := svc.Cancel(ctx, o.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Empty(t, pay.voided)

	stored, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, stored.Status)
}

func TestDeclinedCaptureDoesNotShip(t *testing.T) {
	svc, repo, pay := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)
	o, _ = svc.Transition(ctx, o.ID, order.StatusConfirmed, order.TransitionInput{}, admin)
	o, _ = svc.Transition(ctx, o.ID, order.StatusProcessing, order.TransitionInput{}, admin)

	pay.captureDeclined = true
	_, err = svc.Transition(ctx, o.ID, order.StatusShipped, order.TransitionInput{}, admin)
	require.ErrorIs(t, err, order.ErrCaptureDeclined)

	stored, _ := repo.Get(ctx, o.ID)
	assert.Equal(t, order.StatusProcessing, stored.Status)
	assert.Empty(t, stored.TrackingNumber)
}

func TestInvalidTransitionListsAllowedStatuses(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, widgetOrder("cust_001"), customer)
	require.NoError(t, err)
	assert.Equal(t, 2, o.ItemCount())

	_, err = svc.Transition(ctx, o.ID, order.StatusDelivered, order.TransitionInput{}, admin)
	requireKind(t, err, apperr.InvalidTransition, "INVALID_TRANSITION")
	e, _ := apperr.As(err)
	assert.Equal(t, []order.Status{order.StatusConfirmed, order.StatusCancelled}, e.Details["allowed"])
}
