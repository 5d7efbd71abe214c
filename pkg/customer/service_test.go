package customer_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/customer"
	"orderdesk/pkg/customer/memory"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/session"
)

var (
	admin = session.Session{UserID: "admin_001", IsAdmin: true}
	acme  = session.Session{UserID: "cust_001", UserEmail: "orders@acme.com"}
)

func newService() *customer.Service {
	return customer.NewService(memory.New(customer.Seed(time.Now())...), logger.Nop())
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	c, err := svc.Create(ctx, customer.CreateInput{Name: "New Co", Email: "buyer@new.co"}, admin)
	require.NoError(t, err)
	assert.Regexp(t, `^cust_[0-9a-f]{8}$`, c.ID)
	assert.Equal(t, customer.TierStandard, c.Tier)
	assert.True(t, c.IsActive)

	_, err = svc.Create(ctx, customer.CreateInput{Name: "Copycat", Email: "ORDERS@acme.com"}, admin)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Conflict, e.Kind)
	assert.Equal(t, "EMAIL_ALREADY_REGISTERED", e.Code)

	_, err = svc.Create(ctx, customer.CreateInput{Name: "Bad", Email: "not-an-email"}, admin)
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))

	_, err = svc.Create(ctx, customer.CreateInput{Name: "Self", Email: "self@x.io"}, acme)
	assert.True(t, apperr.IsKind(err, apperr.AuthorizationDenied))
}

func TestGetIsSelfOrAdmin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	c, err := svc.Get(ctx, "cust_001", acme)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", c.DisplayName())

	_, err = svc.Get(ctx, "cust_002", acme)
	assert.True(t, apperr.IsKind(err, apperr.AuthorizationDenied))

	_, err = svc.Get(ctx, "cust_404", admin)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestUpdateTierIsAdminOnly(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	premium := customer.TierPremium
	name := "Acme Holdings"

	_, err := svc.Update(ctx, "cust_001", customer.Patch{Tier: &premium}, acme)
	assert.True(t, apperr.IsKind(err, apperr.AuthorizationDenied))

	c, err := svc.Update(ctx, "cust_001", customer.Patch{Name: &name}, acme)
	require.NoError(t, err)
	assert.Equal(t, name, c.Name)
	require.NotNil(t, c.UpdatedAt)

	c, err = svc.Update(ctx, "cust_001", customer.Patch{Tier: &premium}, admin)
	require.NoError(t, err)
	assert.True(t, svc.DiscountRate(ctx, "cust_001").Equal(decimal.RequireFromString("0.05")))

	taken := "bob.j@startup.io"
	_, err = svc.Update(ctx, "cust_001", customer.Patch{Email: &taken}, acme)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestDeactivateHidesFromLoginAndActiveList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Deactivate(ctx, "cust_002", acme)
	assert.True(t, apperr.IsKind(err, apperr.AuthorizationDenied))

	c, err := svc.Deactivate(ctx, "cust_002", admin)
	require.NoError(t, err)
	assert.False(t, c.IsActive)

	_, ok, err := svc.Lookup(ctx, "jane.smith@email.com")
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := svc.List(ctx, customer.Filter{ActiveOnly: true, Limit: 50}, admin)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := svc.List(ctx, customer.Filter{Limit: 50}, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3, "deactivation is a soft delete")

	_, err = svc.List(ctx, customer.Filter{Limit: 201}, admin)
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))
}

func TestTierDiscountRates(t *testing.T) {
	assert.True(t, customer.TierStandard.DiscountRate().IsZero())
	assert.True(t, customer.TierEnterprise.DiscountRate().Equal(decimal.RequireFromString("0.10")))

	tier, err := customer.ParseTier(" Premium ")
	require.NoError(t, err)
	assert.Equal(t, customer.TierPremium, tier)
	_, err = customer.ParseTier("gold")
	assert.Error(t, err)

	assert.True(t, newService().DiscountRate(context.Background(), "cust_404").IsZero())
}
