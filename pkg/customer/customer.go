package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tier drives pricing and features for a customer account.
type Tier string

const (
	TierStandard   Tier = "standard"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

var discountRates = map[Tier]decimal.Decimal{
	TierStandard:   decimal.Zero,
	TierPremium:    decimal.RequireFromString("0.05"),
	TierEnterprise: decimal.RequireFromString("0.10"),
}

// ParseTier accepts a tier name in any case.
func ParseTier(v string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := discountRates[t]; !ok {
		return "", fmt.Errorf("unknown customer tier %q", v)
	}
	return t, nil
}

// DiscountRate is the fraction taken off list prices for the tier.
func (t Tier) DiscountRate() decimal.Decimal {
	if r, ok := discountRates[t]; ok {
		return r
	}
	return decimal.Zero
}

// Customer is an account that places orders.
type Customer struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Tier      Tier       `json:"tier"`
	Company   string     `json:"company,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// DisplayName is the company name when set, otherwise the customer name.
func (c Customer) DisplayName() string {
	if c.Company != "" {
		return c.Company
	}
	return c.Name
}

// Filter narrows List. A zero Limit means no limit.
type Filter struct {
	Tier       Tier
	ActiveOnly bool
	Limit      int
}

// Repository defines behavior for persisting customers.
// Emails are unique ignoring case; implementations return ErrDuplicateEmail on collision.
type Repository interface {
	Create(ctx context.Context, c Customer) error
	Get(ctx context.Context, id string) (Customer, error)
	GetByEmail(ctx context.Context, email string) (Customer, error)
	// List returns matching customers ordered by id.
	List(ctx context.Context, f Filter) ([]Customer, error)
	Update(ctx context.Context, c Customer) error
}

var (
	// ErrNotFound indicates the requested customer does not exist.
	ErrNotFound = errors.New("customer not found")
	// ErrDuplicateEmail indicates another customer already uses the email.
	ErrDuplicateEmail = errors.New("customer email already registered")
)

// Seed returns the accounts every fresh in-memory directory starts with.
func Seed(now time.Time) []Customer {
	return []Customer{
		{ID: "cust_001", Name: "Acme Corporation", Email: "orders@acme.com", Company: "Acme Corp", Tier: TierEnterprise, IsActive: true, CreatedAt: now},
		{ID: "cust_002", Name: "Jane Smith", Email: "jane.smith@email.com", Tier: TierStandard, IsActive: true, CreatedAt: now},
		{ID: "cust_003", Name: "Bob Johnson", Email: "bob.j@startup.io", Company: "StartupIO", Tier: TierPremium, IsActive: true, CreatedAt: now},
	}
}
