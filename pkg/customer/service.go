// Package customer manages the customer directory: account lookup, registration,
// tier changes and soft deletion.
package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/otel"
	"orderdesk/pkg/session"
)

// MaxListLimit caps List.
const MaxListLimit = 200

// CreateInput registers a new customer.
type CreateInput struct {
	Name    string
	Email   string
	Company string
}

// Patch changes selected fields. Nil fields are left alone.
type Patch struct {
	Name  *string
	Email *string
	Tier  *Tier
}

// Service is the customer directory.
type Service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates a Service over repo.
func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func notFound(id string) error {
	return apperr.Newf(apperr.NotFound, "CUSTOMER_NOT_FOUND", "Customer %s not found", id)
}

func denied() error {
	return apperr.New(apperr.AuthorizationDenied, "CUSTOMER_ACCESS_DENIED", "You do not have permission to access this customer")
}

func emailTaken(email string) error {
	return apperr.New(apperr.Conflict, "EMAIL_ALREADY_REGISTERED", "Email already registered").WithDetail("email", email)
}

// List returns customers. Administrators only.
func (s *Service) List(ctx context.Context, f Filter, acting session.Session) ([]Customer, error) {
	ctx, span := otel.AddSpan(ctx, "customer.List")
	defer span.End()

	if err := session.RequireAdmin(acting); err != nil {
		return nil, err
	}
	if f.Limit < 1 || f.Limit > MaxListLimit {
		return nil, apperr.Validation("limit", "limit must be between 1 and 200")
	}
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// Get returns a customer visible to acting: administrators see everyone, customers themselves.
func (s *Service) Get(ctx context.Context, id string, acting session.Session) (Customer, error) {
	ctx, span := otel.AddSpan(ctx, "customer.Get", attribute.String("customer_id", id))
	defer span.End()

	if !acting.IsAdmin && acting.UserID != id {
		return Customer{}, denied()
	}
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Customer{}, notFound(id)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("load customer %s: %w", id, err)
	}
	return c, nil
}

// Lookup finds an active customer by email, ignoring case. It backs login and performs
// no access check. ok is false when no active customer uses the email.
func (s *Service) Lookup(ctx context.Context, email string) (c Customer, ok bool, err error) {
	c, err = s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return Customer{}, false, nil
	}
	if err != nil {
		return Customer{}, false, fmt.Errorf("lookup customer by email: %w", err)
	}
	return c, c.IsActive, nil
}

// Create registers a standard-tier customer. Administrators only.
func (s *Service) Create(ctx context.Context, in CreateInput, acting session.Session) (Customer, error) {
	ctx, span := otel.AddSpan(ctx, "customer.Create")
	defer span.End()

	if err := session.RequireAdmin(acting); err != nil {
		return Customer{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 200 {
		return Customer{}, apperr.Validation("name", "name is required (max 200 characters)")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Customer{}, err
	}

	c := Customer{
		ID:        "cust_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Name:      name,
		Email:     email,
		Company:   strings.TrimSpace(in.Company),
		Tier:      TierStandard,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return Customer{}, emailTaken(email)
		}
		return Customer{}, fmt.Errorf("store customer: %w", err)
	}
	s.log.Info(ctx, "customer_created", "customer_id", c.ID)
	return c, nil
}

// Update applies p. Customers may change their own name and email; only
// administrators may change a tier.
func (s *Service) Update(ctx context.Context, id string, p Patch, acting session.Session) (Customer, error) {
	ctx, span := otel.AddSpan(ctx, "customer.Update", attribute.String("customer_id", id))
	defer span.End()

	c, err := s.Get(ctx, id, acting)
	if err != nil {
		return Customer{}, err
	}
	if p.Tier != nil && !acting.IsAdmin {
		return Customer{}, apperr.New(apperr.AuthorizationDenied, "ADMIN_REQUIRED", "Only administrators can change a customer tier")
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" || len(name) > 200 {
			return Customer{}, apperr.Validation("name", "name is required (max 200 characters)")
		}
		c.Name = name
	}
	if p.Email != nil {
		email, err := normalizeEmail(*p.Email)
		if err != nil {
			return Customer{}, err
		}
		c.Email = email
	}
	if p.Tier != nil {
		c.Tier = *p.Tier
	}
	now := s.now().UTC()
	c.UpdatedAt = &now

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return Customer{}, emailTaken(c.Email)
		}
		return Customer{}, fmt.Errorf("store customer: %w", err)
	}
	return c, nil
}

// Deactivate soft-deletes a customer. Administrators only.
func (s *Service) Deactivate(ctx context.Context, id string, acting session.Session) (Customer, error) {
	ctx, span := otel.AddSpan(ctx, "customer.Deactivate", attribute.String("customer_id", id))
	defer span.End()

	if err := session.RequireAdmin(acting); err != nil {
		return Customer{}, err
	}
	c, err := s.Get(ctx, id, acting)
	if err != nil {
		return Customer{}, err
	}
	c.IsActive = false
	now := s.now().UTC()
	c.UpdatedAt = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return Customer{}, fmt.Errorf("store customer: %w", err)
	}
	s.log.Info(ctx, "customer_deactivated", "customer_id", id)
	return c, nil
}

// DiscountRate returns the tier discount of a customer, zero when unknown.
func (s *Service) DiscountRate(ctx context.Context, id string) decimal.Decimal {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return decimal.Zero
	}
	return c.Tier.DiscountRate()
}

var validate = validator.New()

func normalizeEmail(v string) (string, error) {
	v = strings.TrimSpace(v)
	if err := validate.Var(v, "required,email,max=254"); err != nil {
		return "", apperr.Validation("email", "email must be a valid address")
	}
	return v, nil
}
