// Package payment simulates the payment gateway used by the order lifecycle.
//
// Only Authorize is retried: up to three attempts with exponential backoff, and only
// when the gateway reports a *GatewayError. Every other failure surfaces immediately.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"orderdesk/pkg/logger"
	"orderdesk/pkg/metrics"
	"orderdesk/pkg/retry"
)

// GatewayError is a transient gateway failure eligible for retry.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return "payment gateway " + e.Op + ": " + e.Err.Error() }

func (e *GatewayError) Unwrap() error { return e.Err }

// IsGatewayError reports whether err is a retryable gateway failure.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

// Gateway is the transport to the payment provider.
type Gateway interface {
	Authorize(ctx context.Context, amount decimal.Decimal, customerID, orderID string) (string, error)
	Capture(ctx context.Context, paymentID string, amount *decimal.Decimal) (bool, error)
	Void(ctx context.Context, paymentID string) (bool, error)
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (string, error)
}

// SimulatedGateway approves every request.
type SimulatedGateway struct{}

// Authorize returns a fresh PAY- reference.
func (SimulatedGateway) Authorize(context.Context, decimal.Decimal, string, string) (string, error) {
	return "PAY-" + shortID(16), nil
}

// Capture always succeeds.
func (SimulatedGateway) Capture(context.Context, string, *decimal.Decimal) (bool, error) {
	return true, nil
}

// Void always succeeds.
func (SimulatedGateway) Void(context.Context, string) (bool, error) { return true, nil }

// Refund returns a fresh REF- reference.
func (SimulatedGateway) Refund(context.Context, string, decimal.Decimal, string) (string, error) {
	return "REF-" + shortID(12), nil
}

// DefaultAuthorizePolicy is the retry policy applied to Authorize.
func DefaultAuthorizePolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.Exponential(time.Second, 2*time.Second, 10*time.Second),
		Retryable:   IsGatewayError,
	}
}

// Status is the simulated state of a payment.
type Status struct {
	PaymentID string    `json:"payment_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Service fronts a Gateway with logging, metrics and the authorize retry policy.
type Service struct {
	gateway Gateway
	policy  retry.Policy
	timeout time.Duration
	log     *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGateway replaces the simulated gateway.
func WithGateway(g Gateway) Option { return func(s *Service) { s.gateway = g } }

// WithAuthorizePolicy replaces DefaultAuthorizePolicy.
func WithAuthorizePolicy(p retry.Policy) Option { return func(s *Service) { s.policy = p } }

// WithCallTimeout bounds every individual gateway call. Zero leaves calls unbounded.
func WithCallTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// New returns a Service using the simulated gateway unless overridden.
func New(log *logger.Logger, opts ...Option) *Service {
	s := &Service{gateway: SimulatedGateway{}, policy: DefaultAuthorizePolicy(), log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Authorize places a hold for amount and returns the payment reference.
// The call blocks for at most the sum of the policy's backoff delays plus gateway time.
func (s *Service) Authorize(ctx context.Context, amount decimal.Decimal, customerID, orderID string) (string, error) {
	s.log.Info(ctx, "authorizing_payment", "amount", amount.String(), "customer_id", customerID, "order_id", orderID)

	p := s.policy
	p.Notify = func(err error, wait time.Duration) {
		s.log.Warn(ctx, "payment_authorization_retry", "order_id", orderID, "error", err, "wait", wait)
	}
	id, err := retry.Do(ctx, p, func(ctx context.Context) (string, error) {
		ctx, cancel := s.callContext(ctx)
		defer cancel()
		id, err := s.gateway.Authorize(ctx, amount, customerID, orderID)
		metrics.RecordPaymentAttempt("authorize", err)
		return id, err
	})
	if err != nil {
		return "", fmt.Errorf("authorize payment for order %s: %w", orderID, err)
	}

	s.log.Info(ctx, "payment_authorized", "payment_id", id)
	return id, nil
}

// Capture settles an authorization. A nil amount captures the full authorized amount.
func (s *Service) Capture(ctx context.Context, paymentID string, amount *decimal.Decimal) (bool, error) {
	shown := "full"
	if amount != nil {
		shown = amount.String()
	}
	s.log.Info(ctx, "capturing_payment", "payment_id", paymentID, "amount", shown)
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	ok, err := s.gateway.Capture(callCtx, paymentID, amount)
	metrics.RecordPaymentAttempt("capture", err)
	return ok, err
}

// Void releases an authorization that was never captured.
func (s *Service) Void(ctx context.Context, paymentID string) (bool, error) {
	s.log.Info(ctx, "voiding_payment", "payment_id", paymentID)
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	ok, err := s.gateway.Void(callCtx, paymentID)
	metrics.RecordPaymentAttempt("void", err)
	return ok, err
}

// Refund returns amount to the customer and yields the refund reference.
func (s *Service) Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (string, error) {
	s.log.Info(ctx, "processing_refund", "payment_id", paymentID, "amount", amount.String(), "reason", reason)
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	id, err := s.gateway.Refund(callCtx, paymentID, amount, reason)
	metrics.RecordPaymentAttempt("refund", err)
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "refund_processed", "refund_id", id)
	return id, nil
}

// Status reports the simulated status of a payment.
func (s *Service) Status(_ context.Context, paymentID string) Status {
	return Status{PaymentID: paymentID, Status: "authorized", CreatedAt: time.Now().UTC()}
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func shortID(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:n]
}
