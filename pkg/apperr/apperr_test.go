package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		NotFound:                   http.StatusNotFound,
		ValidationFailed:           http.StatusUnprocessableEntity,
		AuthenticationMissing:      http.StatusUnauthorized,
		AuthenticationInvalid:      http.StatusUnauthorized,
		AuthorizationDenied:        http.StatusForbidden,
		InvalidTransition:          http.StatusBadRequest,
		CannotCancel:               http.StatusBadRequest,
		PaymentAuthorizationFailed: http.StatusBadRequest,
		RateLimited:                http.StatusTooManyRequests,
		Internal:                   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := New(kind, "X", "x").Status; got != want {
			t.Fatalf("%s: status %d, want %d", kind, got, want)
		}
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	base := New(InvalidTransition, "INVALID_TRANSITION", "nope")
	wrapped := fmt.Errorf("transition: %w", base)

	if !IsKind(wrapped, InvalidTransition) {
		t.Fatal("expected wrapped error to match kind")
	}
	if IsKind(wrapped, NotFound) {
		t.Fatal("unexpected kind match")
	}
	if IsKind(errors.New("plain"), Internal) {
		t.Fatal("plain errors carry no kind")
	}
}

func TestValidationDetail(t *testing.T) {
	err := Validation("items", "order must contain at least one item")
	if err.Details["field"] != "items" {
		t.Fatalf("expected field detail, got %v", err.Details)
	}
}
