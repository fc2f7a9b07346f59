package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeDependency, cause, "create order")
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if !err.Retryable() {
		t.Fatalf("dependency errors must be retryable")
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	inner := New(CodeEmptyCart, "cart is empty")
	wrapped := fmt.Errorf("submit: %w", inner)
	got := As(wrapped)
	if got == nil || got.Code() != CodeEmptyCart {
		t.Fatalf("expected EMPTY_CART, got %v", got)
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Fatalf("foreign errors map to internal")
	}
}

func TestMetadataFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("UNKNOWN"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
	if MetadataFor(CodeValidation).HTTPStatus != http.StatusBadRequest {
		t.Fatalf("validation should be 400")
	}
}
