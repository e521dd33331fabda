package apperrors

import (
	"errors"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	if got := New(CodeNoLiquidity, "x").HTTPStatus(); got != 422 {
		t.Fatalf("expected 422, got %d", got)
	}
	if got := New(Code("UNKNOWN_CODE"), "x").HTTPStatus(); got != 500 {
		t.Fatalf("expected unknown code to default to 500, got %d", got)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := Newf(CodeDuplicateOrderID, "order %d exists", 1)
	sentinel := New(CodeDuplicateOrderID, "")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected errors.Is to match on Code")
	}
	other := New(CodeInternal, "")
	if errors.Is(err, other) {
		t.Fatalf("expected errors.Is to not match a different Code")
	}
}
