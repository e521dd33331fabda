// Package apperrors defines the coded business errors the matching core
// and its ambient layers use for every reject path, grounded on
// exchange-common/pkg/errors and trimmed to what a single-instrument book
// actually produces.
package apperrors

import "fmt"

// Code identifies a reject reason. Callers branch on Code rather than on
// error text.
type Code string

const (
	CodeInvalidParam            Code = "INVALID_PARAM"
	CodeInvalidPrice            Code = "INVALID_PRICE"
	CodeInvalidQuantity         Code = "INVALID_QUANTITY"
	CodeSymbolNotFound          Code = "SYMBOL_NOT_FOUND"
	CodeOrderNotFound           Code = "ORDER_NOT_FOUND"
	CodeDuplicateOrderID        Code = "DUPLICATE_ORDER_ID"
	CodeDuplicateClientOrderID  Code = "DUPLICATE_CLIENT_ORDER_ID"
	CodeNoLiquidity             Code = "NO_LIQUIDITY"
	CodeInternal                Code = "INTERNAL"
)

// httpStatus mirrors exchange-common/pkg/errors's Code->status mapping,
// trimmed to the codes this package defines.
var httpStatus = map[Code]int{
	CodeInvalidParam:           400,
	CodeInvalidPrice:           400,
	CodeInvalidQuantity:        400,
	CodeSymbolNotFound:         404,
	CodeOrderNotFound:          404,
	CodeDuplicateOrderID:       409,
	CodeDuplicateClientOrderID: 409,
	CodeNoLiquidity:            422,
	CodeInternal:               500,
}

// Error is a coded, user-facing error. Matching-core rejects are always
// Error values so that engine.Result.Reject carries a stable code.
type Error struct {
	Code      Code
	Message   string
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the status code a transport layer should map this
// error to; unknown codes default to 500.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return 500
}

// New constructs an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Is supports errors.Is comparisons against a sentinel *Error (such as
// New(code, "")) by matching on Code equality rather than identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
