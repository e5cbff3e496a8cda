package services

import (
	"errors"
	"sort"
)

// Domain errors. Their messages are safe to show to the client.
var (
	ErrConflict              = errors.New("User already exists")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("Invalid credentials")
	ErrUnverified            = errors.New("Please verify your email first")
	ErrNoPasswordSet         = errors.New("Please use Google login")
	ErrInvalidOrExpiredToken = errors.New("Invalid or expired token")
	ErrVerificationFailed    = errors.New("Payment verification failed")
	ErrEmptyCart             = errors.New("Your cart is empty")
	ErrGatewayUnavailable    = errors.New("Payment gateway unavailable, please try again")
)

// kindError carries a specific message while matching a general sentinel
// under errors.Is.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

var (
	ErrUserNotFound    error = &kindError{msg: "User not found", kind: ErrNotFound}
	ErrOrderNotFound   error = &kindError{msg: "Order not found", kind: ErrNotFound}
	ErrProductNotFound error = &kindError{msg: "Product not found", kind: ErrNotFound}
	errWrongPassword   error = &kindError{msg: "Incorrect password", kind: ErrInvalidCredentials}
)

// ValidationError reports malformed input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Error returns the message of the alphabetically first field, so the
// result is stable across calls.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "validation failed"
	}
	sort.Strings(keys)
	return e.Fields[keys[0]]
}
