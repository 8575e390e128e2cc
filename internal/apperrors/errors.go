// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindInsufficientPoints Kind = "INSUFFICIENT_POINTS"
	KindInsufficientStock  Kind = "INSUFFICIENT_STOCK"
	KindOutOfStock         Kind = "OUT_OF_STOCK"
	KindAlreadyExists      Kind = "ALREADY_EXISTS"
	KindInvalidState       Kind = "INVALID_STATE"
	KindTransactionFailure Kind = "TRANSACTION_FAILURE"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrInsufficientPoints = &Error{Kind: KindInsufficientPoints}
	ErrInsufficientStock  = &Error{Kind: KindInsufficientStock}
	ErrOutOfStock         = &Error{Kind: KindOutOfStock}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
	ErrInvalidState       = &Error{Kind: KindInvalidState}
	ErrTransactionFailure = &Error{Kind: KindTransactionFailure}
)

// Error is the structured failure every core operation returns.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Validationf(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(resource string) *Error {
	return New(KindNotFound, resource+" not found")
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func InsufficientPoints(balance, required int64) *Error {
	return New(KindInsufficientPoints, fmt.Sprintf("insufficient curator points: have %d, need %d", balance, required))
}

func InsufficientStock(resource string) *Error {
	return New(KindInsufficientStock, resource+" has insufficient stock")
}

func OutOfStock(resource string) *Error {
	return New(KindOutOfStock, resource+" is out of stock")
}

func AlreadyExists(message string) *Error {
	return New(KindAlreadyExists, message)
}

func InvalidState(message string) *Error {
	return New(KindInvalidState, message)
}

// TransactionFailure wraps an unexpected storage error raised mid-transaction.
func TransactionFailure(err error) *Error {
	return &Error{Kind: KindTransactionFailure, Message: "transaction rolled back", Err: err}
}

// AsTransactionFailure passes domain errors through and wraps everything else.
func AsTransactionFailure(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return TransactionFailure(err)
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status the route layer should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInsufficientPoints, KindInsufficientStock, KindOutOfStock:
		return http.StatusUnprocessableEntity
	case KindAlreadyExists, KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
