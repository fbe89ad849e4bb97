package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	// Auth errors.
	InvalidCredentials ErrorCode = "invalid_credentials"
	TokenExpired       ErrorCode = "token_expired"
	TokenMalformed     ErrorCode = "token_malformed"
	Unauthenticated    ErrorCode = "unauthenticated"
	Forbidden          ErrorCode = "forbidden"

	// Ledger errors.
	AccountNotFound     ErrorCode = "account_not_found"
	InsufficientFunds   ErrorCode = "insufficient_funds"
	InvalidAmount       ErrorCode = "invalid_amount"
	SameAccountTransfer ErrorCode = "same_account_transfer"
	InactiveAccount     ErrorCode = "inactive_account"

	// Store / operational errors.
	StoreUnavailable ErrorCode = "store_unavailable"
	Busy             ErrorCode = "busy"

	InvalidInput  ErrorCode = "invalid_input"
	InternalError ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps error codes to HTTP statuses. Business rejections stay in
// the 4xx range; operational faults (store down, lock contention) surface as
// 503 so clients can distinguish "rejected" from "degraded".
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidCredentials, TokenExpired, TokenMalformed, Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden, InactiveAccount:
		return http.StatusForbidden
	case AccountNotFound:
		return http.StatusNotFound
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case InvalidAmount, SameAccountTransfer, InvalidInput:
		return http.StatusBadRequest
	case StoreUnavailable, Busy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidCredentials  = NewAppError(InvalidCredentials, "invalid credentials")
	ErrTokenExpired        = NewAppError(TokenExpired, "token has expired")
	ErrTokenMalformed      = NewAppError(TokenMalformed, "token is malformed or has an invalid signature")
	ErrUnauthenticated     = NewAppError(Unauthenticated, "authentication required")
	ErrAccountNotFound     = NewAppError(AccountNotFound, "account not found")
	ErrInsufficientFunds   = NewAppError(InsufficientFunds, "insufficient funds")
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be greater than zero")
	ErrSameAccountTransfer = NewAppError(SameAccountTransfer, "source and destination accounts are the same")
	ErrInactiveAccount     = NewAppError(InactiveAccount, "account is inactive")
	ErrStoreUnavailable    = NewAppError(StoreUnavailable, "account store is unavailable")
	ErrBusy                = NewAppError(Busy, "ledger is busy, try again later")
)
