// Package errors defines application error codes and helpers.
package errors

import (
	"fmt"
)

// AppError is an application error with a stable numeric code.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an application error.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with a code and message.
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage returns a copy with a different message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError returns a copy carrying the underlying error.
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// General errors (1000-1999)
var (
	ErrUnknown         = New(1000, "unknown error")
	ErrInvalidParams   = New(1001, "invalid parameters")
	ErrNotFound        = New(1002, "resource not found")
	ErrAlreadyExists   = New(1003, "resource already exists")
	ErrDatabaseError   = New(1004, "database error")
	ErrCacheError      = New(1005, "cache error")
	ErrInternalError   = New(1006, "internal error")
	ErrExternalService = New(1007, "external service error")
	ErrRateLimitExceed = New(1008, "too many requests")
	ErrNotConfigured   = New(1009, "service not configured")
)

// Auth errors (2000-2999)
var (
	ErrUnauthorized     = New(2000, "not signed in")
	ErrTokenExpired     = New(2001, "session expired")
	ErrTokenInvalid     = New(2002, "invalid token")
	ErrTokenRevoked     = New(2003, "session signed out")
	ErrPermissionDenied = New(2004, "permission denied")
	ErrAccountDisabled  = New(2005, "account disabled")
	ErrPasswordError    = New(2006, "wrong password")
	ErrAdminNotFound    = New(2007, "admin not found")
)

// Validation errors (3000-3999)
var (
	ErrNameRequired          = New(3000, "name is required")
	ErrNameTooLong           = New(3001, "name must be at most 100 characters")
	ErrPhoneInvalid          = New(3002, "enter a valid 10-digit Indian phone number")
	ErrTransactionIDRequired = New(3003, "transaction id is required")
)

// Coupon errors (4000-4999)
var (
	ErrCouponNotFound        = New(4000, "coupon not found")
	ErrCouponAlreadyRedeemed = New(4001, "coupon already redeemed")
	ErrCouponNotVerified     = New(4002, "payment not verified yet")
	ErrCouponCodeExhausted   = New(4003, "could not allocate a unique coupon code")
	ErrTransactionIDUsed     = New(4004, "transaction id already used")
	ErrInvalidQRPayload      = New(4005, "invalid QR code")
	ErrPaymentIDUsed         = New(4006, "payment id already used")
)

// Payment errors (5000-5999)
var (
	ErrGatewayNotConfigured = New(5000, "payment gateway not configured")
	ErrOrderCreateFailed    = New(5001, "failed to create payment order")
	ErrSignatureMismatch    = New(5002, "payment verification failed")
	ErrUPINotConfigured     = New(5003, "upi payments not configured")
)

// IsAppError reports whether err is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError converts err to an AppError, wrapping unknown errors.
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
