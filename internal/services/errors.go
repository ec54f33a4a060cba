package services

import "errors"

// Storefront errors. Services wrap them with detail via fmt.Errorf("%w: ...")
// and handlers map them to status codes with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrForbidden          = errors.New("forbidden")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrCouponInvalid      = errors.New("coupon is invalid or expired")
	ErrLLMUnavailable     = errors.New("description generator is not configured")
)

// Password reset errors. Each maps to its own user-facing message; none of
// them reveals the code or whether the email has an account.
var (
	ErrResetRateLimited      = errors.New("too many code requests, please try again after 15 minutes")
	ErrResetNotFound         = errors.New("no active reset request, please request a new code")
	ErrResetExpired          = errors.New("the code has expired, please request a new one")
	ErrResetAttemptsExceeded = errors.New("too many incorrect attempts, please request a new code")
	ErrResetInvalidCode      = errors.New("the code is incorrect")
	ErrResetPasswordMismatch = errors.New("new password and confirmation do not match")
	ErrResetNotVerified      = errors.New("the reset code has not been verified")
)
