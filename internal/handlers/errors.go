package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"storefront/internal/services"
	"storefront/internal/utils"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrResetRateLimited, http.StatusTooManyRequests},
	{services.ErrResetNotFound, http.StatusNotFound},
	{services.ErrResetExpired, http.StatusGone},
	{services.ErrResetAttemptsExceeded, http.StatusTooManyRequests},
	{services.ErrResetInvalidCode, http.StatusBadRequest},
	{services.ErrResetPasswordMismatch, http.StatusBadRequest},
	{services.ErrResetNotVerified, http.StatusForbidden},
	{services.ErrWeakPassword, http.StatusBadRequest},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrAlreadyExists, http.StatusConflict},
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrAccountBlocked, http.StatusForbidden},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrOutOfStock, http.StatusConflict},
	{services.ErrEmptyCart, http.StatusBadRequest},
	{services.ErrInvalidTransition, http.StatusConflict},
	{services.ErrCouponInvalid, http.StatusBadRequest},
	{services.ErrLLMUnavailable, http.StatusServiceUnavailable},
}

// writeServiceError maps a service error to its status code. Unknown errors
// are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			utils.SendJSONError(w, err.Error(), e.status)
			return
		}
	}
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Unhandled service error")
	utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
}
