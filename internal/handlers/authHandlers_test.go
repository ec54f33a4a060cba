package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/services"
)

type stubResetService struct {
	requested []string
	verifyErr error
	resetErr  error
	gotOTP    string
	gotRef    string
}

func (s *stubResetService) RequestReset(ctx context.Context, email string) (*models.RequestResetResponse, error) {
	s.requested = append(s.requested, email)
	if email == "flood@x.com" {
		return nil, fmt.Errorf("%w: flood@x.com", services.ErrResetRateLimited)
	}
	return &models.RequestResetResponse{
		Reference: "QX7P2K",
		ExpiresAt: time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC),
		Message:   "If an account exists for this email, a verification code has been sent.",
	}, nil
}

func (s *stubResetService) VerifyOTP(ctx context.Context, email, otp, reference string) error {
	s.gotOTP, s.gotRef = otp, reference
	return s.verifyErr
}

func (s *stubResetService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	return s.resetErr
}

func (s *stubResetService) WaitForDeliveries() {}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestRequestPasswordReset(t *testing.T) {
	svc := &stubResetService{}
	h := NewAuthHandler(nil, svc)

	rr := post(t, h.RequestPasswordReset, `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "QX7P2K", body["reference"])
	assert.Equal(t, "2024-03-01T09:10:00Z", body["expires_at"])
	assert.Contains(t, body["message"], "verification code")

	rr = post(t, h.RequestPasswordReset, `{"email":"flood@x.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "15 minutes")
}

func TestRequestPasswordResetValidatesEmail(t *testing.T) {
	svc := &stubResetService{}
	h := NewAuthHandler(nil, svc)

	for _, body := range []string{`{"email":"not-an-email"}`, `{}`, `{"email":`} {
		rr := post(t, h.RequestPasswordReset, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Empty(t, svc.requested)
}

func TestVerifyOTPStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", services.ErrResetNotFound, http.StatusNotFound},
		{"expired", services.ErrResetExpired, http.StatusGone},
		{"attempts", services.ErrResetAttemptsExceeded, http.StatusTooManyRequests},
		{"invalid", services.ErrResetInvalidCode, http.StatusBadRequest},
		{"store down", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubResetService{verifyErr: tt.err}
			h := NewAuthHandler(nil, svc)
			rr := post(t, h.VerifyOTP, `{"email":"a@x.com","otp":"482913","reference":"QX7P2K"}`)
			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, "482913", svc.gotOTP)
			assert.Equal(t, "QX7P2K", svc.gotRef)
		})
	}
}

func TestVerifyOTPRejectsNonNumericCode(t *testing.T) {
	h := NewAuthHandler(nil, &stubResetService{})
	rr := post(t, h.VerifyOTP, `{"email":"a@x.com","otp":"48a913"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResetPasswordStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"mismatch", services.ErrResetPasswordMismatch, http.StatusBadRequest},
		{"weak", services.ErrWeakPassword, http.StatusBadRequest},
		{"not verified", services.ErrResetNotVerified, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(nil, &stubResetService{resetErr: tt.err})
			rr := post(t, h.ResetPassword, `{"email":"a@x.com","new_password":"Secret1!","confirm_password":"Secret1!"}`)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestWriteServiceErrorHidesUnknownErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rr := httptest.NewRecorder()
	writeServiceError(rr, req, errors.New("mongo: server selection timeout at 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rr)["error"])
}

func TestWriteServiceErrorUnwraps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	writeServiceError(rr, req, fmt.Errorf("checkout: %w", fmt.Errorf("%w: Mug", services.ErrOutOfStock)))
	assert.Equal(t, http.StatusConflict, rr.Code)
}
