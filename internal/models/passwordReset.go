package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetState is the lifecycle position of a password reset record. A missing
// record is ResetStateNoRequest; it is never persisted.
type ResetState string

const (
	ResetStateNoRequest ResetState = "none"
	ResetStateRequested ResetState = "requested"
	ResetStateVerified  ResetState = "verified"
)

// VerifyStatus is the outcome of checking a record before a code comparison.
type VerifyStatus int

const (
	VerifyReady VerifyStatus = iota
	VerifyNotFound
	VerifyExpired
	VerifyAttemptsExceeded
	VerifyAlreadyVerified
)

type PasswordReset struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email              string             `bson:"email" json:"email"`
	OTPHash            string             `bson:"otp_hash" json:"-"`
	Reference          string             `bson:"reference" json:"reference"`
	State              ResetState         `bson:"state" json:"state"`
	ExpiresAt          time.Time          `bson:"expires_at" json:"expires_at"`
	RequestCount       int                `bson:"request_count" json:"-"`
	RequestWindowStart time.Time          `bson:"request_window_start" json:"-"`
	AttemptCount       int                `bson:"attempt_count" json:"-"`
	VerifiedAt         *time.Time         `bson:"verified_at,omitempty" json:"-"`
	PurgeAt            time.Time          `bson:"purge_at" json:"-"`
	CreatedAt          time.Time          `bson:"created_at" json:"-"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"-"`
}

// CurrentState treats a nil record, or one that was only counted against the
// request window, as having no active request.
func (p *PasswordReset) CurrentState() ResetState {
	if p == nil || p.State == "" || p.OTPHash == "" {
		return ResetStateNoRequest
	}
	return p.State
}

// VerifyStatus classifies the record for a verification attempt. The order
// matters: a dead code reports Expired before AlreadyVerified and
// AttemptsExceeded.
func (p *PasswordReset) VerifyStatus(reference string, now time.Time, maxAttempts int) VerifyStatus {
	switch p.CurrentState() {
	case ResetStateNoRequest:
		return VerifyNotFound
	}
	if reference != "" && reference != p.Reference {
		return VerifyNotFound
	}
	if now.After(p.ExpiresAt) {
		return VerifyExpired
	}
	if p.CurrentState() == ResetStateVerified {
		return VerifyAlreadyVerified
	}
	if p.AttemptCount >= maxAttempts {
		return VerifyAttemptsExceeded
	}
	return VerifyReady
}

// CanCommit reports whether a password may be set against this record.
func (p *PasswordReset) CanCommit(now time.Time, window time.Duration) bool {
	if p.CurrentState() != ResetStateVerified || p.VerifiedAt == nil {
		return false
	}
	return !now.After(p.VerifiedAt.Add(window))
}

// ResetChallenge is what the issuer writes over the record on every new request.
type ResetChallenge struct {
	OTPHash   string
	Reference string
	ExpiresAt time.Time
	PurgeAt   time.Time
}

type RequestResetPayload struct {
	Email string `json:"email" validate:"required,email"`
}

type RequestResetResponse struct {
	Reference string    `json:"reference"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

type VerifyOTPPayload struct {
	Email     string `json:"email" validate:"required,email"`
	OTP       string `json:"otp" validate:"required,numeric"`
	Reference string `json:"reference"`
}

type ResetPasswordPayload struct {
	Email           string `json:"email" validate:"required,email"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}
