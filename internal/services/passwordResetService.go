package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/utils"
)

const (
	referenceLength     = 6
	mailDeliveryTimeout = 2 * time.Minute
	resetAckMessage     = "If an account exists for this email, a verification code has been sent."
)

var ErrWeakPassword = errors.New("password is too short")

// PasswordResetService issues, verifies and commits one-time password reset
// codes. Every operation is keyed by the normalised email address.
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) (*models.RequestResetResponse, error)
	VerifyOTP(ctx context.Context, email, otp, reference string) error
	ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error
	// WaitForDeliveries blocks until every reset mail started so far is done.
	WaitForDeliveries()
}

// ResetUserStore is the part of the user store the reset flow touches.
type ResetUserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID primitive.ObjectID, passwordHash string) error
}

type ResetMailer interface {
	SendPasswordResetOTP(ctx context.Context, to, code, reference string, expiresAt time.Time) error
}

type PasswordResetConfig struct {
	OTPLength         int
	OTPTTL            time.Duration
	MaxAttempts       int
	MaxRequests       int
	RequestWindow     time.Duration
	CommitWindow      time.Duration
	BcryptCost        int
	MinPasswordLength int
}

func PasswordResetConfigFrom(cfg *config.Config) PasswordResetConfig {
	return PasswordResetConfig{
		OTPLength:         cfg.ResetOTPLength,
		OTPTTL:            cfg.ResetOTPTTL,
		MaxAttempts:       cfg.ResetMaxAttempts,
		MaxRequests:       cfg.ResetMaxRequests,
		RequestWindow:     cfg.ResetRequestWindow,
		CommitWindow:      cfg.ResetCommitWindow,
		BcryptCost:        cfg.BcryptCost,
		MinPasswordLength: cfg.MinPasswordLength,
	}
}

type passwordResetService struct {
	users  ResetUserStore
	resets repositories.PasswordResetRepository
	mailer ResetMailer
	cfg    PasswordResetConfig

	// mail goes out after the response so its latency cannot reveal accounts
	deliveries sync.WaitGroup

	now               func() time.Time
	generateOTP       func(length int) (string, error)
	generateReference func(length int) (string, error)
}

func NewPasswordResetService(users ResetUserStore, resets repositories.PasswordResetRepository, mailer ResetMailer, cfg PasswordResetConfig) PasswordResetService {
	return newPasswordResetService(users, resets, mailer, cfg)
}

func newPasswordResetService(users ResetUserStore, resets repositories.PasswordResetRepository, mailer ResetMailer, cfg PasswordResetConfig) *passwordResetService {
	return &passwordResetService{
		users:             users,
		resets:            resets,
		mailer:            mailer,
		cfg:               cfg,
		now:               time.Now,
		generateOTP:       utils.GenerateSecureOTP,
		generateReference: utils.GenerateReference,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestReset issues a fresh code for email, replacing any outstanding one.
// The response is the same whether or not an account exists; only a real
// account receives the code by mail.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) (*models.RequestResetResponse, error) {
	email = normalizeEmail(email)
	now := s.now()

	record, err := s.resets.ReserveRequest(ctx, email, now, s.cfg.RequestWindow)
	if err != nil {
		return nil, err
	}
	if record.RequestCount > s.cfg.MaxRequests {
		metrics.PasswordResetRequestsTotal.WithLabelValues("rate_limited").Inc()
		log.Warn().Str("email", email).Int("requests", record.RequestCount).Msg("Password reset request rate limited")
		return nil, ErrResetRateLimited
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	code, err := s.generateOTP(s.cfg.OTPLength)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate reset code")
		return nil, fmt.Errorf("failed to generate reset code: %w", err)
	}
	reference, err := s.generateReference(referenceLength)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate reset reference")
		return nil, fmt.Errorf("failed to generate reset reference: %w", err)
	}

	expiresAt := now.Add(s.cfg.OTPTTL)
	purgeAt := expiresAt.Add(s.cfg.CommitWindow)
	if windowEnd := record.RequestWindowStart.Add(s.cfg.RequestWindow); windowEnd.After(purgeAt) {
		purgeAt = windowEnd
	}

	challenge := models.ResetChallenge{
		OTPHash:   utils.HashOTP(code),
		Reference: reference,
		ExpiresAt: expiresAt,
		PurgeAt:   purgeAt,
	}
	if err := s.resets.SaveChallenge(ctx, email, challenge, now); err != nil {
		return nil, err
	}

	if user != nil {
		s.deliver(ctx, email, code, reference, expiresAt)
		metrics.PasswordResetRequestsTotal.WithLabelValues("issued").Inc()
		log.Info().Str("user_id", user.ID.Hex()).Str("reference", reference).Msg("Password reset code issued")
	} else {
		metrics.PasswordResetRequestsTotal.WithLabelValues("unknown_email").Inc()
		log.Info().Str("reference", reference).Msg("Password reset requested for unknown email")
	}

	return &models.RequestResetResponse{
		Reference: reference,
		ExpiresAt: expiresAt,
		Message:   resetAckMessage,
	}, nil
}

// deliver sends the code in the background. Delivery failures are counted by
// the mailer; the code stays valid so the request need not be repeated.
func (s *passwordResetService) deliver(ctx context.Context, email, code, reference string, expiresAt time.Time) {
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailDeliveryTimeout)
		defer cancel()
		if err := s.mailer.SendPasswordResetOTP(ctx, email, code, reference, expiresAt); err != nil {
			log.Error().Err(err).Str("reference", reference).Msg("Reset code issued but not delivered")
		}
	}()
}

func (s *passwordResetService) WaitForDeliveries() {
	s.deliveries.Wait()
}

// VerifyOTP checks a submitted code. A wrong code consumes one attempt; the
// attempt that reaches the limit reports AttemptsExceeded. Repeating a
// successful verification with the same code succeeds again while the code is
// unexpired and the verification can still be committed.
func (s *passwordResetService) VerifyOTP(ctx context.Context, email, otp, reference string) error {
	email = normalizeEmail(email)
	reference = strings.TrimSpace(reference)
	otpHash := utils.HashOTP(strings.TrimSpace(otp))
	now := s.now()

	// A concurrent request can replace the record between the read and the
	// conditional write; when neither write matches, classify again.
	for i := 0; i < 3; i++ {
		record, err := s.resets.FindByEmail(ctx, email)
		if err != nil {
			return err
		}

		switch record.VerifyStatus(reference, now, s.cfg.MaxAttempts) {
		case models.VerifyNotFound:
			metrics.OTPVerificationsTotal.WithLabelValues("not_found").Inc()
			return ErrResetNotFound
		case models.VerifyExpired:
			metrics.OTPVerificationsTotal.WithLabelValues("expired").Inc()
			return ErrResetExpired
		case models.VerifyAttemptsExceeded:
			metrics.OTPVerificationsTotal.WithLabelValues("attempts_exceeded").Inc()
			return ErrResetAttemptsExceeded
		case models.VerifyAlreadyVerified:
			if !record.CanCommit(now, s.cfg.CommitWindow) {
				metrics.OTPVerificationsTotal.WithLabelValues("expired").Inc()
				return ErrResetExpired
			}
			if record.OTPHash == otpHash {
				return nil
			}
			metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
			return ErrResetInvalidCode
		}

		verified, err := s.resets.MarkVerified(ctx, email, record.Reference, otpHash, now, s.cfg.MaxAttempts)
		if err != nil {
			return err
		}
		if verified {
			metrics.OTPVerificationsTotal.WithLabelValues("verified").Inc()
			log.Info().Str("reference", record.Reference).Msg("Password reset code verified")
			return nil
		}

		updated, err := s.resets.IncrementAttempts(ctx, email, record.Reference, otpHash, now, s.cfg.MaxAttempts)
		if err != nil {
			return err
		}
		if updated != nil {
			log.Warn().Str("reference", record.Reference).Int("attempts", updated.AttemptCount).Msg("Incorrect password reset code")
			if updated.AttemptCount >= s.cfg.MaxAttempts {
				metrics.OTPVerificationsTotal.WithLabelValues("attempts_exceeded").Inc()
				return ErrResetAttemptsExceeded
			}
			metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
			return ErrResetInvalidCode
		}
	}

	log.Warn().Str("email", email).Msg("Password reset record kept changing during verification")
	return ErrResetNotFound
}

// ResetPassword sets a new password for a verified request and ends it. The
// record is claimed before the password write so a code can be used once;
// if the write fails the claim is undone.
func (s *passwordResetService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	email = normalizeEmail(email)
	if newPassword != confirmPassword {
		return ErrResetPasswordMismatch
	}
	if len(newPassword) < s.cfg.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, s.cfg.MinPasswordLength)
	}

	now := s.now()
	record, err := s.resets.ConsumeVerified(ctx, email, now.Add(-s.cfg.CommitWindow))
	if err != nil {
		return err
	}
	if record == nil {
		return ErrResetNotVerified
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.restore(ctx, record)
		return err
	}
	if user == nil {
		log.Info().Str("reference", record.Reference).Msg("Verified reset for an email without an account")
		return ErrResetNotVerified
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		s.restore(ctx, record)
		log.Error().Err(err).Msg("Failed to hash password during reset")
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		s.restore(ctx, record)
		return err
	}

	metrics.PasswordResetsCompletedTotal.Inc()
	log.Info().Str("user_id", user.ID.Hex()).Str("reference", record.Reference).Msg("Password reset completed")
	return nil
}

func (s *passwordResetService) restore(ctx context.Context, record *models.PasswordReset) {
	if err := s.resets.Restore(ctx, record); err != nil {
		log.Error().Err(err).Str("reference", record.Reference).Msg("Failed to restore claimed password reset")
	}
}
