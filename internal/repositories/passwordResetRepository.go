package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/utils"
)

// PasswordResetRepository persists one reset record per email. Every counter
// change is a single conditional update so concurrent requests for the same
// email cannot lose increments.
type PasswordResetRepository interface {
	EnsureIndexes(ctx context.Context) error
	ReserveRequest(ctx context.Context, email string, now time.Time, window time.Duration) (*models.PasswordReset, error)
	SaveChallenge(ctx context.Context, email string, challenge models.ResetChallenge, now time.Time) error
	FindByEmail(ctx context.Context, email string) (*models.PasswordReset, error)
	MarkVerified(ctx context.Context, email, reference, otpHash string, now time.Time, maxAttempts int) (bool, error)
	IncrementAttempts(ctx context.Context, email, reference, otpHash string, now time.Time, maxAttempts int) (*models.PasswordReset, error)
	ConsumeVerified(ctx context.Context, email string, verifiedSince time.Time) (*models.PasswordReset, error)
	Restore(ctx context.Context, record *models.PasswordReset) error
}

type passwordResetRepository struct {
	db database.Service
}

func NewPasswordResetRepository(db database.Service) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("password_resets")
}

func (r *passwordResetRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "purge_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return fmt.Errorf("failed to create password reset indexes: %w", err)
	}
	return nil
}

// ReserveRequest counts one request against the rolling window and returns the
// record as it is after the increment. The window restarts when it began at or
// before now-window. The caller decides whether the new count is over quota.
func (r *passwordResetRepository) ReserveRequest(ctx context.Context, email string, now time.Time, window time.Duration) (*models.PasswordReset, error) {
	done := utils.QueryTimer("reserveRequest", "password_reset")

	restart := bson.D{{Key: "$lte", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$request_window_start", time.Unix(0, 0)}}},
		now.Add(-window),
	}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "request_count", Value: bson.D{{Key: "$cond", Value: bson.A{
				restart,
				1,
				bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$request_count", 0}}}, 1}}},
			}}}},
			{Key: "request_window_start", Value: bson.D{{Key: "$cond", Value: bson.A{restart, now, "$request_window_start"}}}},
			{Key: "purge_at", Value: bson.D{{Key: "$max", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$purge_at", now}}},
				now.Add(window),
			}}}},
			{Key: "created_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$created_at", now}}}},
			{Key: "updated_at", Value: now},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var record models.PasswordReset
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"email": email}, pipeline, opts).Decode(&record)
	if mongo.IsDuplicateKeyError(err) {
		// Two first-time upserts raced on the unique index; the loser retries as an update.
		err = r.collection().FindOneAndUpdate(ctx, bson.M{"email": email}, pipeline, opts).Decode(&record)
	}
	done(err)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to reserve password reset request slot")
		return nil, fmt.Errorf("failed to reserve reset request: %w", err)
	}
	return &record, nil
}

func (r *passwordResetRepository) SaveChallenge(ctx context.Context, email string, challenge models.ResetChallenge, now time.Time) error {
	done := utils.QueryTimer("saveChallenge", "password_reset")

	update := bson.M{
		"$set": bson.M{
			"otp_hash":      challenge.OTPHash,
			"reference":     challenge.Reference,
			"state":         models.ResetStateRequested,
			"expires_at":    challenge.ExpiresAt,
			"attempt_count": 0,
			"updated_at":    now,
		},
		"$unset": bson.M{"verified_at": ""},
		"$max":   bson.M{"purge_at": challenge.PurgeAt},
	}
	result, err := r.collection().UpdateOne(ctx, bson.M{"email": email}, update)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to store password reset challenge")
		return fmt.Errorf("failed to save reset challenge: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to save reset challenge: no record for %s", email)
	}
	return nil
}

func (r *passwordResetRepository) FindByEmail(ctx context.Context, email string) (*models.PasswordReset, error) {
	done := utils.QueryTimer("findByEmail", "password_reset")

	var record models.PasswordReset
	err := r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find reset record: %w", err)
	}
	return &record, nil
}

func activeChallengeFilter(email, reference string, now time.Time, maxAttempts int) bson.M {
	filter := bson.M{
		"email":         email,
		"state":         models.ResetStateRequested,
		"expires_at":    bson.M{"$gte": now},
		"attempt_count": bson.M{"$lt": maxAttempts},
	}
	if reference != "" {
		filter["reference"] = reference
	}
	return filter
}

// MarkVerified flips the record to verified only when the code hash matches a
// live, unexhausted challenge.
func (r *passwordResetRepository) MarkVerified(ctx context.Context, email, reference, otpHash string, now time.Time, maxAttempts int) (bool, error) {
	done := utils.QueryTimer("markVerified", "password_reset")

	filter := activeChallengeFilter(email, reference, now, maxAttempts)
	filter["otp_hash"] = otpHash
	update := bson.M{"$set": bson.M{
		"state":       models.ResetStateVerified,
		"verified_at": now,
		"updated_at":  now,
	}}
	result, err := r.collection().UpdateOne(ctx, filter, update)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to mark reset record verified")
		return false, fmt.Errorf("failed to verify reset record: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// IncrementAttempts records one failed guess and returns the updated record,
// or nil when no live challenge with a different hash matched.
func (r *passwordResetRepository) IncrementAttempts(ctx context.Context, email, reference, otpHash string, now time.Time, maxAttempts int) (*models.PasswordReset, error) {
	done := utils.QueryTimer("incrementAttempts", "password_reset")

	filter := activeChallengeFilter(email, reference, now, maxAttempts)
	filter["otp_hash"] = bson.M{"$ne": otpHash}
	update := bson.M{
		"$inc": bson.M{"attempt_count": 1},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record models.PasswordReset
	err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to record failed OTP attempt")
		return nil, fmt.Errorf("failed to increment reset attempts: %w", err)
	}
	return &record, nil
}

// ConsumeVerified atomically removes a verified record so it can be used once.
func (r *passwordResetRepository) ConsumeVerified(ctx context.Context, email string, verifiedSince time.Time) (*models.PasswordReset, error) {
	done := utils.QueryTimer("consumeVerified", "password_reset")

	filter := bson.M{
		"email":       email,
		"state":       models.ResetStateVerified,
		"verified_at": bson.M{"$gte": verifiedSince},
	}
	var record models.PasswordReset
	err := r.collection().FindOneAndDelete(ctx, filter).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to consume verified reset record")
		return nil, fmt.Errorf("failed to consume reset record: %w", err)
	}
	return &record, nil
}

// Restore puts back a consumed record. A newer request for the same email
// wins: the duplicate key error is swallowed.
func (r *passwordResetRepository) Restore(ctx context.Context, record *models.PasswordReset) error {
	done := utils.QueryTimer("restore", "password_reset")

	_, err := r.collection().InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		done(nil)
		return nil
	}
	done(err)
	if err != nil {
		return fmt.Errorf("failed to restore reset record: %w", err)
	}
	return nil
}
