package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

type ReviewService interface {
	WriteReview(ctx context.Context, userID, productID primitive.ObjectID, payload *models.ReviewPayload) (*models.Review, error)
	ListReviews(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	DeleteReview(ctx context.Context, userID primitive.ObjectID, role string, reviewID primitive.ObjectID) error
}

type reviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
}

func NewReviewService(reviewRepo repositories.ReviewRepository, productRepo repositories.ProductRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

// WriteReview creates or replaces the user's review of a product and
// refreshes the product rating.
func (s *reviewService) WriteReview(ctx context.Context, userID, productID primitive.ObjectID, payload *models.ReviewPayload) (*models.Review, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}

	review, err := s.reviewRepo.Upsert(ctx, &models.Review{
		ProductID: productID,
		UserID:    userID,
		Star:      payload.Star,
		Comment:   strings.TrimSpace(payload.Comment),
	})
	if err != nil {
		return nil, err
	}

	if err := s.refreshRating(ctx, productID); err != nil {
		return nil, err
	}
	metrics.ReviewWrittenTotal.Inc()
	return review, nil
}

func (s *reviewService) ListReviews(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	return s.reviewRepo.FindByProduct(ctx, productID)
}

// DeleteReview lets the author or an admin remove a review.
func (s *reviewService) DeleteReview(ctx context.Context, userID primitive.ObjectID, role string, reviewID primitive.ObjectID) error {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return fmt.Errorf("%w: review", ErrNotFound)
	}
	if review.UserID != userID && role != models.RoleAdmin {
		return fmt.Errorf("%w: review belongs to another user", ErrForbidden)
	}

	deleted, err := s.reviewRepo.Delete(ctx, reviewID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: review", ErrNotFound)
	}
	return s.refreshRating(ctx, review.ProductID)
}

func (s *reviewService) refreshRating(ctx context.Context, productID primitive.ObjectID) error {
	summary, err := s.reviewRepo.Summary(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.productRepo.SetRating(ctx, productID, summary); err != nil {
		log.Error().Err(err).Str("product_id", productID.Hex()).Msg("Failed to store product rating")
		return err
	}
	return nil
}
