package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

type CouponService interface {
	CreateCoupon(ctx context.Context, payload *models.CouponPayload) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	GetCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id primitive.ObjectID, payload *models.CouponPayload) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id primitive.ObjectID) error
	ValidateCoupon(ctx context.Context, name string) (*models.Coupon, error)
}

type couponService struct {
	couponRepo repositories.CouponRepository
	now        func() time.Time
}

func NewCouponService(couponRepo repositories.CouponRepository) CouponService {
	return &couponService{couponRepo: couponRepo, now: time.Now}
}

func normalizeCoupon(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func checkDiscount(discount float64) error {
	if discount <= 0 || discount > 100 {
		return fmt.Errorf("%w: discount must be between 1 and 100 percent", ErrInvalidInput)
	}
	return nil
}

func (s *couponService) CreateCoupon(ctx context.Context, payload *models.CouponPayload) (*models.Coupon, error) {
	if err := checkDiscount(payload.Discount); err != nil {
		return nil, err
	}
	if !payload.Expiry.After(s.now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrInvalidInput)
	}
	coupon, err := s.couponRepo.Create(ctx, &models.Coupon{
		Name:     normalizeCoupon(payload.Name),
		Discount: payload.Discount,
		Expiry:   payload.Expiry,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: coupon %s", ErrAlreadyExists, normalizeCoupon(payload.Name))
		}
		return nil, err
	}
	log.Info().Str("coupon", coupon.Name).Float64("discount", coupon.Discount).Msg("Coupon created")
	return coupon, nil
}

func (s *couponService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	return s.couponRepo.FindAll(ctx)
}

func (s *couponService) GetCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, fmt.Errorf("%w: coupon", ErrNotFound)
	}
	return coupon, nil
}

func (s *couponService) UpdateCoupon(ctx context.Context, id primitive.ObjectID, payload *models.CouponPayload) (*models.Coupon, error) {
	if err := checkDiscount(payload.Discount); err != nil {
		return nil, err
	}
	coupon, err := s.couponRepo.Update(ctx, id, bson.M{
		"name":     normalizeCoupon(payload.Name),
		"discount": payload.Discount,
		"expiry":   payload.Expiry,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: coupon %s", ErrAlreadyExists, normalizeCoupon(payload.Name))
		}
		return nil, err
	}
	if coupon == nil {
		return nil, fmt.Errorf("%w: coupon", ErrNotFound)
	}
	return coupon, nil
}

func (s *couponService) DeleteCoupon(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.couponRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: coupon", ErrNotFound)
	}
	return nil
}

// ValidateCoupon returns the named coupon if it exists and has not expired.
func (s *couponService) ValidateCoupon(ctx context.Context, name string) (*models.Coupon, error) {
	coupon, err := s.couponRepo.FindByName(ctx, normalizeCoupon(name))
	if err != nil {
		return nil, err
	}
	if coupon == nil || !coupon.Expiry.After(s.now()) {
		return nil, ErrCouponInvalid
	}
	return coupon, nil
}
