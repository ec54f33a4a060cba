package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/utils"
)

type CouponRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	FindAll(ctx context.Context) ([]models.Coupon, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	FindByName(ctx context.Context, name string) (*models.Coupon, error)
	Update(ctx context.Context, id primitive.ObjectID, updateFields bson.M) (*models.Coupon, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type couponRepository struct {
	db database.Service
}

func NewCouponRepository(db database.Service) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("coupons")
}

func (r *couponRepository) EnsureIndexes(ctx context.Context) error {
	return utils.CreateUniqueIndex(ctx, r.collection(), bson.D{{Key: "name", Value: 1}}, "coupon name")
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	done := utils.QueryTimer("create", "coupon")

	coupon.ID = primitive.NewObjectID()
	now := time.Now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, coupon)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("coupon", coupon.Name).Msg("Failed to insert coupon")
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

func (r *couponRepository) FindAll(ctx context.Context) ([]models.Coupon, error) {
	done := utils.QueryTimer("findAll", "coupon")

	cursor, err := r.collection().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "expiry", Value: 1}}))
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to find coupons: %w", err)
	}
	defer cursor.Close(ctx)

	coupons := []models.Coupon{}
	err = cursor.All(ctx, &coupons)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode coupons: %w", err)
	}
	return coupons, nil
}

func (r *couponRepository) findOne(ctx context.Context, queryType string, filter bson.M) (*models.Coupon, error) {
	done := utils.QueryTimer(queryType, "coupon")

	var coupon models.Coupon
	err := r.collection().FindOne(ctx, filter).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}
	return &coupon, nil
}

func (r *couponRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	return r.findOne(ctx, "findById", bson.M{"_id": id})
}

func (r *couponRepository) FindByName(ctx context.Context, name string) (*models.Coupon, error) {
	return r.findOne(ctx, "findByName", bson.M{"name": name})
}

func (r *couponRepository) Update(ctx context.Context, id primitive.ObjectID, updateFields bson.M) (*models.Coupon, error) {
	done := utils.QueryTimer("update", "coupon")

	updateFields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var coupon models.Coupon
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": updateFields}, opts).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	return &coupon, nil
}

func (r *couponRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	done := utils.QueryTimer("delete", "coupon")

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	done(err)
	if err != nil {
		return false, fmt.Errorf("failed to delete coupon: %w", err)
	}
	return result.DeletedCount == 1, nil
}
