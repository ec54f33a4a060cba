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

type CartRepository interface {
	EnsureIndexes(ctx context.Context) error
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	SetDiscount(ctx context.Context, userID primitive.ObjectID, coupon string, totalAfterDiscount float64) (*models.Cart, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type cartRepository struct {
	db database.Service
}

func NewCartRepository(db database.Service) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("carts")
}

func (r *cartRepository) EnsureIndexes(ctx context.Context) error {
	return utils.CreateUniqueIndex(ctx, r.collection(), bson.D{{Key: "user_id", Value: 1}}, "cart")
}

func (r *cartRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	done := utils.QueryTimer("findByUser", "cart")

	var cart models.Cart
	err := r.collection().FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return &cart, nil
}

// Save replaces the user's cart. Any previously applied coupon is dropped
// because the totals changed.
func (r *cartRepository) Save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	done := utils.QueryTimer("save", "cart")

	cart.UpdatedAt = time.Now()
	cart.TotalAfterDiscount = nil
	cart.Coupon = ""
	opts := options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After)

	replacement := bson.M{
		"user_id":    cart.UserID,
		"items":      cart.Items,
		"cart_total": cart.CartTotal,
		"updated_at": cart.UpdatedAt,
	}
	var saved models.Cart
	err := r.collection().FindOneAndReplace(ctx, bson.M{"user_id": cart.UserID}, replacement, opts).Decode(&saved)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("user_id", cart.UserID.Hex()).Msg("Failed to save cart")
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return &saved, nil
}

func (r *cartRepository) SetDiscount(ctx context.Context, userID primitive.ObjectID, coupon string, totalAfterDiscount float64) (*models.Cart, error) {
	done := utils.QueryTimer("setDiscount", "cart")

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var cart models.Cart
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"coupon":               coupon,
		"total_after_discount": totalAfterDiscount,
		"updated_at":           time.Now(),
	}}, opts).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to apply discount: %w", err)
	}
	return &cart, nil
}

func (r *cartRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	done := utils.QueryTimer("deleteByUser", "cart")

	_, err := r.collection().DeleteOne(ctx, bson.M{"user_id": userID})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to empty cart: %w", err)
	}
	return nil
}
