package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
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

type ReviewRepository interface {
	EnsureIndexes(ctx context.Context) error
	Upsert(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error
	Summary(ctx context.Context, productID primitive.ObjectID) (models.RatingSummary, error)
}

type reviewRepository struct {
	db database.Service
}

func NewReviewRepository(db database.Service) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("reviews")
}

func (r *reviewRepository) EnsureIndexes(ctx context.Context) error {
	return utils.CreateUniqueIndex(ctx, r.collection(), bson.D{{Key: "product_id", Value: 1}, {Key: "user_id", Value: 1}}, "review")
}

// Upsert keeps a single review per user and product; a second write replaces
// the star and comment of the first.
func (r *reviewRepository) Upsert(ctx context.Context, review *models.Review) (*models.Review, error) {
	done := utils.QueryTimer("upsert", "review")

	now := time.Now()
	filter := bson.M{"product_id": review.ProductID, "user_id": review.UserID}
	update := bson.M{
		"$set": bson.M{
			"star":       review.Star,
			"comment":    review.Comment,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Review
	err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("product_id", review.ProductID.Hex()).Msg("Failed to upsert review")
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return &saved, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	done := utils.QueryTimer("findById", "review")

	var review models.Review
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return &review, nil
}

func (r *reviewRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	done := utils.QueryTimer("findByProduct", "review")

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection().Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	err = cursor.All(ctx, &reviews)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	done := utils.QueryTimer("delete", "review")

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	done(err)
	if err != nil {
		return false, fmt.Errorf("failed to delete review: %w", err)
	}
	return result.DeletedCount == 1, nil
}

func (r *reviewRepository) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error {
	done := utils.QueryTimer("deleteByProduct", "review")

	_, err := r.collection().DeleteMany(ctx, bson.M{"product_id": productID})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to delete product reviews: %w", err)
	}
	return nil
}

// Summary averages the stars of a product, rounded to one decimal. A product
// without reviews yields the zero summary.
func (r *reviewRepository) Summary(ctx context.Context, productID primitive.ObjectID) (models.RatingSummary, error) {
	done := utils.QueryTimer("summary", "review")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$star"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		done(err)
		return models.RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.RatingSummary
	err = cursor.All(ctx, &results)
	done(err)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("failed to decode rating summary: %w", err)
	}
	if len(results) == 0 {
		return models.RatingSummary{}, nil
	}
	summary := results[0]
	summary.Average = math.Round(summary.Average*10) / 10
	return summary, nil
}
