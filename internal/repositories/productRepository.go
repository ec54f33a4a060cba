package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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

type ProductRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Find(ctx context.Context, query models.ProductQuery) ([]models.Product, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, updateFields bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetRating(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error
	ReserveStock(ctx context.Context, id primitive.ObjectID, count int) (bool, error)
	ReleaseStock(ctx context.Context, id primitive.ObjectID, count int) error
	CountAll(ctx context.Context) (int64, error)
}

type productRepository struct {
	db database.Service
}

func NewProductRepository(db database.Service) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("products")
}

func (r *productRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "brand", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	done := utils.QueryTimer("create", "product")

	product.ID = primitive.NewObjectID()
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, product)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("title", product.Title).Msg("Failed to insert product into database")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (r *productRepository) findOne(ctx context.Context, queryType string, filter bson.M) (*models.Product, error) {
	done := utils.QueryTimer(queryType, "product")

	var product models.Product
	err := r.collection().FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

func (r *productRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return r.findOne(ctx, "findById", bson.M{"_id": id})
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, "findBySlug", bson.M{"slug": slug})
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	done := utils.QueryTimer("findByIds", "product")

	products := []models.Product{}
	if len(ids) == 0 {
		done(nil)
		return products, nil
	}
	cursor, err := r.collection().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)
	err = cursor.All(ctx, &products)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *productRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	done := utils.QueryTimer("slugExists", "product")

	count, err := r.collection().CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	done(err)
	if err != nil {
		return false, fmt.Errorf("failed to check product slug: %w", err)
	}
	return count > 0, nil
}

var productSorts = map[string]bson.D{
	"price":         {{Key: "price", Value: 1}},
	"-price":        {{Key: "price", Value: -1}},
	"-total_rating": {{Key: "total_rating", Value: -1}},
	"-sold":         {{Key: "sold", Value: -1}},
	"-created_at":   {{Key: "created_at", Value: -1}},
}

func buildProductFilter(query models.ProductQuery) bson.M {
	filter := bson.M{}
	if query.Category != "" {
		filter["category"] = query.Category
	}
	if query.Brand != "" {
		filter["brand"] = query.Brand
	}
	price := bson.M{}
	if query.MinPrice != nil {
		price["$gte"] = *query.MinPrice
	}
	if query.MaxPrice != nil {
		price["$lte"] = *query.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if query.Search != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(query.Search), "$options": "i"}
	}
	return filter
}

func (r *productRepository) Find(ctx context.Context, query models.ProductQuery) ([]models.Product, int64, error) {
	done := utils.QueryTimer("find", "product")

	filter := buildProductFilter(query)
	sort, ok := productSorts[query.Sort]
	if !ok {
		sort = productSorts["-created_at"]
	}

	total, err := r.collection().CountDocuments(ctx, filter)
	if err != nil {
		done(err)
		log.Error().Err(err).Interface("filter", filter).Msg("Failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().SetSort(sort).SetSkip((query.Page - 1) * query.Limit).SetLimit(query.Limit)
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		done(err)
		log.Error().Err(err).Interface("filter", filter).Msg("Failed to find products")
		return nil, 0, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	err = cursor.All(ctx, &products)
	done(err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, id primitive.ObjectID, updateFields bson.M) (*models.Product, error) {
	done := utils.QueryTimer("update", "product")

	updateFields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": updateFields}, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		log.Error().Err(err).Str("product_id", id.Hex()).Msg("Error updating product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

func (r *productRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	done := utils.QueryTimer("delete", "product")

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	done(err)
	if err != nil {
		log.Error().Err(err).Str("product_id", id.Hex()).Msg("Error deleting product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return result.DeletedCount == 1, nil
}

func (r *productRepository) SetRating(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error {
	done := utils.QueryTimer("setRating", "product")

	_, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"total_rating": summary.Average,
		"rating_count": summary.Count,
	}})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}
	return nil
}

// ReserveStock takes count units off the shelf only when that many remain.
func (r *productRepository) ReserveStock(ctx context.Context, id primitive.ObjectID, count int) (bool, error) {
	done := utils.QueryTimer("reserveStock", "product")

	result, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": count}},
		bson.M{"$inc": bson.M{"quantity": -count, "sold": count}},
	)
	done(err)
	if err != nil {
		return false, fmt.Errorf("failed to reserve stock: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *productRepository) ReleaseStock(ctx context.Context, id primitive.ObjectID, count int) error {
	done := utils.QueryTimer("releaseStock", "product")

	_, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"quantity": count, "sold": -count}},
	)
	done(err)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}

func (r *productRepository) CountAll(ctx context.Context) (int64, error) {
	done := utils.QueryTimer("countAll", "product")

	count, err := r.collection().CountDocuments(ctx, bson.M{})
	done(err)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
