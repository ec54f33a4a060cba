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

type OrderRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindAll(ctx context.Context, status string, page, limit int64) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) (*models.Order, error)
	CountAll(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
	MonthlyRevenue(ctx context.Context, since time.Time) ([]models.MonthlyRevenue, error)
}

type orderRepository struct {
	db database.Service
}

func NewOrderRepository(db database.Service) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("orders")
}

func (r *orderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	done := utils.QueryTimer("create", "order")

	order.ID = primitive.NewObjectID()
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, order)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Failed to insert order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) findOne(ctx context.Context, queryType string, filter bson.M) (*models.Order, error) {
	done := utils.QueryTimer(queryType, "order")

	var order models.Order
	err := r.collection().FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return r.findOne(ctx, "findById", bson.M{"_id": id})
}

func (r *orderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.findOne(ctx, "findByOrderNumber", bson.M{"order_number": orderNumber})
}

func (r *orderRepository) find(ctx context.Context, queryType string, filter bson.M, opts *options.FindOptions) ([]models.Order, error) {
	done := utils.QueryTimer(queryType, "order")

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		done(err)
		log.Error().Err(err).Interface("filter", filter).Msg("Failed to find orders")
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	err = cursor.All(ctx, &orders)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, "findByUser", bson.M{"user_id": userID}, opts)
}

func (r *orderRepository) FindAll(ctx context.Context, status string, page, limit int64) ([]models.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetSkip((page - 1) * limit).SetLimit(limit)
	return r.find(ctx, "findAll", filter, opts)
}

// UpdateStatus moves the order from one status to another. It returns nil
// when the order no longer has status from, so concurrent transitions cannot
// both apply.
func (r *orderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	done := utils.QueryTimer("updateStatus", "order")

	update := bson.M{
		"$set":  bson.M{"status": to, "updated_at": at},
		"$push": bson.M{"status_history": models.StatusChange{Status: to, ChangedAt: at}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		log.Error().Err(err).Str("order_id", id.Hex()).Msg("Failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) CountAll(ctx context.Context) (int64, error) {
	done := utils.QueryTimer("countAll", "order")

	count, err := r.collection().CountDocuments(ctx, bson.M{})
	done(err)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) Revenue(ctx context.Context) (float64, error) {
	done := utils.QueryTimer("revenue", "order")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": models.OrderCancelled}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "revenue": bson.M{"$sum": "$payable"}}}},
	}
	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		done(err)
		return 0, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Revenue float64 `bson:"revenue"`
	}
	err = cursor.All(ctx, &results)
	done(err)
	if err != nil {
		return 0, fmt.Errorf("failed to decode revenue: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Revenue, nil
}

func (r *orderRepository) MonthlyRevenue(ctx context.Context, since time.Time) ([]models.MonthlyRevenue, error) {
	done := utils.QueryTimer("monthlyRevenue", "order")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":     bson.M{"$ne": models.OrderCancelled},
			"created_at": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"year": bson.M{"$year": "$created_at"}, "month": bson.M{"$month": "$created_at"}},
			"revenue": bson.M{"$sum": "$payable"},
			"orders":  bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":     0,
			"year":    "$_id.year",
			"month":   "$_id.month",
			"revenue": 1,
			"orders":  1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}}},
	}
	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to aggregate monthly revenue: %w", err)
	}
	defer cursor.Close(ctx)

	months := []models.MonthlyRevenue{}
	err = cursor.All(ctx, &months)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode monthly revenue: %w", err)
	}
	return months, nil
}
