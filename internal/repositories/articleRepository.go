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

type ArticleRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, article *models.Article) (*models.Article, error)
	FindAll(ctx context.Context, category string, page, limit int64) ([]models.Article, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	IncrementViews(ctx context.Context, slug string) (*models.Article, error)
	Update(ctx context.Context, id primitive.ObjectID, updateFields bson.M) (*models.Article, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	ToggleReaction(ctx context.Context, id, userID primitive.ObjectID, like bool) (*models.Article, error)
}

type articleRepository struct {
	db database.Service
}

func NewArticleRepository(db database.Service) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("articles")
}

func (r *articleRepository) EnsureIndexes(ctx context.Context) error {
	return utils.CreateUniqueIndex(ctx, r.collection(), bson.D{{Key: "slug", Value: 1}}, "slug")
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	done := utils.QueryTimer("create", "article")

	article.ID = primitive.NewObjectID()
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Likes == nil {
		article.Likes = []primitive.ObjectID{}
	}
	if article.Dislikes == nil {
		article.Dislikes = []primitive.ObjectID{}
	}
	_, err := r.collection().InsertOne(ctx, article)
	done(err)
	if err != nil {
		log.Error().Err(err).Str("slug", article.Slug).Msg("Failed to insert article")
		return nil, fmt.Errorf("failed to create article: %w", err)
	}
	return article, nil
}

func (r *articleRepository) FindAll(ctx context.Context, category string, page, limit int64) ([]models.Article, error) {
	done := utils.QueryTimer("findAll", "article")

	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetSkip((page - 1) * limit).SetLimit(limit)
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to find articles: %w", err)
	}
	defer cursor.Close(ctx)

	articles := []models.Article{}
	err = cursor.All(ctx, &articles)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	return articles, nil
}

func (r *articleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	done := utils.QueryTimer("findById", "article")

	var article models.Article
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&article)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	return &article, nil
}

func (r *articleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	done := utils.QueryTimer("slugExists", "article")

	count, err := r.collection().CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	done(err)
	if err != nil {
		return false, fmt.Errorf("failed to check article slug: %w", err)
	}
	return count > 0, nil
}

// IncrementViews counts one read and returns the article with the new count.
func (r *articleRepository) IncrementViews(ctx context.Context, slug string) (*models.Article, error) {
	done := utils.QueryTimer("incrementViews", "article")

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var article models.Article
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"slug": slug}, bson.M{"$inc": bson.M{"num_views": 1}}, opts).Decode(&article)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to increment article views: %w", err)
	}
	return &article, nil
}

func (r *articleRepository) Update(ctx context.Context, id primitive.ObjectID, updateFields bson.M) (*models.Article, error) {
	done := utils.QueryTimer("update", "article")

	updateFields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var article models.Article
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": updateFields}, opts).Decode(&article)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		log.Error().Err(err).Str("article_id", id.Hex()).Msg("Error updating article")
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	return &article, nil
}

func (r *articleRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	done := utils.QueryTimer("delete", "article")

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	done(err)
	if err != nil {
		return false, fmt.Errorf("failed to delete article: %w", err)
	}
	return result.DeletedCount == 1, nil
}

// ToggleReaction removes the user's reaction when it is repeated, otherwise
// records it and clears the opposite one.
func (r *articleRepository) ToggleReaction(ctx context.Context, id, userID primitive.ObjectID, like bool) (*models.Article, error) {
	done := utils.QueryTimer("toggleReaction", "article")

	field, opposite := "likes", "dislikes"
	if !like {
		field, opposite = "dislikes", "likes"
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var article models.Article
	err := r.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": id, field: userID},
		bson.M{"$pull": bson.M{field: userID}},
		opts,
	).Decode(&article)
	if err == nil {
		done(nil)
		return &article, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		done(err)
		return nil, fmt.Errorf("failed to update article reaction: %w", err)
	}

	err = r.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{field: userID}, "$pull": bson.M{opposite: userID}},
		opts,
	).Decode(&article)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to update article reaction: %w", err)
	}
	return &article, nil
}
