package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

type ArticleService interface {
	CreateArticle(ctx context.Context, payload *models.ArticlePayload) (*models.Article, error)
	ListArticles(ctx context.Context, category string, page, limit int64) ([]models.Article, error)
	ReadArticle(ctx context.Context, slug string) (*models.Article, error)
	UpdateArticle(ctx context.Context, id primitive.ObjectID, payload *models.ArticleUpdate) (*models.Article, error)
	DeleteArticle(ctx context.Context, id primitive.ObjectID) error
	React(ctx context.Context, id, userID primitive.ObjectID, like bool) (*models.Article, error)
}

type articleService struct {
	articleRepo repositories.ArticleRepository
}

func NewArticleService(articleRepo repositories.ArticleRepository) ArticleService {
	return &articleService{articleRepo: articleRepo}
}

func (s *articleService) CreateArticle(ctx context.Context, payload *models.ArticlePayload) (*models.Article, error) {
	slug, err := uniqueSlug(ctx, payload.Title, s.articleRepo.SlugExists)
	if err != nil {
		return nil, err
	}
	author := strings.TrimSpace(payload.Author)
	if author == "" {
		author = "Admin"
	}

	article, err := s.articleRepo.Create(ctx, &models.Article{
		Title:       strings.TrimSpace(payload.Title),
		Slug:        slug,
		Description: payload.Description,
		Category:    payload.Category,
		Author:      author,
		Images:      nonNil(payload.Images),
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("article_id", article.ID.Hex()).Str("slug", slug).Msg("Article created")
	return article, nil
}

func (s *articleService) ListArticles(ctx context.Context, category string, page, limit int64) ([]models.Article, error) {
	return s.articleRepo.FindAll(ctx, category, page, limit)
}

// ReadArticle returns the article and counts the read.
func (s *articleService) ReadArticle(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.articleRepo.IncrementViews(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fmt.Errorf("%w: article", ErrNotFound)
	}
	metrics.ArticleViewsTotal.Inc()
	return article, nil
}

func (s *articleService) UpdateArticle(ctx context.Context, id primitive.ObjectID, payload *models.ArticleUpdate) (*models.Article, error) {
	updateFields := bson.M{}
	if payload.Title != nil {
		current, err := s.articleRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("%w: article", ErrNotFound)
		}
		title := strings.TrimSpace(*payload.Title)
		if title != current.Title {
			slug, err := uniqueSlug(ctx, title, s.articleRepo.SlugExists)
			if err != nil {
				return nil, err
			}
			updateFields["title"] = title
			updateFields["slug"] = slug
		}
	}
	if payload.Description != nil {
		updateFields["description"] = *payload.Description
	}
	if payload.Category != nil {
		updateFields["category"] = *payload.Category
	}
	if payload.Author != nil {
		updateFields["author"] = *payload.Author
	}
	if payload.Images != nil {
		updateFields["images"] = nonNil(*payload.Images)
	}
	if len(updateFields) == 0 {
		return nil, fmt.Errorf("%w: no valid fields provided for update", ErrInvalidInput)
	}

	article, err := s.articleRepo.Update(ctx, id, updateFields)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fmt.Errorf("%w: article", ErrNotFound)
	}
	return article, nil
}

func (s *articleService) DeleteArticle(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.articleRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: article", ErrNotFound)
	}
	return nil
}

// React toggles a like (or dislike) by userID. The two reactions exclude each
// other.
func (s *articleService) React(ctx context.Context, id, userID primitive.ObjectID, like bool) (*models.Article, error) {
	article, err := s.articleRepo.ToggleReaction(ctx, id, userID, like)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fmt.Errorf("%w: article", ErrNotFound)
	}
	return article, nil
}
