package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

type ProductService interface {
	CreateProduct(ctx context.Context, payload *models.ProductPayload) (*models.Product, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, query models.ProductQuery) (*models.ProductPage, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, payload *models.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	GenerateDescription(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	reviewRepo  repositories.ReviewRepository
	describer   DescriptionGenerator
}

func NewProductService(productRepo repositories.ProductRepository, reviewRepo repositories.ReviewRepository, describer DescriptionGenerator) ProductService {
	return &productService{productRepo: productRepo, reviewRepo: reviewRepo, describer: describer}
}

func (s *productService) CreateProduct(ctx context.Context, payload *models.ProductPayload) (*models.Product, error) {
	slug, err := uniqueSlug(ctx, payload.Title, s.productRepo.SlugExists)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       strings.TrimSpace(payload.Title),
		Slug:        slug,
		Description: payload.Description,
		Price:       models.RoundCents(payload.Price),
		Category:    payload.Category,
		Brand:       payload.Brand,
		Quantity:    payload.Quantity,
		Images:      nonNil(payload.Images),
		Colors:      nonNil(payload.Colors),
		Tags:        nonNil(payload.Tags),
	}
	created, err := s.productRepo.Create(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: slug %s", ErrAlreadyExists, slug)
		}
		return nil, err
	}

	metrics.ProductCreatedTotal.Inc()
	log.Info().Str("product_id", created.ID.Hex()).Str("slug", created.Slug).Msg("Product created")
	return created, nil
}

func (s *productService) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	return product, nil
}

func (s *productService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, query models.ProductQuery) (*models.ProductPage, error) {
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		return nil, fmt.Errorf("%w: min_price is greater than max_price", ErrInvalidInput)
	}
	items, total, err := s.productRepo.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	return &models.ProductPage{Items: items, Total: total, Page: query.Page, Limit: query.Limit}, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id primitive.ObjectID, payload *models.ProductUpdate) (*models.Product, error) {
	updateFields := bson.M{}
	if payload.Title != nil {
		current, err := s.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		title := strings.TrimSpace(*payload.Title)
		if title != current.Title {
			slug, err := uniqueSlug(ctx, title, s.productRepo.SlugExists)
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
	if payload.Price != nil {
		updateFields["price"] = models.RoundCents(*payload.Price)
	}
	if payload.Category != nil {
		updateFields["category"] = *payload.Category
	}
	if payload.Brand != nil {
		updateFields["brand"] = *payload.Brand
	}
	if payload.Quantity != nil {
		updateFields["quantity"] = *payload.Quantity
	}
	if payload.Images != nil {
		updateFields["images"] = nonNil(*payload.Images)
	}
	if payload.Colors != nil {
		updateFields["colors"] = nonNil(*payload.Colors)
	}
	if payload.Tags != nil {
		updateFields["tags"] = nonNil(*payload.Tags)
	}
	if len(updateFields) == 0 {
		return s.GetProduct(ctx, id)
	}

	updated, err := s.productRepo.Update(ctx, id, updateFields)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	log.Info().Str("product_id", id.Hex()).Msg("Product updated")
	return updated, nil
}

// DeleteProduct removes the product together with its reviews.
func (s *productService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: product", ErrNotFound)
	}
	if err := s.reviewRepo.DeleteByProduct(ctx, id); err != nil {
		log.Error().Err(err).Str("product_id", id.Hex()).Msg("Product deleted but its reviews were not")
	}
	log.Info().Str("product_id", id.Hex()).Msg("Product deleted")
	return nil
}

// GenerateDescription replaces the product description with LLM output.
func (s *productService) GenerateDescription(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if s.describer == nil {
		return nil, ErrLLMUnavailable
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	description, err := s.describer.GenerateDescription(ctx, product)
	if err != nil {
		log.Error().Err(err).Str("product_id", id.Hex()).Msg("Failed to generate product description")
		return nil, err
	}

	updated, err := s.productRepo.Update(ctx, id, bson.M{"description": description})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	metrics.DescriptionsGeneratedTotal.Inc()
	return updated, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
