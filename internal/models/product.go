package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Slug        string             `json:"slug" bson:"slug"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category" bson:"category"`
	Brand       string             `json:"brand" bson:"brand"`
	Quantity    int                `json:"quantity" bson:"quantity"`
	Sold        int                `json:"sold" bson:"sold"`
	Images      []string           `json:"images" bson:"images"`
	Colors      []string           `json:"colors" bson:"colors"`
	Tags        []string           `json:"tags" bson:"tags"`
	TotalRating float64            `json:"total_rating" bson:"total_rating"`
	RatingCount int                `json:"rating_count" bson:"rating_count"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

type ProductPayload struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Price       float64  `json:"price" validate:"gt=0"`
	Category    string   `json:"category" validate:"required"`
	Brand       string   `json:"brand" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
	Colors      []string `json:"colors"`
	Tags        []string `json:"tags"`
}

type ProductUpdate struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Category    *string   `json:"category,omitempty"`
	Brand       *string   `json:"brand,omitempty"`
	Quantity    *int      `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Images      *[]string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Colors      *[]string `json:"colors,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// ProductQuery carries the list filters accepted by GET /api/products.
type ProductQuery struct {
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Sort     string
	Page     int64
	Limit    int64
}

type ProductPage struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int64     `json:"page"`
	Limit int64     `json:"limit"`
}
