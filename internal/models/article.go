package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Article struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title       string               `json:"title" bson:"title"`
	Slug        string               `json:"slug" bson:"slug"`
	Description string               `json:"description" bson:"description"`
	Category    string               `json:"category" bson:"category"`
	Author      string               `json:"author" bson:"author"`
	Images      []string             `json:"images" bson:"images"`
	NumViews    int64                `json:"num_views" bson:"num_views"`
	Likes       []primitive.ObjectID `json:"likes" bson:"likes"`
	Dislikes    []primitive.ObjectID `json:"dislikes" bson:"dislikes"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"`
}

type ArticlePayload struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Author      string   `json:"author"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
}

type ArticleUpdate struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Author      *string   `json:"author,omitempty"`
	Images      *[]string `json:"images,omitempty" validate:"omitempty,dive,url"`
}
