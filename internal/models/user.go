package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName string               `json:"first_name" bson:"first_name"`
	LastName  string               `json:"last_name" bson:"last_name"`
	Email     string               `json:"email" bson:"email"`
	Mobile    string               `json:"mobile,omitempty" bson:"mobile,omitempty"`
	Password  string               `json:"password,omitempty" bson:"password"`
	Role      string               `json:"role" bson:"role"`
	IsBlocked bool                 `json:"is_blocked" bson:"is_blocked"`
	Address   string               `json:"address,omitempty" bson:"address,omitempty"`
	Wishlist  []primitive.ObjectID `json:"wishlist" bson:"wishlist"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

type RegisterPayload struct {
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Mobile    string `json:"mobile" validate:"omitempty,e164"`
	Password  string `json:"password" validate:"required,min=8"`
}

type UserProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=64"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Mobile    *string `json:"mobile,omitempty" validate:"omitempty,e164"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=256"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
}
