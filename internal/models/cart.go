package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	Title     string             `json:"title" bson:"title"`
	Count     int                `json:"count" bson:"count"`
	Color     string             `json:"color,omitempty" bson:"color,omitempty"`
	Price     float64            `json:"price" bson:"price"`
}

type Cart struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"user_id" bson:"user_id"`
	Items              []CartItem         `json:"items" bson:"items"`
	CartTotal          float64            `json:"cart_total" bson:"cart_total"`
	TotalAfterDiscount *float64           `json:"total_after_discount,omitempty" bson:"total_after_discount,omitempty"`
	Coupon             string             `json:"coupon,omitempty" bson:"coupon,omitempty"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

type CartItemPayload struct {
	ProductID string `json:"product_id" validate:"required,len=24,hexadecimal"`
	Count     int    `json:"count" validate:"required,min=1,max=100"`
	Color     string `json:"color"`
}

type CartPayload struct {
	Items []CartItemPayload `json:"items" validate:"required,min=1,dive"`
}

type ApplyCouponPayload struct {
	Coupon string `json:"coupon" validate:"required"`
}

// Payable is the amount an order built from this cart will charge.
func (c *Cart) Payable() float64 {
	if c.TotalAfterDiscount != nil {
		return *c.TotalAfterDiscount
	}
	return c.CartTotal
}
