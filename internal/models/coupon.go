package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Coupon struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Discount  float64            `json:"discount" bson:"discount"`
	Expiry    time.Time          `json:"expiry" bson:"expiry"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type CouponPayload struct {
	Name     string    `json:"name" validate:"required,max=32"`
	Discount float64   `json:"discount" validate:"gt=0,lte=100"`
	Expiry   time.Time `json:"expiry" validate:"required"`
}

// Apply returns the discounted total rounded to cents.
func (c *Coupon) Apply(total float64) float64 {
	return RoundCents(total - total*c.Discount/100)
}

func RoundCents(v float64) float64 {
	if v < 0 {
		return -RoundCents(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
