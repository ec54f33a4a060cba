package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderNotProcessed   OrderStatus = "Not Processed"
	OrderCashOnDelivery OrderStatus = "Cash on Delivery"
	OrderProcessing     OrderStatus = "Processing"
	OrderDispatched     OrderStatus = "Dispatched"
	OrderDelivered      OrderStatus = "Delivered"
	OrderCancelled      OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderNotProcessed:   {OrderProcessing, OrderCancelled},
	OrderCashOnDelivery: {OrderProcessing, OrderCancelled},
	OrderProcessing:     {OrderDispatched, OrderCancelled},
	OrderDispatched:     {OrderDelivered, OrderCancelled},
}

// CanTransition reports whether an order may move from s to next.
// Delivered and Cancelled have no outgoing edges.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderNotProcessed, OrderCashOnDelivery, OrderProcessing, OrderDispatched, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type StatusChange struct {
	Status    OrderStatus `json:"status" bson:"status"`
	ChangedAt time.Time   `json:"changed_at" bson:"changed_at"`
}

type PaymentIntent struct {
	Method   string  `json:"method" bson:"method"`
	Amount   float64 `json:"amount" bson:"amount"`
	Currency string  `json:"currency" bson:"currency"`
	Status   string  `json:"status" bson:"status"`
}

type ShippingInfo struct {
	FullName string `json:"full_name" bson:"full_name" validate:"required"`
	Address  string `json:"address" bson:"address" validate:"required"`
	City     string `json:"city" bson:"city" validate:"required"`
	Country  string `json:"country" bson:"country" validate:"required"`
	Pincode  string `json:"pincode" bson:"pincode" validate:"required"`
	Phone    string `json:"phone" bson:"phone" validate:"omitempty,e164"`
}

type Order struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderNumber   string             `json:"order_number" bson:"order_number"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id"`
	Items         []CartItem         `json:"items" bson:"items"`
	Payment       PaymentIntent      `json:"payment" bson:"payment"`
	Shipping      ShippingInfo       `json:"shipping" bson:"shipping"`
	Status        OrderStatus        `json:"status" bson:"status"`
	StatusHistory []StatusChange     `json:"status_history" bson:"status_history"`
	Total         float64            `json:"total" bson:"total"`
	Payable       float64            `json:"payable" bson:"payable"`
	Coupon        string             `json:"coupon,omitempty" bson:"coupon,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

type CreateOrderPayload struct {
	CashOnDelivery bool         `json:"cod"`
	Shipping       ShippingInfo `json:"shipping" validate:"required"`
}

type UpdateOrderStatusPayload struct {
	Status OrderStatus `json:"status" validate:"required"`
}
