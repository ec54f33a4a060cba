package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCouponApply(t *testing.T) {
	c := &Coupon{Discount: 10}
	assert.Equal(t, 72.0, c.Apply(80))
	assert.Equal(t, 17.99, (&Coupon{Discount: 10}).Apply(19.99))
	assert.Equal(t, 0.0, (&Coupon{Discount: 100}).Apply(42.5))
}

func TestCartPayable(t *testing.T) {
	cart := &Cart{CartTotal: 80}
	assert.Equal(t, 80.0, cart.Payable())

	discounted := 72.0
	cart.TotalAfterDiscount = &discounted
	assert.Equal(t, 72.0, cart.Payable())
}
