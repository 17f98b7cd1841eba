package rules

import (
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidDiscount is returned for a discount outside its allowed range.
var ErrInvalidDiscount = errors.New("invalid discount")

var hundred = decimal.NewFromInt(100)

// Subtotal sums quantity*price over the items, rounded to cents.
func Subtotal(items []models.OrderItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2).InexactFloat64()
}

// DiscountAmount computes the discount applied at order creation. The result
// never exceeds the subtotal.
func DiscountAmount(subtotal float64, kind models.DiscountType, value float64) (float64, error) {
	sub := decimal.NewFromFloat(subtotal)
	v := decimal.NewFromFloat(value)
	var amount decimal.Decimal
	switch kind {
	case models.DiscountNone:
		return 0, nil
	case models.DiscountPercent:
		if v.IsNegative() || v.GreaterThan(hundred) {
			return 0, fmt.Errorf("%w: percent must be between 0 and 100, got %v", ErrInvalidDiscount, value)
		}
		amount = sub.Mul(v).Div(hundred)
	case models.DiscountFixed:
		if v.IsNegative() {
			return 0, fmt.Errorf("%w: fixed amount must not be negative, got %v", ErrInvalidDiscount, value)
		}
		amount = v
	default:
		return 0, fmt.Errorf("%w: unknown discount type %q", ErrInvalidDiscount, kind)
	}
	if amount.GreaterThan(sub) {
		amount = sub
	}
	return amount.Round(2).InexactFloat64(), nil
}

// Total is subtotal minus discount, floored at zero.
func Total(subtotal, discount float64) float64 {
	t := decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(discount))
	if t.IsNegative() {
		return 0
	}
	return t.Round(2).InexactFloat64()
}

// Reprice recomputes subtotal and total, keeping the discount amount fixed at
// creation but never letting it exceed the new subtotal.
func Reprice(order *models.Order) {
	order.Subtotal = Subtotal(order.Items)
	if order.Discount > order.Subtotal {
		order.Discount = order.Subtotal
	}
	order.Total = Total(order.Subtotal, order.Discount)
}
