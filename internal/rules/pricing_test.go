package rules

import (
	"testing"

	"restaurant_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtotal(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 3, Price: 0.1},
		{Quantity: 2, Price: 12.45},
	}
	assert.Equal(t, 25.2, Subtotal(items))
	assert.Equal(t, 0.0, Subtotal(nil))
}

func TestDiscountAmount(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.DiscountType
		value   float64
		want    float64
		wantErr bool
	}{
		{"none", models.DiscountNone, 50, 0, false},
		{"percent", models.DiscountPercent, 10, 10, false},
		{"percent full", models.DiscountPercent, 100, 100, false},
		{"percent over 100", models.DiscountPercent, 101, 0, true},
		{"percent negative", models.DiscountPercent, -1, 0, true},
		{"fixed", models.DiscountFixed, 15.5, 15.5, false},
		{"fixed capped at subtotal", models.DiscountFixed, 250, 100, false},
		{"fixed negative", models.DiscountFixed, -5, 0, true},
		{"unknown type", models.DiscountType("bogus"), 5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiscountAmount(100, tt.kind, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDiscount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 90.0, Total(100, 10))
	assert.Equal(t, 0.0, Total(10, 20))
	assert.Equal(t, 0.3, Total(0.4, 0.1))
}

func TestRepriceCapsDiscount(t *testing.T) {
	order := &models.Order{
		Items:    []models.OrderItem{{Quantity: 1, Price: 8}},
		Discount: 10,
	}
	Reprice(order)
	assert.Equal(t, 8.0, order.Subtotal)
	assert.Equal(t, 8.0, order.Discount)
	assert.Equal(t, 0.0, order.Total)
}

func TestRepriceKeepsDiscountAmount(t *testing.T) {
	order := &models.Order{
		Items:    []models.OrderItem{{Quantity: 2, Price: 25}},
		Discount: 5,
	}
	Reprice(order)
	assert.Equal(t, 50.0, order.Subtotal)
	assert.Equal(t, 5.0, order.Discount)
	assert.Equal(t, 45.0, order.Total)
}
