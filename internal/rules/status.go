package rules

import "restaurant_pos_backend/internal/models"

// AggregateStatus derives an order's transitional status from its items.
// It never returns a terminal status.
func AggregateStatus(items []models.OrderItem) models.OrderStatus {
	if len(items) == 0 {
		return models.OrderStatusPending
	}

	counts := make(map[models.ItemStatus]int, 5)
	for _, item := range items {
		counts[item.Status]++
	}
	n := len(items)
	delivered := counts[models.ItemStatusDelivered]
	ready := counts[models.ItemStatusReady]

	switch {
	case delivered == n:
		return models.OrderStatusDelivered
	case ready+delivered == n:
		return models.OrderStatusReady
	case counts[models.ItemStatusPending] > 0 || counts[models.ItemStatusPreparing] > 0:
		return models.OrderStatusPending
	case counts[models.ItemStatusFinished] == n:
		return models.OrderStatusReady
	default:
		return models.OrderStatusPending
	}
}

// ResolveOrderStatus keeps Pago and Cancelado sticky and otherwise aggregates.
func ResolveOrderStatus(current models.OrderStatus, items []models.OrderItem) models.OrderStatus {
	if current.IsTerminal() {
		return current
	}
	return AggregateStatus(items)
}
