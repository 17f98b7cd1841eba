package rules

import (
	"fmt"

	"restaurant_pos_backend/internal/models"
)

// TableStatusFor maps an order status to the status its table should take.
// clearActive is true when the table must drop its active order reference.
func TableStatusFor(status models.OrderStatus) (tableStatus models.TableStatus, clearActive bool) {
	if status.IsTerminal() {
		return models.TableStatusAvailable, true
	}
	return models.TableStatusOccupied, false
}

// ApplyOrderStatus updates the table with tableID inside tables for an order
// status change and reports whether anything changed. The slice is modified in place.
func ApplyOrderStatus(tables []models.Table, tableID, orderID string, status models.OrderStatus) (bool, error) {
	idx := FindTable(tables, tableID)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	t := &tables[idx]
	next, clearActive := TableStatusFor(status)

	if clearActive {
		// a newer order already owns the table
		if t.ActiveOrderID != nil && *t.ActiveOrderID != orderID {
			return false, nil
		}
		changed := t.Status != next || t.ActiveOrderID != nil
		t.Status = next
		t.ActiveOrderID = nil
		return changed, nil
	}

	sameOrder := t.ActiveOrderID != nil && *t.ActiveOrderID == orderID
	if sameOrder && t.Status == models.TableStatusBilling {
		return false, nil
	}
	changed := !sameOrder || t.Status != next
	id := orderID
	t.Status = next
	t.ActiveOrderID = &id
	return changed, nil
}

// MarkBilling moves an occupied table to billing for its active order.
func MarkBilling(tables []models.Table, tableID, orderID string) error {
	idx := FindTable(tables, tableID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	id := orderID
	tables[idx].Status = models.TableStatusBilling
	tables[idx].ActiveOrderID = &id
	return nil
}

// FindTable returns the index of tableID in tables or -1.
func FindTable(tables []models.Table, tableID string) int {
	for i := range tables {
		if tables[i].ID == tableID {
			return i
		}
	}
	return -1
}
