package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"restaurant_pos_backend/internal/models"

	"github.com/google/uuid"
)

// DefaultUnit is used when an item was stored without a unit.
const DefaultUnit = "Un"

// NormalizeItems turns a stored items value into the canonical ordered list.
// Older rows may hold null, an array, or an object keyed by "0".."n-1".
func NormalizeItems(raw json.RawMessage) ([]models.OrderItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.OrderItem{}, nil
	}

	var elements []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedItems, err)
		}
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedItems, err)
		}
		elements = orderedValues(keyed)
	default:
		return nil, fmt.Errorf("%w: unexpected value %.20q", ErrMalformedItems, string(trimmed))
	}

	items := make([]models.OrderItem, 0, len(elements))
	for i, el := range elements {
		if bytes.Equal(bytes.TrimSpace(el), []byte("null")) {
			continue
		}
		var item models.OrderItem
		if err := json.Unmarshal(el, &item); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedItems, i, err)
		}
		items = append(items, BackfillItem(item))
	}
	return items, nil
}

// orderedValues extracts map values by numeric key when the keys are exactly
// 0..n-1, otherwise in lexicographic key order.
func orderedValues(keyed map[string]json.RawMessage) []json.RawMessage {
	n := len(keyed)
	out := make([]json.RawMessage, 0, n)

	indexed := make([]json.RawMessage, n)
	seen := 0
	for k, v := range keyed {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= n || indexed[idx] != nil || strconv.Itoa(idx) != k {
			break
		}
		indexed[idx] = v
		seen++
	}
	if seen == n {
		return append(out, indexed...)
	}

	keys := make([]string, 0, n)
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, keyed[k])
	}
	return out
}

// BackfillItem fills defaults for missing fields. It is idempotent.
func BackfillItem(item models.OrderItem) models.OrderItem {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.Price < 0 {
		item.Price = 0
	}
	if item.Unit == "" {
		item.Unit = DefaultUnit
	}
	if item.Status == "" {
		item.Status = models.ItemStatusPending
	}
	if item.StockDeducted < 0 {
		item.StockDeducted = 0
	}
	if item.StockDeducted > item.Quantity {
		item.StockDeducted = item.Quantity
	}
	return item
}

// BackfillItems applies BackfillItem to every element, returning a new slice.
func BackfillItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, item := range items {
		out[i] = BackfillItem(item)
	}
	return out
}
