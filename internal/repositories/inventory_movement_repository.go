package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
)

// InventoryMovementRepository defines the interface for stock movement database operations.
type InventoryMovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) error
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error)
}

type inventoryMovementRepository struct {
	db *sql.DB
}

// NewInventoryMovementRepository creates a new instance of InventoryMovementRepository.
func NewInventoryMovementRepository(db *sql.DB) InventoryMovementRepository {
	return &inventoryMovementRepository{db: db}
}

func (r *inventoryMovementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) error {
	query := `INSERT INTO stock_movements
	          (id, inventory_item_id, category_id, user_id, order_id, movement_type, delta, quantity_after, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	_, err := executor.ExecContext(ctx, query,
		movement.ID, movement.InventoryItemID, movement.CategoryID, movement.UserID, movement.OrderID,
		movement.MovementType, movement.Delta, movement.QuantityAfter, movement.Reason, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *inventoryMovementRepository) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0
	for _, id := range []*string{filters.InventoryItemID, filters.OrderID} {
		if id != nil && *id != "" && !isRecordID(*id) {
			return movements, 0, nil
		}
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, inventory_item_id, category_id, user_id, order_id, movement_type, delta, quantity_after, reason, created_at,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.InventoryItemID != nil && *filters.InventoryItemID != "" {
		conditions = append(conditions, fmt.Sprintf("inventory_item_id = $%d", argCount))
		args = append(args, *filters.InventoryItemID)
		argCount++
	}
	if filters.OrderID != nil && *filters.OrderID != "" {
		conditions = append(conditions, fmt.Sprintf("order_id = $%d", argCount))
		args = append(args, *filters.OrderID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")
	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
		args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(
			&m.ID, &m.InventoryItemID, &m.CategoryID, &m.UserID, &m.OrderID, &m.MovementType,
			&m.Delta, &m.QuantityAfter, &m.Reason, &m.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
