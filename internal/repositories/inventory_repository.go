package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
)

// InventoryRepository defines the interface for inventory-related database operations.
// Items are addressed by (category, id) the same way they are grouped on the menu.
type InventoryRepository interface {
	CreateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error
	GetItemByID(ctx context.Context, executor SQLExecutor, itemID string) (*models.InventoryItem, error)
	// GetItemForUpdate locks the row until the surrounding transaction ends.
	GetItemForUpdate(ctx context.Context, executor SQLExecutor, categoryID, itemID string) (*models.InventoryItem, error)
	GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	// UpdateItem writes the item only if its stored version equals expectedVersion.
	UpdateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem, expectedVersion int64) error
	SetQuantity(ctx context.Context, executor SQLExecutor, itemID string, quantity float64, updatedAt time.Time) error
	DeleteItem(ctx context.Context, executor SQLExecutor, itemID string) error
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryColumns = `id, name, category_id, quantity, min_quantity, unit, price, supplier, description,
	version, created_at, updated_at`

func scanInventoryItem(row scanner, extra ...interface{}) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	var quantity, minQuantity sql.NullFloat64
	dest := []interface{}{
		&item.ID, &item.Name, &item.CategoryID, &quantity, &minQuantity, &item.Unit, &item.Price,
		&item.Supplier, &item.Description, &item.Version, &item.CreatedAt, &item.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if quantity.Valid {
		v := quantity.Float64
		item.Quantity = &v
	}
	if minQuantity.Valid {
		v := minQuantity.Float64
		item.MinQuantity = &v
	}
	return item, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *inventoryRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error {
	query := `INSERT INTO inventory_items (` + inventoryColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.Version == 0 {
		item.Version = 1
	}

	_, err := executor.ExecContext(ctx, query,
		item.ID, item.Name, item.CategoryID, nullFloat(item.Quantity), nullFloat(item.MinQuantity),
		item.Unit, item.Price, item.Supplier, item.Description, item.Version, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: inventory item '%s' already exists in category '%s' (constraint: %s)",
				ErrDuplicateKey, item.Name, item.CategoryID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating inventory item: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *inventoryRepository) GetItemByID(ctx context.Context, executor SQLExecutor, itemID string) (*models.InventoryItem, error) {
	if !isRecordID(itemID) {
		return nil, ErrNotFound
	}
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1`
	item, err := scanInventoryItem(executor.QueryRowContext(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %s: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *inventoryRepository) GetItemForUpdate(ctx context.Context, executor SQLExecutor, categoryID, itemID string) (*models.InventoryItem, error) {
	if !isRecordID(itemID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE category_id = $1 AND id = $2 FOR UPDATE`
	item, err := scanInventoryItem(executor.QueryRowContext(ctx, query, categoryID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking inventory item %s/%s: %v", ErrDatabaseError, categoryID, itemID, err)
	}
	return item, nil
}

func (r *inventoryRepository) GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	items := []models.InventoryItem{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + inventoryColumns + `, COUNT(*) OVER() AS total_count FROM inventory_items`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CategoryID != nil && *filters.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.LowStock {
		conditions = append(conditions, "quantity IS NOT NULL AND min_quantity IS NOT NULL AND quantity <= min_quantity")
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY category_id, name")
	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
		args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanInventoryItem(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

func (r *inventoryRepository) UpdateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem, expectedVersion int64) error {
	if !isRecordID(item.ID) {
		return ErrNotFound
	}
	query := `UPDATE inventory_items
	          SET name = $1, category_id = $2, quantity = $3, min_quantity = $4, unit = $5, price = $6,
	              supplier = $7, description = $8, version = version + 1, updated_at = $9
	          WHERE id = $10 AND version = $11
	          RETURNING version`
	item.UpdatedAt = time.Now()
	err := executor.QueryRowContext(ctx, query,
		item.Name, item.CategoryID, nullFloat(item.Quantity), nullFloat(item.MinQuantity), item.Unit, item.Price,
		item.Supplier, item.Description, item.UpdatedAt, item.ID, expectedVersion,
	).Scan(&item.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// distinguish a missing row from a stale version
			if _, getErr := r.GetItemByID(ctx, executor, item.ID); errors.Is(getErr, ErrNotFound) {
				return ErrNotFound
			}
			return ErrVersionConflict
		}
		if pqErr, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: inventory item '%s' (constraint: %s)", ErrDuplicateKey, item.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating inventory item %s: %v", ErrDatabaseError, item.ID, err)
	}
	return nil
}

func (r *inventoryRepository) SetQuantity(ctx context.Context, executor SQLExecutor, itemID string, quantity float64, updatedAt time.Time) error {
	if !isRecordID(itemID) {
		return ErrNotFound
	}
	query := `UPDATE inventory_items SET quantity = $1, version = version + 1, updated_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, quantity, updatedAt, itemID)
	if err != nil {
		return fmt.Errorf("%w: updating stock for item %s: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) DeleteItem(ctx context.Context, executor SQLExecutor, itemID string) error {
	if !isRecordID(itemID) {
		return ErrNotFound
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("%w: deleting inventory item %s: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
