package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/rules"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error
	GetOrderByID(ctx context.Context, executor SQLExecutor, orderID string) (*models.Order, error)
	// GetOrderForUpdate locks the order row until the surrounding transaction ends.
	GetOrderForUpdate(ctx context.Context, executor SQLExecutor, orderID string) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, items, subtotal, discount_type, discount_value, discount, total,
	status, order_type, table_map_id, table_id, waiter_name, payment, notes,
	created_at, updated_at, closed_at`

// encodeItems always writes the canonical array shape.
func encodeItems(items []models.OrderItem) ([]byte, error) {
	if items == nil {
		items = []models.OrderItem{}
	}
	return json.Marshal(items)
}

func encodePayment(p *models.PaymentInfo) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (r *orderRepository) CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	itemsJSON, err := encodeItems(order.Items)
	if err != nil {
		return fmt.Errorf("%w: encoding order items: %v", ErrDatabaseError, err)
	}
	paymentJSON, err := encodePayment(order.Payment)
	if err != nil {
		return fmt.Errorf("%w: encoding payment: %v", ErrDatabaseError, err)
	}

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err = executor.ExecContext(ctx, query,
		order.ID, order.UserID, itemsJSON, order.Subtotal, string(order.DiscountType), order.DiscountValue,
		order.Discount, order.Total, string(order.Status), string(order.OrderType), order.TableMapID,
		order.TableID, order.WaiterName, paymentJSON, order.Notes, order.CreatedAt, order.UpdatedAt, order.ClosedAt,
	)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: order %s (constraint: %s)", ErrDuplicateKey, order.ID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return nil
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o            models.Order
		rawItems     []byte
		rawPayment   []byte
		discountType string
		status       string
		orderType    string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &rawItems, &o.Subtotal, &discountType, &o.DiscountValue, &o.Discount, &o.Total,
		&status, &orderType, &o.TableMapID, &o.TableID, &o.WaiterName, &rawPayment, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	o.DiscountType = models.DiscountType(discountType)
	o.Status = models.OrderStatus(status)
	o.OrderType = models.OrderType(orderType)

	items, err := rules.NormalizeItems(rawItems)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.Items = items

	if len(rawPayment) > 0 {
		var p models.PaymentInfo
		if err := json.Unmarshal(rawPayment, &p); err != nil {
			return nil, fmt.Errorf("order %s: decoding payment: %w", o.ID, err)
		}
		o.Payment = &p
	}
	return &o, nil
}

func (r *orderRepository) getOrder(ctx context.Context, executor SQLExecutor, orderID string, lock bool) (*models.Order, error) {
	if !isRecordID(orderID) {
		return nil, ErrNotFound
	}
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	order, err := scanOrder(executor.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %s: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, executor SQLExecutor, orderID string) (*models.Order, error) {
	return r.getOrder(ctx, executor, orderID, false)
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, executor SQLExecutor, orderID string) (*models.Order, error) {
	return r.getOrder(ctx, executor, orderID, true)
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders o`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.TableID != nil && *filters.TableID != "" {
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.OrderType != nil && *filters.OrderType != "" {
		conditions = append(conditions, fmt.Sprintf("order_type = $%d", argCounter))
		args = append(args, *filters.OrderType)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.ParseInLocation("2006-01-02", *filters.Date, time.Local)
		if err == nil {
			startOfDay := parsedDate
			endOfDay := startOfDay.AddDate(0, 0, 1)
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d AND created_at < $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCounter))
		args = append(args, *filters.From)
		argCounter++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argCounter))
		args = append(args, *filters.To)
		argCounter++
	}
	if filters.ClosedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("closed_at >= $%d", argCounter))
		args = append(args, *filters.ClosedFrom)
		argCounter++
	}
	if filters.ClosedTo != nil {
		conditions = append(conditions, fmt.Sprintf("closed_at < $%d", argCounter))
		args = append(args, *filters.ClosedTo)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
		args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		order, err := scanOrder(&countingScanner{rows: rows, total: &totalCount})
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

// countingScanner appends the COUNT(*) OVER() column to a row scan.
type countingScanner struct {
	rows  *sql.Rows
	total *int
}

func (s *countingScanner) Scan(dest ...interface{}) error {
	return s.rows.Scan(append(dest, s.total)...)
}

func (r *orderRepository) UpdateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	itemsJSON, err := encodeItems(order.Items)
	if err != nil {
		return fmt.Errorf("%w: encoding order items: %v", ErrDatabaseError, err)
	}
	paymentJSON, err := encodePayment(order.Payment)
	if err != nil {
		return fmt.Errorf("%w: encoding payment: %v", ErrDatabaseError, err)
	}
	order.UpdatedAt = time.Now()

	query := `UPDATE orders
	          SET items = $1, subtotal = $2, discount = $3, total = $4, status = $5,
	              payment = $6, notes = $7, updated_at = $8, closed_at = $9
	          WHERE id = $10`
	result, err := executor.ExecContext(ctx, query,
		itemsJSON, order.Subtotal, order.Discount, order.Total, string(order.Status),
		paymentJSON, order.Notes, order.UpdatedAt, order.ClosedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating order %s: %v", ErrDatabaseError, order.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order update %s: %v", ErrDatabaseError, order.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
