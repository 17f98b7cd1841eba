package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
)

// TableMapRepository stores floor plans. A map's tables live in one embedded
// JSON array, so every table change rewrites the whole array.
type TableMapRepository interface {
	CreateMap(ctx context.Context, executor SQLExecutor, tableMap *models.TableMap) error
	GetMapByID(ctx context.Context, executor SQLExecutor, mapID string) (*models.TableMap, error)
	// GetMapForUpdate locks the map row until the surrounding transaction ends.
	GetMapForUpdate(ctx context.Context, executor SQLExecutor, mapID string) (*models.TableMap, error)
	GetMaps(ctx context.Context) ([]models.TableMap, error)
	// ReplaceTables writes tables only if the stored version equals expectedVersion
	// and returns the new version.
	ReplaceTables(ctx context.Context, executor SQLExecutor, mapID string, tables []models.Table, expectedVersion int64) (int64, error)
	DeleteMap(ctx context.Context, executor SQLExecutor, mapID string) error
}

type tableMapRepository struct {
	db *sql.DB
}

// NewTableMapRepository creates a new instance of TableMapRepository.
func NewTableMapRepository(db *sql.DB) TableMapRepository {
	return &tableMapRepository{db: db}
}

func encodeTables(tables []models.Table) ([]byte, error) {
	if tables == nil {
		tables = []models.Table{}
	}
	return json.Marshal(tables)
}

func scanTableMap(row scanner) (*models.TableMap, error) {
	m := &models.TableMap{}
	var rawTables []byte
	if err := row.Scan(&m.ID, &m.Name, &rawTables, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Tables = []models.Table{}
	if len(rawTables) > 0 {
		if err := json.Unmarshal(rawTables, &m.Tables); err != nil {
			return nil, fmt.Errorf("table map %s: decoding tables: %w", m.ID, err)
		}
	}
	return m, nil
}

func (r *tableMapRepository) CreateMap(ctx context.Context, executor SQLExecutor, tableMap *models.TableMap) error {
	tablesJSON, err := encodeTables(tableMap.Tables)
	if err != nil {
		return fmt.Errorf("%w: encoding tables: %v", ErrDatabaseError, err)
	}
	now := time.Now()
	tableMap.CreatedAt, tableMap.UpdatedAt = now, now
	tableMap.Version = 1

	query := `INSERT INTO table_maps (id, name, tables, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = executor.ExecContext(ctx, query, tableMap.ID, tableMap.Name, tablesJSON, tableMap.Version, now, now)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: table map name '%s' already exists (constraint: %s)", ErrDuplicateKey, tableMap.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating table map: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *tableMapRepository) getMap(ctx context.Context, executor SQLExecutor, mapID string, lock bool) (*models.TableMap, error) {
	if !isRecordID(mapID) {
		return nil, ErrNotFound
	}
	if executor == nil {
		executor = r.db
	}
	query := `SELECT id, name, tables, version, created_at, updated_at FROM table_maps WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	m, err := scanTableMap(executor.QueryRowContext(ctx, query, mapID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table map %s: %v", ErrDatabaseError, mapID, err)
	}
	return m, nil
}

func (r *tableMapRepository) GetMapByID(ctx context.Context, executor SQLExecutor, mapID string) (*models.TableMap, error) {
	return r.getMap(ctx, executor, mapID, false)
}

func (r *tableMapRepository) GetMapForUpdate(ctx context.Context, executor SQLExecutor, mapID string) (*models.TableMap, error) {
	return r.getMap(ctx, executor, mapID, true)
}

func (r *tableMapRepository) GetMaps(ctx context.Context) ([]models.TableMap, error) {
	maps := []models.TableMap{}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, tables, version, created_at, updated_at FROM table_maps ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: getting table maps: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanTableMap(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning table map: %v", ErrDatabaseError, err)
		}
		maps = append(maps, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table maps: %v", ErrDatabaseError, err)
	}
	return maps, nil
}

func (r *tableMapRepository) ReplaceTables(ctx context.Context, executor SQLExecutor, mapID string, tables []models.Table, expectedVersion int64) (int64, error) {
	if !isRecordID(mapID) {
		return 0, ErrNotFound
	}
	tablesJSON, err := encodeTables(tables)
	if err != nil {
		return 0, fmt.Errorf("%w: encoding tables: %v", ErrDatabaseError, err)
	}
	query := `UPDATE table_maps SET tables = $1, version = version + 1, updated_at = $2
	          WHERE id = $3 AND version = $4
	          RETURNING version`
	var newVersion int64
	err = executor.QueryRowContext(ctx, query, tablesJSON, time.Now(), mapID, expectedVersion).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.getMap(ctx, executor, mapID, false); errors.Is(getErr, ErrNotFound) {
				return 0, ErrNotFound
			}
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("%w: rewriting tables of map %s: %v", ErrDatabaseError, mapID, err)
	}
	return newVersion, nil
}

func (r *tableMapRepository) DeleteMap(ctx context.Context, executor SQLExecutor, mapID string) error {
	if !isRecordID(mapID) {
		return ErrNotFound
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM table_maps WHERE id = $1`, mapID)
	if err != nil {
		return fmt.Errorf("%w: deleting table map %s: %v", ErrDatabaseError, mapID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
