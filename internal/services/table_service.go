package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/rules"

	"github.com/google/uuid"
)

// --- DTOs ---

// TableRequest describes a table inside a create or add request.
type TableRequest struct {
	Name   string `json:"name" binding:"required"`
	Number int    `json:"number"`
	Seats  int    `json:"seats"`
}

// CreateTableMapRequest DTO
type CreateTableMapRequest struct {
	Name   string         `json:"name" binding:"required"`
	Tables []TableRequest `json:"tables"`
}

// AddTableRequest DTO. Version is optional; when set it must match the stored map.
type AddTableRequest struct {
	TableRequest
	Version int64 `json:"version"`
}

// SetTableStatusRequest DTO
type SetTableStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Version int64  `json:"version"`
}

// TableService manages floor plans and manual table states.
type TableService interface {
	CreateMap(ctx context.Context, req CreateTableMapRequest) (*models.TableMap, error)
	GetMaps(ctx context.Context) ([]models.TableMap, error)
	GetMapByID(ctx context.Context, mapID string) (*models.TableMap, error)
	DeleteMap(ctx context.Context, mapID string) error
	AddTable(ctx context.Context, mapID string, req AddTableRequest) (*models.TableMap, error)
	RemoveTable(ctx context.Context, mapID, tableID string) (*models.TableMap, error)
	SetTableStatus(ctx context.Context, mapID, tableID string, req SetTableStatusRequest) (*models.TableMap, error)
	TableSynchronizer
}

// TableSynchronizer keeps a table's occupancy in step with its order. Both
// methods run inside the caller's transaction.
type TableSynchronizer interface {
	// OccupyTable seats a new order at a table that is free for it.
	OccupyTable(ctx context.Context, exec repositories.SQLExecutor, mapID, tableID, orderID string) error
	SyncOrder(ctx context.Context, exec repositories.SQLExecutor, mapID, tableID, orderID string, status models.OrderStatus) (bool, error)
	MarkBilling(ctx context.Context, exec repositories.SQLExecutor, mapID, tableID, orderID string) error
}

type tableService struct {
	tableMapRepo repositories.TableMapRepository
	tx           repositories.Transactor
	emitter
}

// NewTableService creates a new instance of TableService.
func NewTableService(tr repositories.TableMapRepository, tx repositories.Transactor, notifier Notifier, changes ChangePublisher) TableService {
	return &tableService{
		tableMapRepo: tr,
		tx:           tx,
		emitter:      emitter{notifier: notifier, changes: changes},
	}
}

var manualTableStatuses = map[models.TableStatus]bool{
	models.TableStatusAvailable:   true,
	models.TableStatusMaintenance: true,
	models.TableStatusReserved:    true,
}

func newTable(req TableRequest) (models.Table, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.Table{}, validationErrorf("table name is required")
	}
	if req.Seats < 0 || req.Number < 0 {
		return models.Table{}, validationErrorf("table number and seats must not be negative")
	}
	return models.Table{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(req.Name),
		Number: req.Number,
		Seats:  req.Seats,
		Status: models.TableStatusAvailable,
	}, nil
}

func (s *tableService) CreateMap(ctx context.Context, req CreateTableMapRequest) (*models.TableMap, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErrorf("map name is required")
	}
	tableMap := &models.TableMap{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(req.Name),
		Tables: make([]models.Table, 0, len(req.Tables)),
	}
	for _, tr := range req.Tables {
		table, err := newTable(tr)
		if err != nil {
			return nil, err
		}
		tableMap.Tables = append(tableMap.Tables, table)
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.tableMapRepo.CreateMap(ctx, exec, tableMap)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, validationErrorf("a map named %q already exists", tableMap.Name)
		}
		return nil, storeError(err, nil)
	}
	s.emit(ctx, models.Event{Type: models.EventTableUpdated, TableMapID: tableMap.ID})
	return tableMap, nil
}

func (s *tableService) GetMaps(ctx context.Context) ([]models.TableMap, error) {
	maps, err := s.tableMapRepo.GetMaps(ctx)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return maps, nil
}

func (s *tableService) GetMapByID(ctx context.Context, mapID string) (*models.TableMap, error) {
	m, err := s.tableMapRepo.GetMapByID(ctx, nil, mapID)
	if err != nil {
		return nil, storeError(err, ErrTableMapNotFound)
	}
	return m, nil
}

func (s *tableService) DeleteMap(ctx context.Context, mapID string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.tableMapRepo.GetMapForUpdate(ctx, exec, mapID)
		if err != nil {
			return err
		}
		for _, t := range m.Tables {
			if t.ActiveOrderID != nil {
				return validationErrorf("table %s still has an open order", t.Name)
			}
		}
		return s.tableMapRepo.DeleteMap(ctx, exec, mapID)
	})
	if err != nil {
		return storeError(err, ErrTableMapNotFound)
	}
	s.emit(ctx, models.Event{Type: models.EventTableUpdated, TableMapID: mapID})
	return nil
}

// mutateMap locks the map, applies fn to its tables and rewrites the array.
func (s *tableService) mutateMap(ctx context.Context, mapID string, version int64, fn func(m *models.TableMap) error) (*models.TableMap, error) {
	var result *models.TableMap
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.tableMapRepo.GetMapForUpdate(ctx, exec, mapID)
		if err != nil {
			return err
		}
		if version > 0 && version != m.Version {
			return ErrConflict
		}
		if err := fn(m); err != nil {
			return err
		}
		newVersion, err := s.tableMapRepo.ReplaceTables(ctx, exec, m.ID, m.Tables, m.Version)
		if err != nil {
			return err
		}
		m.Version = newVersion
		result = m
		return nil
	})
	if err != nil {
		return nil, storeError(err, ErrTableMapNotFound)
	}
	s.emit(ctx, models.Event{Type: models.EventTableUpdated, TableMapID: mapID})
	return result, nil
}

func (s *tableService) AddTable(ctx context.Context, mapID string, req AddTableRequest) (*models.TableMap, error) {
	table, err := newTable(req.TableRequest)
	if err != nil {
		return nil, err
	}
	return s.mutateMap(ctx, mapID, req.Version, func(m *models.TableMap) error {
		for _, t := range m.Tables {
			if strings.EqualFold(t.Name, table.Name) {
				return validationErrorf("table %q already exists in this map", table.Name)
			}
		}
		m.Tables = append(m.Tables, table)
		return nil
	})
}

func (s *tableService) RemoveTable(ctx context.Context, mapID, tableID string) (*models.TableMap, error) {
	return s.mutateMap(ctx, mapID, 0, func(m *models.TableMap) error {
		idx := rules.FindTable(m.Tables, tableID)
		if idx < 0 {
			return ErrTableNotFound
		}
		if m.Tables[idx].ActiveOrderID != nil {
			return validationErrorf("table %s still has an open order", m.Tables[idx].Name)
		}
		m.Tables = append(m.Tables[:idx], m.Tables[idx+1:]...)
		return nil
	})
}

func (s *tableService) SetTableStatus(ctx context.Context, mapID, tableID string, req SetTableStatusRequest) (*models.TableMap, error) {
	status := models.TableStatus(req.Status)
	if !manualTableStatuses[status] {
		return nil, validationErrorf("status %q cannot be set manually", req.Status)
	}
	return s.mutateMap(ctx, mapID, req.Version, func(m *models.TableMap) error {
		idx := rules.FindTable(m.Tables, tableID)
		if idx < 0 {
			return ErrTableNotFound
		}
		if m.Tables[idx].ActiveOrderID != nil {
			return validationErrorf("table %s has an open order", m.Tables[idx].Name)
		}
		m.Tables[idx].Status = status
		return nil
	})
}

func (s *tableService) OccupyTable(ctx context.Context, exec repositories.SQLExecutor, mapID, tableID, orderID string) error {
	m, err := s.tableMapRepo.GetMapForUpdate(ctx, exec, mapID)
	if err != nil {
		return storeError(err, ErrTableMapNotFound)
	}
	idx := rules.FindTable(m.Tables, tableID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	t := m.Tables[idx]
	if t.Status == models.TableStatusMaintenance {
		return validationErrorf("table %s is under maintenance", t.Name)
	}
	if t.ActiveOrderID != nil && *t.ActiveOrderID != orderID {
		return validationErrorf("table %s already has an open order", t.Name)
	}
	if _, err := rules.ApplyOrderStatus(m.Tables, tableID, orderID, models.OrderStatusPending); err != nil {
		return err
	}
	if _, err := s.tableMapRepo.ReplaceTables(ctx, exec, m.ID, m.Tables, m.Version); err != nil {
		return storeError(err, ErrTableMapNotFound)
	}
	return nil
}

// SyncOrder applies an order status to its table and reports whether the map changed.
func (s *tableService) SyncOrder(ctx context.Context, exec repositories.SQLExecutor, mapID, tableID, orderID string, status models.OrderStatus) (bool, error) {
	m, err := s.tableMapRepo.GetMapForUpdate(ctx, exec, mapID)
	if err != nil {
		return false, storeError(err, ErrTableMapNotFound)
	}
	changed, err := rules.ApplyOrderStatus(m.Tables, tableID, orderID, status)
	if err != nil {
		if errors.Is(err, rules.ErrTableNotFound) {
			return false, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
		}
		return false, err
	}
	if !changed {
		return false, nil
	}
	if _, err := s.tableMapRepo.ReplaceTables(ctx, exec, m.ID, m.Tables, m.Version); err != nil {
		return false, storeError(err, ErrTableMapNotFound)
	}
	return true, nil
}

func (s *tableService) MarkBilling(ctx context.Context, exec repositories.SQLExecutor, mapID, tableID, orderID string) error {
	m, err := s.tableMapRepo.GetMapForUpdate(ctx, exec, mapID)
	if err != nil {
		return storeError(err, ErrTableMapNotFound)
	}
	if err := rules.MarkBilling(m.Tables, tableID, orderID); err != nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	if _, err := s.tableMapRepo.ReplaceTables(ctx, exec, m.ID, m.Tables, m.Version); err != nil {
		return storeError(err, ErrTableMapNotFound)
	}
	return nil
}
