package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// In-memory stand-ins for the Postgres repositories. Writes are not rolled
// back when a transaction fails.

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeInventoryRepo struct {
	mu    sync.Mutex
	items map[string]models.InventoryItem
}

func newFakeInventoryRepo(items ...models.InventoryItem) *fakeInventoryRepo {
	r := &fakeInventoryRepo{items: map[string]models.InventoryItem{}}
	for _, item := range items {
		if item.Version == 0 {
			item.Version = 1
		}
		r.items[item.ID] = item
	}
	return r
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneItem(item models.InventoryItem) *models.InventoryItem {
	item.Quantity = copyFloat(item.Quantity)
	item.MinQuantity = copyFloat(item.MinQuantity)
	return &item
}

func (r *fakeInventoryRepo) quantity(id string) *float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyFloat(r.items[id].Quantity)
}

func (r *fakeInventoryRepo) CreateItem(_ context.Context, _ repositories.SQLExecutor, item *models.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.CategoryID == item.CategoryID && existing.Name == item.Name {
			return repositories.ErrDuplicateKey
		}
	}
	item.Version = 1
	r.items[item.ID] = *cloneItem(*item)
	return nil
}

func (r *fakeInventoryRepo) GetItemByID(_ context.Context, _ repositories.SQLExecutor, itemID string) (*models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneItem(item), nil
}

func (r *fakeInventoryRepo) GetItemForUpdate(ctx context.Context, exec repositories.SQLExecutor, categoryID, itemID string) (*models.InventoryItem, error) {
	item, err := r.GetItemByID(ctx, exec, itemID)
	if err != nil {
		return nil, err
	}
	if item.CategoryID != categoryID {
		return nil, repositories.ErrNotFound
	}
	return item, nil
}

func (r *fakeInventoryRepo) GetItems(_ context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.InventoryItem{}
	for _, item := range r.items {
		if filters.CategoryID != nil && item.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.LowStock && !item.IsLowStock() {
			continue
		}
		out = append(out, *cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *fakeInventoryRepo) UpdateItem(_ context.Context, _ repositories.SQLExecutor, item *models.InventoryItem, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[item.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if existing.Version != expectedVersion {
		return repositories.ErrVersionConflict
	}
	item.Version = expectedVersion + 1
	r.items[item.ID] = *cloneItem(*item)
	return nil
}

func (r *fakeInventoryRepo) SetQuantity(_ context.Context, _ repositories.SQLExecutor, itemID string, quantity float64, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return repositories.ErrNotFound
	}
	item.Quantity = &quantity
	item.UpdatedAt = updatedAt
	item.Version++
	r.items[itemID] = item
	return nil
}

func (r *fakeInventoryRepo) DeleteItem(_ context.Context, _ repositories.SQLExecutor, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[itemID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []models.StockMovement
}

func (r *fakeMovementRepo) CreateMovement(_ context.Context, _ repositories.SQLExecutor, movement *models.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) GetMovements(_ context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.StockMovement{}
	for _, m := range r.movements {
		if filters.InventoryItemID != nil && m.InventoryItemID != *filters.InventoryItemID {
			continue
		}
		if filters.MovementType != nil && m.MovementType != *filters.MovementType {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *fakeMovementRepo) all() []models.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.StockMovement(nil), r.movements...)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newFakeOrderRepo(orders ...models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[string]models.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func cloneOrder(o models.Order) *models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	if o.Payment != nil {
		p := *o.Payment
		o.Payment = &p
	}
	return &o
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, _ repositories.SQLExecutor, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *cloneOrder(*order)
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, _ repositories.SQLExecutor, orderID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) GetOrderForUpdate(ctx context.Context, exec repositories.SQLExecutor, orderID string) (*models.Order, error) {
	return r.GetOrderByID(ctx, exec, orderID)
}

func (r *fakeOrderRepo) GetOrders(_ context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.orders {
		if filters.Status != nil && string(o.Status) != *filters.Status {
			continue
		}
		if filters.From != nil && o.CreatedAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && !o.CreatedAt.Before(*filters.To) {
			continue
		}
		if filters.ClosedFrom != nil && (o.ClosedAt == nil || o.ClosedAt.Before(*filters.ClosedFrom)) {
			continue
		}
		if filters.ClosedTo != nil && (o.ClosedAt == nil || !o.ClosedAt.Before(*filters.ClosedTo)) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateOrder(_ context.Context, _ repositories.SQLExecutor, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.orders[order.ID] = *cloneOrder(*order)
	return nil
}

type fakeTableMapRepo struct {
	mu   sync.Mutex
	maps map[string]models.TableMap
}

func newFakeTableMapRepo(maps ...models.TableMap) *fakeTableMapRepo {
	r := &fakeTableMapRepo{maps: map[string]models.TableMap{}}
	for _, m := range maps {
		if m.Version == 0 {
			m.Version = 1
		}
		r.maps[m.ID] = *cloneMap(m)
	}
	return r
}

func cloneMap(m models.TableMap) *models.TableMap {
	tables := make([]models.Table, len(m.Tables))
	for i, t := range m.Tables {
		if t.ActiveOrderID != nil {
			id := *t.ActiveOrderID
			t.ActiveOrderID = &id
		}
		tables[i] = t
	}
	m.Tables = tables
	return &m
}

func (r *fakeTableMapRepo) table(mapID, tableID string) models.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.maps[mapID].Tables {
		if t.ID == tableID {
			return t
		}
	}
	return models.Table{}
}

func (r *fakeTableMapRepo) CreateMap(_ context.Context, _ repositories.SQLExecutor, tableMap *models.TableMap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.maps {
		if strings.EqualFold(m.Name, tableMap.Name) {
			return repositories.ErrDuplicateKey
		}
	}
	tableMap.Version = 1
	r.maps[tableMap.ID] = *cloneMap(*tableMap)
	return nil
}

func (r *fakeTableMapRepo) GetMapByID(_ context.Context, _ repositories.SQLExecutor, mapID string) (*models.TableMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[mapID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneMap(m), nil
}

func (r *fakeTableMapRepo) GetMapForUpdate(ctx context.Context, exec repositories.SQLExecutor, mapID string) (*models.TableMap, error) {
	return r.GetMapByID(ctx, exec, mapID)
}

func (r *fakeTableMapRepo) GetMaps(_ context.Context) ([]models.TableMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.TableMap{}
	for _, m := range r.maps {
		out = append(out, *cloneMap(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTableMapRepo) ReplaceTables(_ context.Context, _ repositories.SQLExecutor, mapID string, tables []models.Table, expectedVersion int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[mapID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if m.Version != expectedVersion {
		return 0, repositories.ErrVersionConflict
	}
	m.Tables = tables
	m.Version++
	r.maps[mapID] = *cloneMap(m)
	return m.Version, nil
}

func (r *fakeTableMapRepo) DeleteMap(_ context.Context, _ repositories.SQLExecutor, mapID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.maps[mapID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.maps, mapID)
	return nil
}

type fakeAuthRepo struct {
	mu     sync.Mutex
	users  map[string]models.User
	hashes map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]models.User{}, hashes: map[string]string{}}
}

func (r *fakeAuthRepo) CreateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return repositories.ErrDuplicateKey
		}
	}
	user.IsActive = true
	r.users[user.ID] = *user
	r.hashes[user.ID] = hashedPassword
	return nil
}

func (r *fakeAuthRepo) FindUserByUsername(_ context.Context, username string) (*models.User, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, r.hashes[u.ID], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (r *fakeAuthRepo) FindUserByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *fakeAuthRepo) ListUsers(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeAuthRepo) CountUsers(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeAuthRepo) UpdateRole(_ context.Context, _ repositories.SQLExecutor, userID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Role = role
	r.users[userID] = u
	return nil
}

func (r *fakeAuthRepo) SetActive(_ context.Context, _ repositories.SQLExecutor, userID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsActive = active
	r.users[userID] = u
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Notify(event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []models.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.EventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (p *recordingPublisher) PublishChange(_ context.Context, event models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func qty(v float64) *float64 { return &v }
