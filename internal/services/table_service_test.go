package services

import (
	"context"
	"testing"

	"restaurant_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTableFixture() (TableService, *fakeTableMapRepo, *recordingNotifier) {
	repo := newFakeTableMapRepo()
	notifier := &recordingNotifier{}
	return NewTableService(repo, fakeTx{}, notifier, nil), repo, notifier
}

func TestCreateMap(t *testing.T) {
	svc, _, notifier := newTableFixture()
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, CreateTableMapRequest{
		Name:   " Varanda ",
		Tables: []TableRequest{{Name: "V1", Number: 1, Seats: 2}, {Name: "V2", Number: 2, Seats: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Varanda", m.Name)
	assert.Equal(t, int64(1), m.Version)
	require.Len(t, m.Tables, 2)
	for _, table := range m.Tables {
		assert.NotEmpty(t, table.ID)
		assert.Equal(t, models.TableStatusAvailable, table.Status)
		assert.Nil(t, table.ActiveOrderID)
	}
	assert.Equal(t, []models.EventType{models.EventTableUpdated}, notifier.types())

	_, err = svc.CreateMap(ctx, CreateTableMapRequest{Name: "varanda"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateMap(ctx, CreateTableMapRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateMap(ctx, CreateTableMapRequest{Name: "Bar", Tables: []TableRequest{{Name: ""}}})
	assert.ErrorIs(t, err, ErrValidation)

	maps, err := svc.GetMaps(ctx)
	require.NoError(t, err)
	assert.Len(t, maps, 1)
}

func TestAddAndRemoveTable(t *testing.T) {
	svc, _, _ := newTableFixture()
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, CreateTableMapRequest{Name: "Salão"})
	require.NoError(t, err)

	m, err = svc.AddTable(ctx, m.ID, AddTableRequest{TableRequest: TableRequest{Name: "Mesa 1", Seats: 4}, Version: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Version)
	require.Len(t, m.Tables, 1)

	_, err = svc.AddTable(ctx, m.ID, AddTableRequest{TableRequest: TableRequest{Name: "Mesa 2"}, Version: 1})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.AddTable(ctx, m.ID, AddTableRequest{TableRequest: TableRequest{Name: "mesa 1"}})
	assert.ErrorIs(t, err, ErrValidation)

	m, err = svc.RemoveTable(ctx, m.ID, m.Tables[0].ID)
	require.NoError(t, err)
	assert.Empty(t, m.Tables)

	_, err = svc.RemoveTable(ctx, m.ID, "ghost")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = svc.AddTable(ctx, "ghost", AddTableRequest{TableRequest: TableRequest{Name: "X"}})
	assert.ErrorIs(t, err, ErrTableMapNotFound)
}

func TestSetTableStatus(t *testing.T) {
	svc, repo, _ := newTableFixture()
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, CreateTableMapRequest{Name: "Salão", Tables: []TableRequest{{Name: "Mesa 1"}}})
	require.NoError(t, err)
	tableID := m.Tables[0].ID

	m, err = svc.SetTableStatus(ctx, m.ID, tableID, SetTableStatusRequest{Status: "reserved"})
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusReserved, m.Tables[0].Status)

	_, err = svc.SetTableStatus(ctx, m.ID, tableID, SetTableStatusRequest{Status: "occupied"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.OccupyTable(ctx, nil, m.ID, tableID, "o1"))
	assert.Equal(t, models.TableStatusOccupied, repo.table(m.ID, tableID).Status)

	_, err = svc.SetTableStatus(ctx, m.ID, tableID, SetTableStatusRequest{Status: "available"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOccupyTableRules(t *testing.T) {
	svc, repo, _ := newTableFixture()
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, CreateTableMapRequest{Name: "Salão", Tables: []TableRequest{{Name: "Mesa 1"}}})
	require.NoError(t, err)
	tableID := m.Tables[0].ID

	require.NoError(t, svc.OccupyTable(ctx, nil, m.ID, tableID, "o1"))
	require.NoError(t, svc.OccupyTable(ctx, nil, m.ID, tableID, "o1"))
	assert.ErrorIs(t, svc.OccupyTable(ctx, nil, m.ID, tableID, "o2"), ErrValidation)

	changed, err := svc.SyncOrder(ctx, nil, m.ID, tableID, "o1", models.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, repo.table(m.ID, tableID).ActiveOrderID)

	changed, err = svc.SyncOrder(ctx, nil, m.ID, tableID, "o1", models.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = svc.SyncOrder(ctx, nil, m.ID, "ghost", "o1", models.OrderStatusPending)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.ErrorIs(t, svc.OccupyTable(ctx, nil, "ghost", tableID, "o1"), ErrTableMapNotFound)
}

func TestDeleteMapRefusesOpenOrders(t *testing.T) {
	svc, _, _ := newTableFixture()
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, CreateTableMapRequest{Name: "Salão", Tables: []TableRequest{{Name: "Mesa 1"}}})
	require.NoError(t, err)
	require.NoError(t, svc.OccupyTable(ctx, nil, m.ID, m.Tables[0].ID, "o1"))

	assert.ErrorIs(t, svc.DeleteMap(ctx, m.ID), ErrValidation)

	_, err = svc.SyncOrder(ctx, nil, m.ID, m.Tables[0].ID, "o1", models.OrderStatusCancelled)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMap(ctx, m.ID))

	_, err = svc.GetMapByID(ctx, m.ID)
	assert.ErrorIs(t, err, ErrTableMapNotFound)
	assert.ErrorIs(t, svc.DeleteMap(ctx, m.ID), ErrTableMapNotFound)
}
