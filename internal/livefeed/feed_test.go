package livefeed

import (
	"encoding/json"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "pos:live:tables", Channel(models.FeedTables))
	assert.Equal(t, "pos:live:orders", Channel(models.FeedOrders))
}

func TestDecode(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	payload, err := json.Marshal(models.Event{
		Type:       models.EventTableUpdated,
		TableMapID: "salao",
		TableID:    "t1",
		Status:     "occupied",
		OccurredAt: at,
	})
	require.NoError(t, err)

	event, err := decode(string(payload))
	require.NoError(t, err)
	assert.Equal(t, models.EventTableUpdated, event.Type)
	assert.Equal(t, "t1", event.TableID)
	assert.True(t, at.Equal(event.OccurredAt))
	assert.Equal(t, models.FeedTables, event.Feed())

	_, err = decode("{not json")
	assert.Error(t, err)
}
