package handlers

import (
	"context"
	"io"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const liveKeepAlive = 25 * time.Second

// LiveSubscriber yields change events for the named feeds until closed.
type LiveSubscriber interface {
	Subscribe(ctx context.Context, feeds ...string) (<-chan models.Event, func() error, error)
}

// LiveHandler streams the current order list and table maps over
// server-sent events, re-sending a snapshot after every change.
type LiveHandler struct {
	feed         LiveSubscriber
	orderService services.OrderService
	tableService services.TableService
}

// NewLiveHandler creates a new LiveHandler. feed may be nil when no live
// backend is configured.
func NewLiveHandler(feed LiveSubscriber, os services.OrderService, ts services.TableService) *LiveHandler {
	return &LiveHandler{feed: feed, orderService: os, tableService: ts}
}

// StreamOrders streams open orders, optionally filtered by status.
func (h *LiveHandler) StreamOrders(c *gin.Context) {
	filters := models.OrderFilters{Status: optionalQuery(c, "status"), PageSize: 100}
	h.stream(c, models.FeedOrders, "orders", func(ctx context.Context) (interface{}, error) {
		orders, _, err := h.orderService.GetOrders(ctx, filters)
		return orders, err
	})
}

// StreamTables streams every table map.
func (h *LiveHandler) StreamTables(c *gin.Context) {
	h.stream(c, models.FeedTables, "tables", func(ctx context.Context) (interface{}, error) {
		return h.tableService.GetMaps(ctx)
	})
}

func (h *LiveHandler) stream(c *gin.Context, feed, eventName string, snapshot func(ctx context.Context) (interface{}, error)) {
	if h.feed == nil {
		respondServiceError(c, services.ErrBackendUnavailable, "Live updates are not configured.")
		return
	}
	ctx := c.Request.Context()

	events, closeSub, err := h.feed.Subscribe(ctx, feed)
	if err != nil {
		respondServiceError(c, services.ErrBackendUnavailable, "Failed to subscribe to live updates.")
		utils.LogError(err, "Live subscribe failed", map[string]interface{}{"feed": feed})
		return
	}
	defer func() {
		if err := closeSub(); err != nil {
			utils.LogWarn("Failed to close live subscription", map[string]interface{}{"feed": feed, "error": err.Error()})
		}
	}()

	data, err := snapshot(ctx)
	if err != nil {
		respondServiceError(c, err, "Failed to load live data.")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(eventName, data)
	c.Writer.Flush()

	ticker := time.NewTicker(liveKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().Unix()})
			return true
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := snapshot(ctx)
			if err != nil {
				c.SSEvent("error", gin.H{"message": "Failed to refresh live data", "event": event.Type})
				return true
			}
			c.SSEvent(eventName, data)
			return true
		}
	})
}
