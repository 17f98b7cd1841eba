package services

import (
	"context"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/pkg/utils"
)

// Notifier delivers events to external consumers. Implementations must not block.
type Notifier interface {
	Notify(event models.Event)
}

// ChangePublisher fans change events out to live subscribers.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event models.Event) error
}

// emitter sends committed changes to both sinks; either may be nil.
type emitter struct {
	notifier Notifier
	changes  ChangePublisher
}

func (e emitter) emit(ctx context.Context, events ...models.Event) {
	for _, event := range events {
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now()
		}
		if e.notifier != nil {
			e.notifier.Notify(event)
		}
		if e.changes != nil {
			if err := e.changes.PublishChange(ctx, event); err != nil {
				utils.LogWarn("Failed to publish live change", map[string]interface{}{
					"event": string(event.Type),
					"error": err.Error(),
				})
			}
		}
	}
}
