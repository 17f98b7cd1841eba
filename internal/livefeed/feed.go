package livefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "pos:live:"

// Channel returns the Redis channel for a feed name.
func Channel(feed string) string {
	return channelPrefix + feed
}

// Feed publishes change events over Redis pub/sub and lets HTTP clients
// subscribe to them.
type Feed struct {
	rdb redis.UniversalClient
}

// New creates a Feed on rdb. The client is owned by the caller.
func New(rdb redis.UniversalClient) *Feed {
	return &Feed{rdb: rdb}
}

// PublishChange sends event to the channel of its feed.
func (f *Feed) PublishChange(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode live event: %w", err)
	}
	return f.rdb.Publish(ctx, Channel(event.Feed()), payload).Err()
}

// Subscribe listens on the given feeds until ctx is done or the returned
// close function is called.
func (f *Feed) Subscribe(ctx context.Context, feeds ...string) (<-chan models.Event, func() error, error) {
	channels := make([]string, 0, len(feeds))
	for _, feed := range feeds {
		channels = append(channels, Channel(feed))
	}
	ps := f.rdb.Subscribe(ctx, channels...)
	// wait for the subscription confirmation so no event published after this returns is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	out := make(chan models.Event, 16)
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				event, err := decode(msg.Payload)
				if err != nil {
					utils.LogWarn("Dropping malformed live event", map[string]interface{}{"channel": msg.Channel, "error": err.Error()})
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, ps.Close, nil
}

func decode(payload string) (models.Event, error) {
	var event models.Event
	err := json.Unmarshal([]byte(payload), &event)
	return event, err
}
