package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/pkg/utils"

	"github.com/segmentio/kafka-go"
)

const writeTimeout = 5 * time.Second

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier queues events in memory and writes them to a topic from a
// single goroutine. Notify never blocks; events are dropped when the queue is full.
type KafkaNotifier struct {
	w       messageWriter
	service string

	mu      sync.RWMutex
	started bool
	closed  bool
	inbox   chan kafka.Message
	closeCh chan struct{}
}

// NewKafkaNotifier creates a notifier writing to topic on brokers. buf is the queue size.
func NewKafkaNotifier(brokers []string, topic, service string, buf int) *KafkaNotifier {
	return newNotifier(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}, service, buf)
}

func newNotifier(w messageWriter, service string, buf int) *KafkaNotifier {
	if buf <= 0 {
		buf = 256
	}
	return &KafkaNotifier{
		w:       w,
		service: service,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until Close drains the queue.
func (n *KafkaNotifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.closed {
		return
	}
	n.started = true
	go func() {
		defer close(n.closeCh)
		for m := range n.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			if err := n.w.WriteMessages(ctx, m); err != nil {
				utils.LogError(err, "Failed to deliver notification", map[string]interface{}{"key": string(m.Key)})
			}
			cancel()
		}
		if err := n.w.Close(); err != nil {
			utils.LogError(err, "Failed to close notification writer")
		}
	}()
}

// Notify enqueues an event keyed by its order, table map or inventory item.
func (n *KafkaNotifier) Notify(event models.Event) {
	value, err := json.Marshal(event)
	if err != nil {
		utils.LogError(err, "Failed to encode notification", map[string]interface{}{"event": string(event.Type)})
		return
	}
	msg := kafka.Message{
		Key:   []byte(partitionKey(event)),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(n.service)},
		},
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.inbox <- msg:
	default:
		utils.LogWarn("Notification queue full, dropping event", map[string]interface{}{"event": string(event.Type)})
	}
}

// Close stops accepting events, flushes the queue and waits for the writer.
func (n *KafkaNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.inbox)
	started := n.started
	n.mu.Unlock()
	if !started {
		if err := n.w.Close(); err != nil {
			utils.LogError(err, "Failed to close notification writer")
		}
		return
	}
	<-n.closeCh
}

func partitionKey(event models.Event) string {
	switch {
	case event.OrderID != "":
		return event.OrderID
	case event.TableMapID != "":
		return event.TableMapID
	default:
		return event.InventoryItemID
	}
}
