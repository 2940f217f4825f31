package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "order-status"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes status changes keyed by order id so events for
// one order stay on one partition.
type KafkaNotifier struct {
	writer MessageWriter
	now    func() time.Time
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaNotifier(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w, now: time.Now}
}

type statusEvent struct {
	OrderID   domain.ID          `json:"order_id"`
	OrderNo   string             `json:"order_no"`
	UserID    domain.ID          `json:"user_id,omitempty"`
	Email     string             `json:"email,omitempty"`
	Status    domain.OrderStatus `json:"status"`
	ChangedAt time.Time          `json:"changed_at"`
}

func (n *KafkaNotifier) OrderStatusChanged(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(statusEvent{
		OrderID:   order.ID,
		OrderNo:   order.OrderNo,
		UserID:    order.UserID,
		Email:     order.Email,
		Status:    order.Status,
		ChangedAt: n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	key := order.ID.String()
	if key == "" {
		key = order.OrderNo
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order_status_changed")},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
