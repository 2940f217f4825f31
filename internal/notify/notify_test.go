package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	sent []backend.Email
	err  error
}

func (m *mockSender) SendEmail(_ context.Context, e backend.Email) error {
	m.sent = append(m.sent, e)
	return m.err
}

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.msgs = append(m.msgs, msgs...)
	return m.err
}

func (m *mockWriter) Close() error { return nil }

var shippedOrder = domain.Order{
	ID:       "42",
	OrderNo:  "SP240315ABCDEF",
	Customer: "Ayşe Yılmaz",
	Email:    "ayse@example.com",
	Amount:   decimal.NewFromInt(180),
	Status:   domain.OrderStatusShipped,
}

func TestEmailNotifier(t *testing.T) {
	s := &mockSender{}
	require.NoError(t, NewEmailNotifier(s).OrderStatusChanged(context.Background(), shippedOrder))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "order_status", s.sent[0].Type)
	assert.Equal(t, "ayse@example.com", s.sent[0].To)

	data := s.sent[0].Data.(statusMail)
	assert.Equal(t, "Kargoya Verildi", data.StatusLabel)
	assert.Equal(t, "180.00", data.Amount)
}

func TestEmailNotifier_SkipsOrdersWithoutEmail(t *testing.T) {
	s := &mockSender{}
	o := shippedOrder
	o.Email = ""
	require.NoError(t, NewEmailNotifier(s).OrderStatusChanged(context.Background(), o))
	assert.Empty(t, s.sent)
}

func TestKafkaNotifier_KeyedByOrderID(t *testing.T) {
	w := &mockWriter{}
	n := NewKafkaNotifier(w)
	n.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, n.OrderStatusChanged(context.Background(), shippedOrder))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	var ev map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "shipped", ev["status"])
	assert.Equal(t, "SP240315ABCDEF", ev["order_no"])
	assert.Equal(t, "2024-03-15T10:00:00Z", ev["changed_at"])
}

func TestMulti_JoinsErrors(t *testing.T) {
	okSender := &mockSender{}
	w := &mockWriter{err: errors.New("broker down")}

	err := Multi{NewEmailNotifier(okSender), NewKafkaNotifier(w)}.OrderStatusChanged(context.Background(), shippedOrder)

	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, okSender.sent, 1)
}

func TestNewKafkaWriter_DefaultTopic(t *testing.T) {
	w := NewKafkaWriter("", "localhost:9092")
	defer w.Close()
	assert.Equal(t, DefaultTopic, w.Topic)
}
