package orders

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
)

type MockAPI struct {
	mu sync.Mutex

	CreateErr   error
	CreateEcho  *domain.Order
	Created     []domain.Order
	UpdateErr   error
	Updated     []domain.OrderPatch
	DeleteErr   error
	Deleted     []domain.ID
	ListResults [][]domain.Order
	ListErr     error
	ListCalls   int
	ListHook    func(call int)
	TrackResult domain.Order
	TrackErr    error
	TrackedNo   string
}

func (m *MockAPI) CreateOrder(_ context.Context, draft domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, draft)
	if m.CreateErr != nil {
		return domain.Order{}, m.CreateErr
	}
	if m.CreateEcho != nil {
		return *m.CreateEcho, nil
	}
	echo := draft.Clone()
	echo.ID = domain.ID("srv-" + draft.OrderNo)
	return echo, nil
}

func (m *MockAPI) UpdateOrder(_ context.Context, _ domain.ID, patch domain.OrderPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updated = append(m.Updated, patch)
	return m.UpdateErr
}

func (m *MockAPI) DeleteOrder(_ context.Context, id domain.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, id)
	return m.DeleteErr
}

func (m *MockAPI) ListOrders(context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	call := m.ListCalls
	m.ListCalls++
	hook := m.ListHook
	var res []domain.Order
	if call < len(m.ListResults) {
		res = m.ListResults[call]
	}
	err := m.ListErr
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return res, err
}

func (m *MockAPI) TrackOrder(_ context.Context, orderNo string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackedNo = orderNo
	return m.TrackResult, m.TrackErr
}

func (m *MockAPI) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ListCalls
}

type MockNotifier struct {
	mu       sync.Mutex
	Err      error
	Notified []domain.Order
}

func (n *MockNotifier) OrderStatusChanged(_ context.Context, o domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notified = append(n.Notified, o)
	return n.Err
}

func (n *MockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Notified)
}
