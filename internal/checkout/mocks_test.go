package checkout

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
)

type MockAccount struct {
	mu sync.Mutex

	user      *domain.User
	RecordErr error
	Recorded  []domain.Order
	Addresses []*domain.Address
}

func NewMockAccount(u *domain.User) *MockAccount {
	return &MockAccount{user: u}
}

func (m *MockAccount) IsAuthenticated() bool {
	return m.user != nil
}

func (m *MockAccount) User() (domain.User, bool) {
	if m.user == nil {
		return domain.User{}, false
	}
	return *m.user, true
}

func (m *MockAccount) RecordOrder(_ context.Context, addr *domain.Address, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Recorded = append(m.Recorded, order)
	m.Addresses = append(m.Addresses, addr)
	return nil
}

func (m *MockAccount) RecordCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Recorded)
}

type MockOrderBook struct {
	mu sync.Mutex

	Err     error
	Drafts  []domain.Order
	Started chan struct{}
	Release chan struct{}
}

func (m *MockOrderBook) AddOrder(_ context.Context, draft domain.Order) (domain.Order, error) {
	if m.Started != nil {
		m.Started <- struct{}{}
	}
	if m.Release != nil {
		<-m.Release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Drafts = append(m.Drafts, draft)
	if m.Err != nil {
		return domain.Order{}, m.Err
	}
	saved := draft.Clone()
	saved.ID = domain.ID("srv-1")
	if saved.OrderNo == "" {
		saved.OrderNo = "SP240315ABCDEF"
	}
	return saved, nil
}

func (m *MockOrderBook) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Drafts)
}

type MockGateway struct {
	Resp     backend.TokenResponse
	Err      error
	Requests []backend.TokenRequest
}

func (m *MockGateway) RequestPaymentToken(_ context.Context, req backend.TokenRequest) (backend.TokenResponse, error) {
	m.Requests = append(m.Requests, req)
	return m.Resp, m.Err
}

type MockRecorder struct {
	mu      sync.Mutex
	Results []string
}

func (m *MockRecorder) CheckoutResult(method, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results = append(m.Results, method+":"+result)
}
