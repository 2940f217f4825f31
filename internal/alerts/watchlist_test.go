package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mu        sync.Mutex
	Listed    []domain.PriceAlert
	Created   []domain.PriceAlert
	Deleted   [][2]domain.ID
	DeleteErr func(n int) error
	nextID    int
}

func (m *MockAPI) ListAlerts(context.Context, domain.ID) ([]domain.PriceAlert, error) {
	return m.Listed, nil
}

func (m *MockAPI) CreateAlert(_ context.Context, a domain.PriceAlert) (domain.PriceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = domain.ID(domain.NormalizeID(m.nextID))
	m.Created = append(m.Created, a)
	return a, nil
}

func (m *MockAPI) DeleteAlert(_ context.Context, productID, userID domain.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		if err := m.DeleteErr(len(m.Deleted)); err != nil {
			return err
		}
	}
	m.Deleted = append(m.Deleted, [2]domain.ID{productID, userID})
	return nil
}

var (
	ayse = domain.User{ID: "u1", Name: "Ayşe", Surname: "Yılmaz", Email: "ayse@example.com"}
	mug  = domain.Product{ID: "7", Name: "Mug", Price: decimal.NewFromInt(120)}
)

func TestActivate_IsIdempotent(t *testing.T) {
	api := &MockAPI{}
	w := NewWatchlist(api, nil)
	ctx := context.Background()

	first, err := w.Activate(ctx, mug, ayse)
	require.NoError(t, err)
	second, err := w.Activate(ctx, mug, ayse)
	require.NoError(t, err)

	assert.Len(t, api.Created, 1)
	assert.Len(t, w.Alerts(), 1)
	assert.Equal(t, first.ID, second.ID)

	created := api.Created[0]
	assert.Equal(t, "Ayşe Yılmaz", created.UserName)
	assert.True(t, created.PriceAtAlert.Equal(decimal.NewFromInt(120)))
}

func TestActivate_RequiresUser(t *testing.T) {
	w := NewWatchlist(&MockAPI{}, nil)
	_, err := w.Activate(context.Background(), mug, domain.User{})
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestIsActive_ComparesIDsAsStrings(t *testing.T) {
	api := &MockAPI{Listed: []domain.PriceAlert{{ProductID: "7", UserID: "1"}}}
	w := NewWatchlist(api, nil)
	require.NoError(t, w.Load(context.Background(), "1"))

	assert.True(t, w.IsActive(domain.ID(domain.NormalizeID(7)), domain.ID(domain.NormalizeID(1))))
	assert.False(t, w.IsActive("8", "1"))
}

func TestDeactivate(t *testing.T) {
	api := &MockAPI{}
	w := NewWatchlist(api, nil)
	ctx := context.Background()
	_, err := w.Activate(ctx, mug, ayse)
	require.NoError(t, err)

	require.NoError(t, w.Deactivate(ctx, mug.ID, ayse.ID))
	assert.False(t, w.IsActive(mug.ID, ayse.ID))
	assert.Equal(t, [][2]domain.ID{{"7", "u1"}}, api.Deleted)
}

func TestClearUser_OneCallPerAlert(t *testing.T) {
	api := &MockAPI{Listed: []domain.PriceAlert{
		{ProductID: "1", UserID: "u1"},
		{ProductID: "2", UserID: "u2"},
		{ProductID: "3", UserID: "u1"},
	}}
	w := NewWatchlist(api, nil)
	ctx := context.Background()
	require.NoError(t, w.Load(ctx, ""))

	n, err := w.ClearUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, api.Deleted, 2)
	assert.Len(t, w.Alerts(), 1)
}

func TestClearUser_StopsAtFirstError(t *testing.T) {
	api := &MockAPI{
		Listed: []domain.PriceAlert{{ProductID: "1", UserID: "u1"}, {ProductID: "2", UserID: "u1"}, {ProductID: "3", UserID: "u1"}},
		DeleteErr: func(n int) error {
			if n == 1 {
				return errors.New("boom")
			}
			return nil
		},
	}
	w := NewWatchlist(api, nil)
	ctx := context.Background()
	require.NoError(t, w.Load(ctx, "u1"))

	n, err := w.ClearUser(ctx, "u1")
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, w.Alerts(), 2)
}

func TestTriggered(t *testing.T) {
	api := &MockAPI{Listed: []domain.PriceAlert{
		{ProductID: "1", UserID: "u1", PriceAtAlert: decimal.NewFromInt(100)},
		{ProductID: "2", UserID: "u1", PriceAtAlert: decimal.NewFromInt(50)},
		{ProductID: "3", UserID: "u1", PriceAtAlert: decimal.NewFromInt(10)},
	}}
	w := NewWatchlist(api, nil)
	require.NoError(t, w.Load(context.Background(), "u1"))

	drops := w.Triggered(map[string]decimal.Decimal{
		"1": decimal.NewFromInt(80),
		"2": decimal.NewFromInt(50),
	})

	require.Len(t, drops, 1)
	assert.Equal(t, domain.ID("1"), drops[0].Alert.ProductID)
	assert.True(t, drops[0].Saving.Equal(decimal.NewFromInt(20)))
}
