package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingStorage struct {
	getErr error
	setErr error
	sets   int
}

func (f *failingStorage) Get(context.Context, string) ([]byte, error) { return nil, f.getErr }
func (f *failingStorage) Set(context.Context, string, []byte) error {
	f.sets++
	return f.setErr
}
func (f *failingStorage) Delete(context.Context, string) error { return nil }

type brokenEligible struct{}

func (brokenEligible) Eligible(context.Context) (pricing.EligibleSet, error) {
	return pricing.EligibleSet{}, errors.New("catalog down")
}

func line(id string, price int64, qty int) domain.CartLine {
	return domain.CartLine{ID: id, Name: "product " + id, UnitPrice: decimal.NewFromInt(price), Quantity: qty}
}

func TestAddItem_MergesByID(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), nil)

	require.NoError(t, s.AddItem(ctx, line("42", 100, 2)))
	require.NoError(t, s.AddItem(ctx, line("42", 100, 3)))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, s.TotalItems())
}

func TestAddItem_QuantityBelowOneCountsAsOne(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), nil)

	require.NoError(t, s.AddItem(ctx, line("1", 10, 0)))
	assert.Equal(t, 1, s.TotalItems())
}

func TestAddItem_RejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), nil)

	assert.ErrorIs(t, s.AddItem(ctx, line("  ", 10, 1)), ErrInvalidItem)
	assert.True(t, s.IsEmpty())
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), nil)
	require.NoError(t, s.AddItem(ctx, line("a", 10, 1)))
	require.NoError(t, s.AddItem(ctx, line("b", 20, 2)))

	s.UpdateQuantity(ctx, "a", 0)
	s.UpdateQuantity(ctx, "b", -3)

	assert.True(t, s.IsEmpty())
}

func TestUpdateQuantity_SetsValue(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), nil)
	require.NoError(t, s.AddItem(ctx, line("a", 10, 1)))

	s.UpdateQuantity(ctx, "a", 4)
	s.UpdateQuantity(ctx, "missing", 4)

	assert.Equal(t, 4, s.TotalItems())
	assert.True(t, s.Subtotal().Equal(decimal.NewFromInt(40)))
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()

	s := Open(ctx, st, nil)
	require.NoError(t, s.AddItem(ctx, domain.CartLine{ID: "1", Name: "Mug", UnitPrice: decimal.RequireFromString("12.50"), Image: "/m.png", Quantity: 2}))
	require.NoError(t, s.AddItem(ctx, line("2", 30, 1)))
	s.RemoveItem(ctx, "2")

	reopened := Open(ctx, st, nil).Lines()
	require.Len(t, reopened, 1)
	assert.Equal(t, "1", reopened[0].ID)
	assert.Equal(t, "Mug", reopened[0].Name)
	assert.Equal(t, "/m.png", reopened[0].Image)
	assert.Equal(t, 2, reopened[0].Quantity)
	assert.True(t, reopened[0].UnitPrice.Equal(decimal.RequireFromString("12.5")))

	raw, err := st.Get(ctx, DefaultKey)
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, 12.5, stored[0]["price"])
}

func TestPersistence_CorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ctx, DefaultKey, []byte(`{"not":"a list"`)))

	core, logs := observer.New(zap.WarnLevel)
	s := Open(ctx, st, nil, WithLogger(zap.New(core)))

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 1, logs.FilterMessage("stored cart is corrupt, starting empty").Len())
}

func TestPersistence_ClearWritesEmptyList(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := Open(ctx, st, nil, WithKey("sess:cart"))
	require.NoError(t, s.AddItem(ctx, line("1", 5, 1)))

	s.ClearCart(ctx)

	raw, err := st.Get(ctx, "sess:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestPersistence_StorageFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	st := &failingStorage{getErr: errors.New("disk"), setErr: errors.New("quota exceeded")}

	s := Open(ctx, st, nil)
	require.NoError(t, s.AddItem(ctx, line("1", 5, 1)))

	assert.Equal(t, 1, st.sets)
	assert.Equal(t, 1, s.TotalItems())
}

func TestTotals_UsesCurrentEligibleSet(t *testing.T) {
	ctx := context.Background()
	src := pricing.NewStaticEligible(pricing.NewEligibleSet(decimal.NewFromInt(10)))
	s := Open(ctx, storage.NewMemoryStorage(), src)
	require.NoError(t, s.AddItem(ctx, line("7", 100, 2)))

	assert.True(t, s.Totals(ctx).BasketDiscount.IsZero())

	src.Set(pricing.NewEligibleSet(decimal.NewFromInt(10), 7))
	totals := s.Totals(ctx)
	assert.True(t, totals.BasketDiscount.Equal(decimal.NewFromInt(20)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(180)))
}

func TestPriced_TotalsCoverReturnedLines(t *testing.T) {
	ctx := context.Background()
	src := pricing.NewStaticEligible(pricing.NewEligibleSet(decimal.NewFromInt(10), 7))
	s := Open(ctx, storage.NewMemoryStorage(), src)
	require.NoError(t, s.AddItem(ctx, line("7", 100, 2)))
	require.NoError(t, s.AddItem(ctx, line("8", 30, 1)))

	lines, totals := s.Priced(ctx)
	require.Len(t, lines, 2)
	assert.Equal(t, 3, totals.TotalItems)
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(230)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(210)))
}

func TestTotals_BrokenSourcePricesWithoutDiscount(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), brokenEligible{})
	require.NoError(t, s.AddItem(ctx, line("7", 100, 2)))

	totals := s.Totals(ctx)
	assert.True(t, totals.BasketDiscount.IsZero())
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(200)))
}

func TestLines_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), nil)
	require.NoError(t, s.AddItem(ctx, line("1", 5, 1)))

	lines := s.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, s.TotalItems())
}

func TestDrawerFlagIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := Open(ctx, st, nil)

	s.OpenDrawer()
	assert.True(t, s.IsDrawerOpen())
	assert.False(t, Open(ctx, st, nil).IsDrawerOpen())

	s.CloseDrawer()
	assert.False(t, s.IsDrawerOpen())
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemoryStorage(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(ctx, line("same", 1, 1))
		}()
	}
	wg.Wait()

	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, 50, s.TotalItems())
}
