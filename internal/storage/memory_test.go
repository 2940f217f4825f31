package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_RoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_, err := s.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "cart", []byte(`[]`)))
	v, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(v))

	require.NoError(t, s.Delete(ctx, "cart"))
	_, err = s.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_ValuesAreCopied(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestNamespaced_IsolatesPrefixes(t *testing.T) {
	base := NewMemoryStorage()
	a := Namespaced(base, "session-a")
	b := Namespaced(base, "session-b")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "cart", []byte("A")))
	require.NoError(t, b.Set(ctx, "cart", []byte("B")))

	va, err := a.Get(ctx, "cart")
	require.NoError(t, err)
	vb, err := b.Get(ctx, "cart")
	require.NoError(t, err)

	assert.Equal(t, "A", string(va))
	assert.Equal(t, "B", string(vb))
	assert.Equal(t, 2, base.Len())

	raw, err := base.Get(ctx, "session-a:cart")
	require.NoError(t, err)
	assert.Equal(t, "A", string(raw))
}

func TestOpen_UnknownDriver(t *testing.T) {
	s, closeFn, err := Open(context.Background(), Options{Driver: "etcd"})
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.NotNil(t, closeFn)
}

func TestOpen_DefaultsToMemory(t *testing.T) {
	s, closeFn, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &MemoryStorage{}, s)
}
