package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupMongo(t *testing.T) (*MongoStorage, func()) {
	if testing.Short() {
		t.Skip("skipping mongodb container in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	s := NewMongoStorage(db)
	require.NoError(t, s.CreateIndexes(ctx))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return s, cleanup
}

func TestMongo_GetNotFound(t *testing.T) {
	s, cleanup := setupMongo(t)
	defer cleanup()

	v, err := s.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, v)
}

func TestMongo_UpsertAndDelete(t *testing.T) {
	s, cleanup := setupMongo(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "cart", []byte(`[{"id":"3"}]`)))

	v, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"3"}]`, string(v))

	require.NoError(t, s.Delete(ctx, "cart"))
	_, err = s.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}
