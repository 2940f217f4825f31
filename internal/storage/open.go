package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Driver string

	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration

	SQLitePath string
	Postgres   Credentials

	MongoURI    string
	MongoDBName string
}

// Open builds the backend named by opts.Driver. The returned close func is
// never nil.
func Open(ctx context.Context, opts Options) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case "", "memory":
		return NewMemoryStorage(), noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStorage(client, opts.RedisTTL), client.Close, nil

	case "sqlite":
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, noop, err
		}
		return s, s.Close, nil

	case "postgres":
		s, err := OpenPostgres(opts.Postgres)
		if err != nil {
			return nil, noop, err
		}
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, noop, err
		}
		return s, s.Close, nil

	case "mongo":
		db, err := ConnectMongoDB(ctx, opts.MongoURI, opts.MongoDBName)
		if err != nil {
			return nil, noop, err
		}
		m := NewMongoStorage(db)
		if err := m.CreateIndexes(ctx); err != nil {
			return nil, noop, err
		}
		closeFn := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.Client().Disconnect(ctx)
		}
		return m, closeFn, nil
	}

	return nil, noop, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
