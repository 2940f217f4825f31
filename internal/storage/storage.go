package storage

import (
	"context"
	"errors"
)

// Storage is the durable key/value store behind carts, favorites and the
// session registry. Values are opaque JSON documents.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")

// Namespaced prefixes every key with "<prefix>:" so several sessions can
// share one backing store.
func Namespaced(s Storage, prefix string) Storage {
	return namespaced{inner: s, prefix: prefix}
}

type namespaced struct {
	inner  Storage
	prefix string
}

func (n namespaced) key(k string) string {
	return n.prefix + ":" + k
}

func (n namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.inner.Get(ctx, n.key(key))
}

func (n namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.key(key), value)
}

func (n namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.key(key))
}
