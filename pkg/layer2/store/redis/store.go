// Package redisstore persists layer2 caches in redis. Only derived state
// belongs here: a flushed or evicted key simply triggers a cache rebuild.
package redisstore

import (
	"context"
	goerrors "errors"
	"path/filepath"
	"time"

	"github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2/store/codec"
	"github.com/redis/go-redis/v9"
)

const (
	backendName    = "redis"
	keyPrefix      = "l2wallet:"
	defaultTimeout = 5 * time.Second
)

// Store persists values of type T under a redis key derived from the
// location path.
type Store[T any] struct {
	rdb          *redis.Client
	concern      string
	schema       uint32
	defaultValue func() T
	ttl          time.Duration
	timeout      time.Duration
}

// New returns a Store for the given concern. A zero ttl keeps keys forever.
func New[T any](
	rdb *redis.Client, concern string, schema uint32, defaultValue func() T, ttl time.Duration,
) *Store[T] {
	return &Store[T]{
		rdb:          rdb,
		concern:      concern,
		schema:       schema,
		defaultValue: defaultValue,
		ttl:          ttl,
		timeout:      defaultTimeout,
	}
}

func (s *Store[T]) Default() T {
	if s.defaultValue != nil {
		return s.defaultValue()
	}
	var v T
	return v
}

func (s *Store[T]) Load(path string) (T, errors.LoadError) {
	var zero T
	loc := s.location(path)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	buf, err := s.rdb.Get(ctx, Key(path)).Bytes()
	if err != nil {
		if goerrors.Is(err, redis.Nil) {
			return zero, errors.LOCATION_MISSING.New(loc, "key %s not found", Key(path))
		}
		return zero, errors.LOCATION_MISSING.Wrap(loc, err)
	}
	return codec.Decode[T](loc, s.schema, buf)
}

// Store overwrites the key with a single SET, readers never see partial
// values.
func (s *Store[T]) Store(path string, value T) errors.StoreError {
	loc := s.location(path)

	buf, serr := codec.Encode(loc, s.schema, value)
	if serr != nil {
		return serr
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.rdb.Set(ctx, Key(path), buf, s.ttl).Err(); err != nil {
		return errors.LOCATION_NOT_WRITABLE.Wrap(loc, err)
	}
	return nil
}

// Key returns the redis key where the value of the given location is kept.
func Key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return keyPrefix + filepath.ToSlash(path)
}

func (s *Store[T]) location(path string) errors.LocationMetadata {
	return errors.LocationMetadata{Path: path, Concern: s.concern, Backend: backendName}
}
