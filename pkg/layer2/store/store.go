// Package store selects the backend persisting each concern of a layer2
// extension.
package store

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2"
	badgerstore "github.com/arkade-os/l2wallet/pkg/layer2/store/badger"
	filestore "github.com/arkade-os/l2wallet/pkg/layer2/store/file"
	redisstore "github.com/arkade-os/l2wallet/pkg/layer2/store/redis"
	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

const (
	FileBackend   = "file"
	BadgerBackend = "badger"
	RedisBackend  = "redis"
)

// Redis only holds caches, losing it must never lose authoritative state.
var supportedBackends = map[layer2.Concern]supportedType{
	layer2.ConcernDescriptor: {FileBackend: {}, BadgerBackend: {}},
	layer2.ConcernData:       {FileBackend: {}, BadgerBackend: {}},
	layer2.ConcernCache:      {FileBackend: {}, BadgerBackend: {}, RedisBackend: {}},
}

// Backend is a persister with a default value. It satisfies DescriptorStore,
// DataStore and CacheStore alike.
type Backend[T any] interface {
	layer2.Persister[T]
	Default() T
}

type Config struct {
	Type   string
	Schema uint32

	// badger
	Logger badger.Logger

	// redis
	Redis    *redis.Client
	CacheTTL time.Duration
}

// New returns the backend persisting the given concern.
func New[T any](concern layer2.Concern, config Config, defaultValue func() T) (Backend[T], error) {
	if !Supports(concern, config.Type) {
		return nil, errors.UNSUPPORTED_BACKEND.New(
			"%s backend not supported for %s, please select one of: %s",
			config.Type, concern, supportedBackends[concern],
		).WithMetadata(errors.BackendMetadata{Backend: config.Type, Concern: string(concern)})
	}

	switch config.Type {
	case FileBackend:
		return filestore.New(string(concern), config.Schema, defaultValue), nil
	case BadgerBackend:
		return badgerstore.New(string(concern), config.Schema, defaultValue, config.Logger), nil
	case RedisBackend:
		if config.Redis == nil {
			return nil, fmt.Errorf("missing redis client for %s backend", concern)
		}
		return redisstore.New(
			config.Redis, string(concern), config.Schema, defaultValue, config.CacheTTL,
		), nil
	default:
		return nil, fmt.Errorf("unknown backend %s", config.Type)
	}
}

// Supports reports whether the backend can persist the given concern.
func Supports(concern layer2.Concern, backend string) bool {
	return supportedBackends[concern].supports(backend)
}

// Close releases the resources held by the given backends, if any.
func Close(backends ...any) error {
	var errs []string
	for _, b := range backends {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close backends: %s", strings.Join(errs, ", "))
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	sort.Strings(types)
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
