package store_test

import (
	"path/filepath"
	"testing"

	"github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2"
	"github.com/arkade-os/l2wallet/pkg/layer2/store"
	badgerstore "github.com/arkade-os/l2wallet/pkg/layer2/store/badger"
	filestore "github.com/arkade-os/l2wallet/pkg/layer2/store/file"
	redisstore "github.com/arkade-os/l2wallet/pkg/layer2/store/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newValue() map[string]int {
	return make(map[string]int)
}

func TestNew(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() {
		// nolint:all
		rdb.Close()
	})

	t.Run("valid", func(t *testing.T) {
		fixtures := []struct {
			concern  layer2.Concern
			config   store.Config
			expected any
		}{
			{
				layer2.ConcernDescriptor,
				store.Config{Type: store.FileBackend},
				&filestore.Store[map[string]int]{},
			},
			{
				layer2.ConcernData,
				store.Config{Type: store.BadgerBackend},
				&badgerstore.Store[map[string]int]{},
			},
			{
				layer2.ConcernCache,
				store.Config{Type: store.RedisBackend, Redis: rdb},
				&redisstore.Store[map[string]int]{},
			},
		}

		for _, f := range fixtures {
			t.Run(string(f.concern)+"/"+f.config.Type, func(t *testing.T) {
				backend, err := store.New(f.concern, f.config, newValue)
				require.NoError(t, err)
				require.IsType(t, f.expected, backend)
				require.Equal(t, newValue(), backend.Default())
				require.NoError(t, store.Close(backend))
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			concern layer2.Concern
			config  store.Config
		}{
			{layer2.ConcernDescriptor, store.Config{Type: store.RedisBackend, Redis: rdb}},
			{layer2.ConcernData, store.Config{Type: store.RedisBackend, Redis: rdb}},
			{layer2.ConcernCache, store.Config{Type: "postgres"}},
			{layer2.ConcernData, store.Config{Type: ""}},
			{layer2.ConcernManifest, store.Config{Type: store.FileBackend}},
		}

		for _, f := range fixtures {
			t.Run(string(f.concern)+"/"+f.config.Type, func(t *testing.T) {
				backend, err := store.New(f.concern, f.config, newValue)
				require.Error(t, err)
				require.Nil(t, backend)
				require.True(t, errors.UNSUPPORTED_BACKEND.Is(err))

				var typedErr errors.Error
				require.ErrorAs(t, err, &typedErr)
				require.Equal(t, map[string]string{
					"backend": f.config.Type,
					"concern": string(f.concern),
				}, typedErr.Metadata())
			})
		}

		_, err := store.New(layer2.ConcernCache, store.Config{Type: store.RedisBackend}, newValue)
		require.Error(t, err)
	})
}

func TestSupports(t *testing.T) {
	require.True(t, store.Supports(layer2.ConcernDescriptor, store.FileBackend))
	require.True(t, store.Supports(layer2.ConcernData, store.BadgerBackend))
	require.True(t, store.Supports(layer2.ConcernCache, store.RedisBackend))
	require.False(t, store.Supports(layer2.ConcernData, store.RedisBackend))
	require.False(t, store.Supports(layer2.ConcernManifest, store.FileBackend))
}

func TestClose(t *testing.T) {
	backend, err := store.New(layer2.ConcernData, store.Config{Type: store.BadgerBackend}, newValue)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "data")
	require.Nil(t, backend.Store(path, map[string]int{"a": 1}))

	fileBackend, err := store.New(layer2.ConcernCache, store.Config{Type: store.FileBackend}, newValue)
	require.NoError(t, err)

	require.NoError(t, store.Close(backend, fileBackend, nil))

	// The database is released and can be opened again.
	reopened, err := store.New(layer2.ConcernData, store.Config{Type: store.BadgerBackend}, newValue)
	require.NoError(t, err)
	got, lerr := reopened.Load(path)
	require.Nil(t, lerr)
	require.Equal(t, map[string]int{"a": 1}, got)
	require.NoError(t, store.Close(reopened))
}
