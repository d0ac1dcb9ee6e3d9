package opaque_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2"
	"github.com/arkade-os/l2wallet/pkg/layer2/opaque"
	"github.com/arkade-os/l2wallet/pkg/layer2/store"
	"github.com/stretchr/testify/require"
)

func TestData(t *testing.T) {
	data := opaque.NewData()
	require.NotNil(t, data.Records)
	require.Empty(t, data.Records)

	require.NoError(t, data.Put("channel", map[string]any{"capacity": 100000, "open": true}))
	require.NoError(t, data.Put("raw", json.RawMessage(`{ "a" : 1 }`)))
	require.Error(t, data.Put("", 1))
	require.Error(t, data.Put("invalid", make(chan int)))

	record, ok := data.Get("channel")
	require.True(t, ok)
	require.JSONEq(t, `{"capacity":100000,"open":true}`, string(record))

	record, ok = data.Get("raw")
	require.True(t, ok)
	require.Equal(t, `{"a":1}`, string(record))

	_, ok = data.Get("invalid")
	require.False(t, ok)
}

func TestDerive(t *testing.T) {
	require.Equal(t, opaque.Cache{Index: []string{}}, opaque.Derive(opaque.Descriptor{}, opaque.NewData()))

	data := opaque.NewData()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, data.Put(name, name))
	}
	cache := opaque.Derive(opaque.Descriptor{Key: "abc"}, data)
	require.Equal(t, []string{"a", "b", "c"}, cache.Index)
	require.Zero(t, cache.SyncHeight)
}

func TestSetRecord(t *testing.T) {
	p, err := opaque.NewProtocol(opaque.Config{
		Descriptor: store.Config{Type: store.FileBackend},
		Data:       store.Config{Type: store.FileBackend},
		Cache:      store.Config{Type: store.FileBackend},
	})
	require.NoError(t, err)

	ext := opaque.New(p, opaque.Descriptor{Key: "abc"})
	ext.SetCache(opaque.Cache{SyncHeight: 100, Index: []string{}})

	require.NoError(t, opaque.SetRecord(ext, "b", 2))
	require.NoError(t, opaque.SetRecord(ext, "a", "1"))
	require.Error(t, opaque.SetRecord(ext, "", 3))

	record, ok := ext.Data().Get("a")
	require.True(t, ok)
	require.Equal(t, `"1"`, string(record))
	require.Equal(t, opaque.Cache{SyncHeight: 100, Index: []string{"a", "b"}}, ext.Cache())
}

func TestNewProtocol(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		fixtures := []opaque.Config{
			{
				Descriptor: store.Config{Type: store.FileBackend},
				Data:       store.Config{Type: store.FileBackend},
				Cache:      store.Config{Type: store.FileBackend},
			},
			{
				Descriptor: store.Config{Type: store.BadgerBackend},
				Data:       store.Config{Type: store.BadgerBackend},
				Cache:      store.Config{Type: store.FileBackend},
			},
		}

		for _, cfg := range fixtures {
			p, err := opaque.NewProtocol(cfg)
			require.NoError(t, err)
			require.Equal(t, opaque.Name, p.Name)
			require.Equal(t, uint32(opaque.Version), p.Version)
			require.Equal(t, opaque.NewData(), p.Data.Default())
			require.Equal(t, opaque.NewCache(), p.Cache.Default())

			root := filepath.Join(t.TempDir(), "ext")
			ext := opaque.New(p, opaque.Descriptor{Key: "abc"})
			require.Nil(t, ext.Store(root))

			loaded, lerr := layer2.Open(p, root)
			require.Nil(t, lerr)
			require.Equal(t, ext.Descriptor(), loaded.Descriptor())
			require.Equal(t, ext.Data(), loaded.Data())
			require.Equal(t, ext.Cache(), loaded.Cache())

			require.NoError(t, opaque.Close(p))
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := opaque.NewProtocol(opaque.Config{
			Descriptor: store.Config{Type: store.FileBackend},
			Data:       store.Config{Type: store.RedisBackend},
			Cache:      store.Config{Type: store.FileBackend},
		})
		require.Error(t, err)
		require.True(t, errors.UNSUPPORTED_BACKEND.Is(err))
	})
}

func TestRegistry(t *testing.T) {
	p, err := opaque.NewProtocol(opaque.Config{
		Descriptor: store.Config{Type: store.FileBackend},
		Data:       store.Config{Type: store.FileBackend},
		Cache:      store.Config{Type: store.FileBackend},
	})
	require.NoError(t, err)

	registry := layer2.NewRegistry()
	require.NoError(t, registry.Register(opaque.Name, p.Factory()))

	root := filepath.Join(t.TempDir(), "ext")
	ext := opaque.New(p, opaque.Descriptor{Key: "abc", Params: map[string]string{"k": "v"}})
	data := ext.Data()
	require.NoError(t, data.Put("record", 1))
	ext.SetData(data)
	require.Nil(t, ext.Store(root))

	restored, err := registry.New(opaque.Name)
	require.NoError(t, err)
	require.Nil(t, restored.Load(root))

	got, ok := restored.(*opaque.Extension)
	require.True(t, ok)
	require.Equal(t, ext.Descriptor(), got.Descriptor())
	require.Equal(t, ext.Data(), got.Data())
}
