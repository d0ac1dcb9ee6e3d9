// Package opaque is a layer2 extension whose state is made of JSON documents
// it never interprets. It lets an out-of-process layer-2 implementation keep
// its state inside the wallet datadir.
package opaque

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/arkade-os/l2wallet/pkg/layer2"
	"github.com/arkade-os/l2wallet/pkg/layer2/store"
)

const (
	Name    = "opaque"
	Version = 1

	descriptorSchema = 1
	dataSchema       = 1
	cacheSchema      = 1
)

type Descriptor struct {
	Key    string            `json:"key"`
	Params map[string]string `json:"params,omitempty"`
}

type Data struct {
	Records map[string]json.RawMessage `json:"records"`
}

func NewData() Data {
	return Data{Records: make(map[string]json.RawMessage)}
}

// Put stores the JSON encoding of value as the named record.
func (d Data) Put(name string, value any) error {
	if name == "" {
		return fmt.Errorf("missing record name")
	}
	buf, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", name, err)
	}
	d.Records[name] = buf
	return nil
}

func (d Data) Get(name string) (json.RawMessage, bool) {
	r, ok := d.Records[name]
	return r, ok
}

type Cache struct {
	SyncHeight uint32   `json:"sync_height"`
	Index      []string `json:"index"`
}

func NewCache() Cache {
	return Cache{Index: make([]string, 0)}
}

// Derive rebuilds the cache from the descriptor and data.
func Derive(_ Descriptor, data Data) Cache {
	index := make([]string, 0, len(data.Records))
	for name := range data.Records {
		index = append(index, name)
	}
	sort.Strings(index)
	return Cache{Index: index}
}

// SetRecord stores the JSON encoding of value as the named record of ext and
// reindexes its cache. The sync height is kept.
func SetRecord(ext *Extension, name string, value any) error {
	data := ext.Data()
	if data.Records == nil {
		data = NewData()
	}
	if err := data.Put(name, value); err != nil {
		return err
	}
	ext.SetData(data)

	height := ext.Cache().SyncHeight
	ext.RebuildCache(Derive)
	cache := ext.Cache()
	cache.SyncHeight = height
	ext.SetCache(cache)
	return nil
}

type (
	Protocol  = layer2.Protocol[Descriptor, Data, Cache]
	Extension = layer2.Attachment[Descriptor, Data, Cache]
)

// Config selects the backend of every concern.
type Config struct {
	Descriptor store.Config
	Data       store.Config
	Cache      store.Config
}

// NewProtocol builds the opaque protocol persisting each concern with the
// configured backend.
func NewProtocol(config Config) (Protocol, error) {
	config.Descriptor.Schema = descriptorSchema
	config.Data.Schema = dataSchema
	config.Cache.Schema = cacheSchema

	descriptorStore, err := store.New[Descriptor](layer2.ConcernDescriptor, config.Descriptor, nil)
	if err != nil {
		return Protocol{}, err
	}
	dataStore, err := store.New(layer2.ConcernData, config.Data, NewData)
	if err != nil {
		return Protocol{}, err
	}
	cacheStore, err := store.New(layer2.ConcernCache, config.Cache, NewCache)
	if err != nil {
		return Protocol{}, err
	}

	p := Protocol{
		Name:       Name,
		Version:    Version,
		Descriptor: descriptorStore,
		Data:       dataStore,
		Cache:      cacheStore,
	}
	if err := p.Validate(); err != nil {
		return Protocol{}, err
	}
	return p, nil
}

// New attaches the opaque protocol with the given descriptor.
func New(p Protocol, descriptor Descriptor) *Extension {
	return layer2.New(p, descriptor)
}

// Close releases the resources held by the protocol backends.
func Close(p Protocol) error {
	return store.Close(p.Descriptor, p.Data, p.Cache)
}
