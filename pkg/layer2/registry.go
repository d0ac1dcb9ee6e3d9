package layer2

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arkade-os/l2wallet/pkg/errors"
)

// Factory creates a blank extension, ready to be restored with Load.
type Factory func() Extension

// Registry resolves extension names, as recorded in a wallet's state, into
// extension instances. "none" is always registered.
type Registry struct {
	lock      sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{
			noneName: func() Extension { return None },
		},
	}
}

func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("missing extension name")
	}
	if factory == nil {
		return fmt.Errorf("missing factory for extension %s", name)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("extension %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

func (r *Registry) New(name string) (Extension, error) {
	if name == "" {
		name = noneName
	}

	r.lock.RLock()
	factory, ok := r.factories[name]
	r.lock.RUnlock()

	if !ok {
		return nil, errors.UNKNOWN_EXTENSION.New("extension %s is not registered", name).
			WithMetadata(errors.ExtensionMetadata{Name: name})
	}
	return factory(), nil
}

func (r *Registry) Has(name string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.factories[name]
	return ok
}

func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
