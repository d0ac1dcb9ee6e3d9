package layer2

import (
	goerrors "errors"
	"fmt"

	"github.com/arkade-os/l2wallet/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Protocol binds the descriptor, data and cache persisters of a layer-2
// protocol under a single name and version.
type Protocol[D, T, C any] struct {
	Name       string
	Version    uint32
	Descriptor DescriptorStore[D]
	Data       DataStore[T]
	Cache      CacheStore[C]
}

func (p Protocol[D, T, C]) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("missing protocol name")
	}
	if p.Name == noneName {
		return fmt.Errorf("protocol name %q is reserved", noneName)
	}
	if p.Descriptor == nil {
		return fmt.Errorf("missing descriptor store")
	}
	if p.Data == nil {
		return fmt.Errorf("missing data store")
	}
	if p.Cache == nil {
		return fmt.Errorf("missing cache store")
	}
	return nil
}

// Factory returns a Factory producing blank attachments of the protocol,
// meant to be restored with Load.
func (p Protocol[D, T, C]) Factory() Factory {
	return func() Extension {
		return &Attachment[D, T, C]{
			protocol: p,
			data:     p.Data.Default(),
			cache:    p.Cache.Default(),
		}
	}
}

// Attachment is a layer-2 protocol attached to a wallet. It exclusively owns
// one descriptor, one data and one cache value.
type Attachment[D, T, C any] struct {
	protocol   Protocol[D, T, C]
	manifest   Manifest
	descriptor D
	data       T
	cache      C

	cacheRecovered bool
}

// New attaches a protocol configured with the given descriptor. Data and
// cache start from their defaults.
func New[D, T, C any](p Protocol[D, T, C], descriptor D) *Attachment[D, T, C] {
	return &Attachment[D, T, C]{
		protocol:   p,
		manifest:   newManifest(p.Name, p.Version),
		descriptor: descriptor,
		data:       p.Data.Default(),
		cache:      p.Cache.Default(),
	}
}

// Open restores an attachment of the protocol from the given root.
func Open[D, T, C any](p Protocol[D, T, C], root string) (*Attachment[D, T, C], errors.LoadError) {
	a := &Attachment[D, T, C]{protocol: p}
	if err := a.Load(root); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Attachment[D, T, C]) Name() string {
	return a.protocol.Name
}

func (a *Attachment[D, T, C]) Version() uint32 {
	return a.protocol.Version
}

func (a *Attachment[D, T, C]) Kind() Kind {
	return KindProtocol
}

func (a *Attachment[D, T, C]) Manifest() Manifest {
	return a.manifest
}

func (a *Attachment[D, T, C]) Descriptor() D {
	return a.descriptor
}

func (a *Attachment[D, T, C]) Data() T {
	return a.data
}

func (a *Attachment[D, T, C]) Cache() C {
	return a.cache
}

// SetDescriptor reconfigures the extension.
func (a *Attachment[D, T, C]) SetDescriptor(descriptor D) {
	a.descriptor = descriptor
}

func (a *Attachment[D, T, C]) SetData(data T) {
	a.data = data
}

func (a *Attachment[D, T, C]) SetCache(cache C) {
	a.cache = cache
	a.cacheRecovered = false
}

// RebuildCache replaces the cache with the one derived from the current
// descriptor and data.
func (a *Attachment[D, T, C]) RebuildCache(derive func(D, T) C) {
	a.SetCache(derive(a.descriptor, a.data))
}

// CacheRecovered reports whether the last Load had to fall back to the
// default cache.
func (a *Attachment[D, T, C]) CacheRecovered() bool {
	return a.cacheRecovered
}

// Load restores the manifest, descriptor, data and cache persisted under
// root. Any manifest, descriptor or data failure fails the whole load and
// leaves the attachment untouched. A missing or unreadable cache is replaced
// by the default one.
func (a *Attachment[D, T, C]) Load(root string) errors.LoadError {
	p := a.protocol

	manifest, err := loadManifest(root, p.Name, p.Version)
	if err != nil {
		return err
	}
	descriptor, err := p.Descriptor.Load(ConcernDescriptor.Path(root))
	if err != nil {
		return err
	}
	data, err := p.Data.Load(ConcernData.Path(root))
	if err != nil {
		return err
	}

	cacheRecovered := false
	cache, err := p.Cache.Load(ConcernCache.Path(root))
	if err != nil {
		entry := err.Log().WithField("extension", p.Name).WithError(err)
		if errors.LOCATION_MISSING.Is(err) {
			entry.Debug("no cache persisted, starting from default")
		} else {
			entry.Warn("discarding unreadable cache, starting from default")
		}
		cache = p.Cache.Default()
		cacheRecovered = true
	}

	a.manifest = manifest
	a.descriptor = descriptor
	a.data = data
	a.cache = cache
	a.cacheRecovered = cacheRecovered
	return nil
}

// Store persists the manifest, descriptor, data and cache under root, in this
// order. The first failure is returned and parts already written are kept.
func (a *Attachment[D, T, C]) Store(root string) errors.StoreError {
	p := a.protocol

	if a.manifest.Name == "" {
		a.manifest = newManifest(p.Name, p.Version)
	}
	if err := storeManifest(root, a.manifest); err != nil {
		return err
	}
	if err := p.Descriptor.Store(ConcernDescriptor.Path(root), a.descriptor); err != nil {
		return err
	}
	if err := p.Data.Store(ConcernData.Path(root), a.data); err != nil {
		return err
	}
	if err := p.Cache.Store(ConcernCache.Path(root), a.cache); err != nil {
		return err
	}

	log.WithField("extension", p.Name).Debugf("stored layer2 state to %s", root)
	return nil
}

// Release frees the resources the persisters hold on the concerns under root.
// The attachment can still be stored afterwards, persisters reopen lazily.
func (a *Attachment[D, T, C]) Release(root string) error {
	p := a.protocol

	var errs []error
	for _, c := range []struct {
		concern Concern
		store   any
	}{
		{ConcernDescriptor, p.Descriptor},
		{ConcernData, p.Data},
		{ConcernCache, p.Cache},
	} {
		r, ok := c.store.(Releaser)
		if !ok {
			continue
		}
		if err := r.Release(c.concern.Path(root)); err != nil {
			errs = append(errs, fmt.Errorf("failed to release %s: %w", c.concern, err))
		}
	}
	return goerrors.Join(errs...)
}
