// Package layer2 defines how a wallet persists the state of an optional
// layer-2 protocol attached to it without knowing anything about the
// protocol itself.
//
// Every protocol splits its state into three concerns, each persisted to its
// own sub-resource under the extension root:
//
//   - descriptor: static configuration identifying the extension instance;
//   - data: authoritative mutable state that must never be lost;
//   - cache: derived state that can always be rebuilt from data.
//
// All persisters share the LoadError/StoreError taxonomy of pkg/errors, so the
// wallet can report any failure uniformly whatever sub-store produced it.
package layer2

import (
	"path/filepath"

	"github.com/arkade-os/l2wallet/pkg/errors"
)

// Persister loads and stores values of type T at a filesystem location.
// Load returns either a fully valid value or an error, never both. Store must
// replace the previous contents atomically for concurrent readers.
type Persister[T any] interface {
	Load(path string) (T, errors.LoadError)
	Store(path string, value T) errors.StoreError
}

// DescriptorStore persists the descriptor of an extension. There is no
// default descriptor: a wallet without an extension uses None instead.
type DescriptorStore[D any] interface {
	Persister[D]
}

// DataStore persists the authoritative state of an extension.
type DataStore[T any] interface {
	Persister[T]
	// Default returns the empty state of a freshly attached extension.
	Default() T
}

// CacheStore persists the derived state of an extension.
type CacheStore[C any] interface {
	Persister[C]
	// Default returns the empty cache used for fresh extensions and whenever
	// the persisted one can't be loaded.
	Default() C
}

// Extension is the surface of a layer-2 extension the wallet core holds.
type Extension interface {
	Name() string
	Version() uint32
	Kind() Kind
	Load(path string) errors.LoadError
	Store(path string) errors.StoreError
}

// Releaser is implemented by persisters and extensions holding resources on a
// location, like open database handles. Release must be called before the
// location is removed.
type Releaser interface {
	Release(path string) error
}

// Kind distinguishes a wallet without any layer-2 protocol from one with a
// protocol attached.
type Kind uint8

const (
	KindNone Kind = iota
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Concern names one of the independently persisted parts of an extension.
type Concern string

const (
	ConcernManifest   Concern = "manifest"
	ConcernDescriptor Concern = "descriptor"
	ConcernData       Concern = "data"
	ConcernCache      Concern = "cache"
)

// Path returns the sub-resource of root where the concern is persisted.
func (c Concern) Path(root string) string {
	if c == ConcernManifest {
		return filepath.Join(root, manifestFile)
	}
	return filepath.Join(root, string(c))
}

func (c Concern) location(root string) errors.LocationMetadata {
	return errors.LocationMetadata{Path: c.Path(root), Concern: string(c)}
}
