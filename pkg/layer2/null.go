package layer2

import "github.com/arkade-os/l2wallet/pkg/errors"

const noneName = "none"

// None is the extension of a wallet with no layer-2 protocol attached. Its
// Load and Store never fail and never touch the filesystem.
var None Extension = nullExtension{}

type nullExtension struct{}

func (nullExtension) Name() string                   { return noneName }
func (nullExtension) Version() uint32                { return 0 }
func (nullExtension) Kind() Kind                     { return KindNone }
func (nullExtension) Load(string) errors.LoadError   { return nil }
func (nullExtension) Store(string) errors.StoreError { return nil }
func (nullExtension) String() string                 { return noneName }

// IsNone reports whether ext is missing or is the null extension.
func IsNone(ext Extension) bool {
	return ext == nil || ext.Kind() == KindNone
}

// Null persists nothing. It satisfies DescriptorStore, DataStore and
// CacheStore for protocols without one of the three concerns.
type Null struct{}

func (Null) Load(string) (struct{}, errors.LoadError) { return struct{}{}, nil }
func (Null) Store(string, struct{}) errors.StoreError { return nil }
func (Null) Default() struct{}                        { return struct{}{} }

// MustLoad loads an extension that is known to be infallible, like None, and
// panics if it ever reports an error.
func MustLoad(ext Extension, path string) {
	if err := ext.Load(path); err != nil {
		panic(err)
	}
}

// MustStore is the Store counterpart of MustLoad.
func MustStore(ext Extension, path string) {
	if err := ext.Store(path); err != nil {
		panic(err)
	}
}
