package layer2

import (
	"time"

	"github.com/arkade-os/l2wallet/pkg/errors"
	filestore "github.com/arkade-os/l2wallet/pkg/layer2/store/file"
	"github.com/google/uuid"
)

const (
	manifestFile   = "manifest.json"
	manifestSchema = 1
)

// Manifest is the top-level metadata persisted next to the three concerns of
// an extension. It lets Load reject a root written by another protocol or by
// an incompatible version of the same one.
type Manifest struct {
	Name       string    `json:"name"`
	Version    uint32    `json:"version"`
	InstanceID uuid.UUID `json:"instance_id"`
	CreatedAt  int64     `json:"created_at"`
}

var manifestStore = filestore.New[Manifest](string(ConcernManifest), manifestSchema, nil)

func newManifest(name string, version uint32) Manifest {
	return Manifest{
		Name:       name,
		Version:    version,
		InstanceID: uuid.New(),
		CreatedAt:  time.Now().Unix(),
	}
}

func loadManifest(root, name string, version uint32) (Manifest, errors.LoadError) {
	m, err := manifestStore.Load(ConcernManifest.Path(root))
	if err != nil {
		return Manifest{}, err
	}

	loc := ConcernManifest.location(root)
	if m.Name != name {
		return Manifest{}, errors.SCHEMA_MISMATCH.New(
			loc, "root belongs to extension %q, expected %q", m.Name, name,
		)
	}
	if m.Version != version {
		return Manifest{}, errors.SCHEMA_MISMATCH.New(
			loc, "extension %s has version %d, expected %d", name, m.Version, version,
		)
	}
	if m.InstanceID == uuid.Nil {
		return Manifest{}, errors.MALFORMED_CONTENTS.New(loc, "missing instance id")
	}
	return m, nil
}

func storeManifest(root string, m Manifest) errors.StoreError {
	return manifestStore.Store(ConcernManifest.Path(root), m)
}
