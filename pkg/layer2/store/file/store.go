// Package filestore persists layer2 values as single files, one per concern.
package filestore

import (
	"os"

	"github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2/store/codec"
)

const (
	backendName = "file"
	filePerm    = 0o600
)

// Store persists values of type T as a JSON envelope in a single file.
type Store[T any] struct {
	concern      string
	schema       uint32
	defaultValue func() T
}

// New returns a Store for the given concern. defaultValue builds the empty
// value returned by Default; when nil the zero value of T is used.
func New[T any](concern string, schema uint32, defaultValue func() T) *Store[T] {
	return &Store[T]{
		concern:      concern,
		schema:       schema,
		defaultValue: defaultValue,
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

	buf, err := os.ReadFile(path)
	if err != nil {
		// Unreadable locations (permissions, directories) are reported as
		// missing as well, only the cause differs.
		return zero, errors.LOCATION_MISSING.Wrap(loc, err)
	}
	return codec.Decode[T](loc, s.schema, buf)
}

func (s *Store[T]) Store(path string, value T) errors.StoreError {
	loc := s.location(path)

	buf, err := codec.Encode(loc, s.schema, value)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, buf, filePerm); err != nil {
		return errors.LOCATION_NOT_WRITABLE.Wrap(loc, err)
	}
	return nil
}

func (s *Store[T]) location(path string) errors.LocationMetadata {
	return errors.LocationMetadata{Path: path, Concern: s.concern, Backend: backendName}
}
