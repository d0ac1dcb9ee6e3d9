// Package badgerstore persists layer2 values in badger databases, one
// database directory per concern.
package badgerstore

import (
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2/store/codec"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	backendName = "badger"
	valueKey    = "value"
	// Created by badger on first open, a directory without it holds no database.
	manifestFile = "MANIFEST"
	maxRetries   = 5
)

// entry is the record kept in the database, badgerhold only stores structs.
type entry struct {
	Envelope []byte
}

// Store persists values of type T under a single key of a badger database
// living at the given location. Databases are opened lazily and kept open
// until Close, since badger allows one handle per directory.
type Store[T any] struct {
	concern      string
	schema       uint32
	defaultValue func() T
	logger       badger.Logger

	lock sync.Mutex
	dbs  map[string]*badgerhold.Store
}

// New returns a Store for the given concern. defaultValue builds the empty
// value returned by Default; when nil the zero value of T is used.
func New[T any](
	concern string, schema uint32, defaultValue func() T, logger badger.Logger,
) *Store[T] {
	return &Store[T]{
		concern:      concern,
		schema:       schema,
		defaultValue: defaultValue,
		logger:       logger,
		dbs:          make(map[string]*badgerhold.Store),
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

	db, err := s.open(path, false)
	if err != nil {
		if goerrors.Is(err, os.ErrNotExist) {
			return zero, errors.LOCATION_MISSING.Wrap(loc, err)
		}
		return zero, errors.MALFORMED_CONTENTS.Wrap(loc, err)
	}

	var e entry
	if err := db.Get(valueKey, &e); err != nil {
		if goerrors.Is(err, badgerhold.ErrNotFound) {
			return zero, errors.LOCATION_MISSING.Wrap(loc, err)
		}
		return zero, errors.MALFORMED_CONTENTS.Wrap(loc, err)
	}
	return codec.Decode[T](loc, s.schema, e.Envelope)
}

func (s *Store[T]) Store(path string, value T) errors.StoreError {
	loc := s.location(path)

	buf, serr := codec.Encode(loc, s.schema, value)
	if serr != nil {
		return serr
	}

	db, err := s.open(path, true)
	if err != nil {
		return errors.LOCATION_NOT_WRITABLE.Wrap(loc, err)
	}

	e := &entry{Envelope: buf}
	err = db.Upsert(valueKey, e)
	attempts := 1
	for goerrors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
		time.Sleep(100 * time.Millisecond)
		err = db.Upsert(valueKey, e)
		attempts++
	}
	if err != nil {
		return errors.LOCATION_NOT_WRITABLE.Wrap(loc, err)
	}
	return nil
}

// Release closes the database opened at path, if any. It must be called
// before the location is removed, a handle kept on a deleted directory keeps
// writing to unlinked files.
func (s *Store[T]) Release(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	db, ok := s.dbs[dir]
	if !ok {
		return nil
	}
	delete(s.dbs, dir)
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dir, err)
	}
	return nil
}

// Close releases every database opened by the store.
func (s *Store[T]) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var errs []error
	for path, db := range s.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", path, err))
		}
		delete(s.dbs, path)
	}
	return goerrors.Join(errs...)
}

func (s *Store[T]) open(path string, create bool) (*badgerhold.Store, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if db, ok := s.dbs[dir]; ok {
		return db, nil
	}

	// Badger creates missing directories and database files, loading must
	// not touch the filesystem.
	if !create {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
		if _, err := os.Stat(filepath.Join(dir, manifestFile)); err != nil {
			return nil, err
		}
	}

	db, err := createDB(dir, s.logger)
	if err != nil {
		return nil, err
	}
	s.dbs[dir] = db
	return db, nil
}

func (s *Store[T]) location(path string) errors.LocationMetadata {
	return errors.LocationMetadata{Path: path, Concern: s.concern, Backend: backendName}
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}
