package errors

import (
	"fmt"

	grpccodes "google.golang.org/grpc/codes"
)

// LocationMetadata identifies the sub-resource a load or store was operating
// on when it failed.
type LocationMetadata struct {
	Path    string `json:"path"`
	Concern string `json:"concern"`
	Backend string `json:"backend,omitempty"`
}

func (m LocationMetadata) String() string {
	if m.Backend == "" {
		return fmt.Sprintf("%s at %s", m.Concern, m.Path)
	}
	return fmt.Sprintf("%s at %s (%s)", m.Concern, m.Path, m.Backend)
}

// LoadError is returned by every persister when a value cannot be restored
// from its location. No partially decoded value ever accompanies it.
type LoadError interface {
	Error
	Location() LocationMetadata
	isLoadError()
}

// StoreError is returned by every persister when a value cannot be durably
// written to its location.
type StoreError interface {
	Error
	Location() LocationMetadata
	isStoreError()
}

// LoadCode is a Code whose errors are LoadErrors.
type LoadCode struct {
	Code[LocationMetadata]
}

func (c LoadCode) New(loc LocationMetadata, msg string, args ...any) LoadError {
	return c.Wrap(loc, fmt.Errorf(msg, args...))
}

func (c LoadCode) Wrap(loc LocationMetadata, cause error) LoadError {
	return &loadError{&ErrorImpl[LocationMetadata]{
		code:     c.Code,
		cause:    cause,
		metadata: loc,
	}}
}

// StoreCode is a Code whose errors are StoreErrors.
type StoreCode struct {
	Code[LocationMetadata]
}

func (c StoreCode) New(loc LocationMetadata, msg string, args ...any) StoreError {
	return c.Wrap(loc, fmt.Errorf(msg, args...))
}

func (c StoreCode) Wrap(loc LocationMetadata, cause error) StoreError {
	return &storeError{&ErrorImpl[LocationMetadata]{
		code:     c.Code,
		cause:    cause,
		metadata: loc,
	}}
}

type loadError struct {
	*ErrorImpl[LocationMetadata]
}

func (e *loadError) Location() LocationMetadata { return e.metadata }
func (e *loadError) isLoadError()               {}

func (e *loadError) Error() string {
	return fmt.Sprintf("%s: failed to load %s: %s", e.code, e.metadata, e.cause)
}

type storeError struct {
	*ErrorImpl[LocationMetadata]
}

func (e *storeError) Location() LocationMetadata { return e.metadata }
func (e *storeError) isStoreError()              {}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: failed to store %s: %s", e.code, e.metadata, e.cause)
}

var LOCATION_MISSING = LoadCode{Code[LocationMetadata]{
	100,
	"LOCATION_MISSING",
	grpccodes.NotFound,
}}

var MALFORMED_CONTENTS = LoadCode{Code[LocationMetadata]{
	101,
	"MALFORMED_CONTENTS",
	grpccodes.DataLoss,
}}

var SCHEMA_MISMATCH = LoadCode{Code[LocationMetadata]{
	102,
	"SCHEMA_MISMATCH",
	grpccodes.FailedPrecondition,
}}

var LOCATION_NOT_WRITABLE = StoreCode{Code[LocationMetadata]{
	200,
	"LOCATION_NOT_WRITABLE",
	grpccodes.PermissionDenied,
}}

var SERIALIZATION_FAILURE = StoreCode{Code[LocationMetadata]{
	201,
	"SERIALIZATION_FAILURE",
	grpccodes.Internal,
}}
