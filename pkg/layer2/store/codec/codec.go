// Package codec implements the envelope every backend persists: a schema
// version followed by the JSON encoded payload.
package codec

import (
	"encoding/json"

	"github.com/arkade-os/l2wallet/pkg/errors"
)

type envelope struct {
	Schema  uint32          `json:"schema"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps the JSON encoding of value into a versioned envelope.
func Encode[T any](loc errors.LocationMetadata, schema uint32, value T) ([]byte, errors.StoreError) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, errors.SERIALIZATION_FAILURE.Wrap(loc, err)
	}
	buf, err := json.Marshal(envelope{Schema: schema, Payload: payload})
	if err != nil {
		return nil, errors.SERIALIZATION_FAILURE.Wrap(loc, err)
	}
	return buf, nil
}

// Decode unwraps an envelope produced by Encode. The payload is decoded only
// if the envelope schema matches the expected one.
func Decode[T any](loc errors.LocationMetadata, schema uint32, buf []byte) (T, errors.LoadError) {
	var zero T

	var env envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return zero, errors.MALFORMED_CONTENTS.Wrap(loc, err)
	}
	if len(env.Payload) == 0 {
		return zero, errors.MALFORMED_CONTENTS.New(loc, "missing payload")
	}
	if env.Schema != schema {
		return zero, errors.SCHEMA_MISMATCH.New(
			loc, "got schema version %d, expected %d", env.Schema, schema,
		)
	}

	var value T
	if err := json.Unmarshal(env.Payload, &value); err != nil {
		return zero, errors.MALFORMED_CONTENTS.Wrap(loc, err)
	}
	return value, nil
}
