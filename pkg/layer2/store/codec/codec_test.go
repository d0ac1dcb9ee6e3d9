package codec_test

import (
	"encoding/json"
	"testing"

	"github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2/store/codec"
	"github.com/stretchr/testify/require"
)

var loc = errors.LocationMetadata{Path: "/tmp/ext/cache", Concern: "cache"}

type cache struct {
	Height uint32   `json:"height"`
	Index  []string `json:"index"`
}

func TestEncode(t *testing.T) {
	buf, err := codec.Encode(loc, 3, cache{Height: 10, Index: []string{"a"}})
	require.Nil(t, err)
	require.JSONEq(t, `{"schema":3,"payload":{"height":10,"index":["a"]}}`, string(buf))

	_, err = codec.Encode(loc, 1, make(chan int))
	require.NotNil(t, err)
	require.True(t, errors.SERIALIZATION_FAILURE.Is(err))
	require.Equal(t, loc, err.Location())
}

func TestDecode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := codec.Decode[cache](
			loc, 1, []byte(`{"schema":1,"payload":{"height":10,"index":[]}}`),
		)
		require.Nil(t, err)
		require.Equal(t, cache{Height: 10, Index: []string{}}, got)

		raw, err := codec.Decode[json.RawMessage](
			loc, 1, []byte(`{"schema":1,"payload":{"nested":{"a":1}}}`),
		)
		require.Nil(t, err)
		require.Equal(t, `{"nested":{"a":1}}`, string(raw))
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name         string
			buf          string
			expectedCode errors.LoadCode
		}{
			{"empty", "", errors.MALFORMED_CONTENTS},
			{"not json", "garbage", errors.MALFORMED_CONTENTS},
			{"truncated", `{"schema":1,"payload":{"height":`, errors.MALFORMED_CONTENTS},
			{"missing payload", `{"schema":1}`, errors.MALFORMED_CONTENTS},
			{"wrong payload", `{"schema":1,"payload":[1,2]}`, errors.MALFORMED_CONTENTS},
			{"other schema", `{"schema":2,"payload":{"height":10}}`, errors.SCHEMA_MISMATCH},
		}

		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				got, err := codec.Decode[cache](loc, 1, []byte(f.buf))
				require.NotNil(t, err)
				require.True(t, f.expectedCode.Is(err), err.Error())
				require.Equal(t, loc, err.Location())
				require.Zero(t, got)
			})
		}
	})
}
