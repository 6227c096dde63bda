package keyv_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

func TestEncodeDecodeRoundTripNumber(t *testing.T) {
	data, err := keyv.Encode(42)
	require.NoError(t, err)

	var decoded int
	require.NoError(t, keyv.Decode(data, &decoded))
	assert.Equal(t, 42, decoded)
}

func TestEncodeDecodeRoundTripString(t *testing.T) {
	data, err := keyv.Encode("life long")
	require.NoError(t, err)

	var decoded string
	require.NoError(t, keyv.Decode(data, &decoded))
	assert.Equal(t, "life long", decoded)
}

func TestEncodeDecodeRoundTripArray(t *testing.T) {
	data, err := keyv.Encode([]string{"hola", "test"})
	require.NoError(t, err)

	var decoded []string
	require.NoError(t, keyv.Decode(data, &decoded))
	assert.Equal(t, []string{"hola", "test"}, decoded)
}

func TestEncodeDecodeRoundTripStruct(t *testing.T) {
	type profile struct {
		Name string   `json:"name"`
		Age  int      `json:"age"`
		Tags []string `json:"tags"`
	}

	original := profile{Name: "ada", Age: 36, Tags: []string{"math"}}

	data, err := keyv.Encode(original)
	require.NoError(t, err)

	var decoded profile
	require.NoError(t, keyv.Decode(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestEncodeUnrepresentableValue(t *testing.T) {
	_, err := keyv.Encode(make(chan int))
	assert.ErrorIs(t, err, keyv.ErrEncoding)
}

func TestDecodeShapeMismatch(t *testing.T) {
	data, err := keyv.Encode([]string{"hola", "test"})
	require.NoError(t, err)

	var decoded int
	assert.ErrorIs(t, keyv.Decode(data, &decoded), keyv.ErrDecoding)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	deadline := time.Now().Add(time.Hour).Truncate(time.Millisecond)

	payload, err := keyv.Encode("value")
	require.NoError(t, err)

	raw, err := keyv.EncodeEnvelope(payload, &deadline)
	require.NoError(t, err)

	entry, err := keyv.DecodeEnvelope(raw)
	require.NoError(t, err)
	require.NotNil(t, entry.ExpiresAt)
	assert.True(t, entry.ExpiresAt.Equal(deadline))

	var decoded string
	require.NoError(t, keyv.Decode(entry.Payload, &decoded))
	assert.Equal(t, "value", decoded)
}

func TestEnvelopeWithoutDeadline(t *testing.T) {
	raw, err := keyv.EncodeEnvelope([]byte(`"value"`), nil)
	require.NoError(t, err)

	entry, err := keyv.DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Nil(t, entry.ExpiresAt)
}

func TestDecodeEnvelopeCorruptData(t *testing.T) {
	_, err := keyv.DecodeEnvelope([]byte("not json"))
	assert.ErrorIs(t, err, keyv.ErrDecoding)
}
