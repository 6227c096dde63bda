package keyv

import (
	"encoding/json"
	"fmt"
	"time"
)

// Encode serializes a value into the backend-neutral JSON representation.
func Encode(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return data, nil
}

// Decode deserializes a stored payload into dest, checking the stored shape
// against the requested type. Requesting an integer from a stored list fails
// here, not at write time.
func Decode(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return nil
}

// Envelope is the persisted shape for adapters that have no native expiry
// slot: the encoded value with the deadline as epoch milliseconds alongside
// it, never inside it.
type Envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *int64          `json:"expires_at,omitempty"`
}

// EncodeEnvelope packs an encoded payload and its deadline into a single
// byte slice.
func EncodeEnvelope(payload []byte, expiresAt *time.Time) ([]byte, error) {
	envelope := Envelope{Value: payload}
	if expiresAt != nil {
		millis := expiresAt.UnixMilli()
		envelope.ExpiresAt = &millis
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return data, nil
}

// DecodeEnvelope unpacks an envelope back into an Entry.
func DecodeEnvelope(data []byte) (*Entry, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	entry := &Entry{Payload: envelope.Value}
	if envelope.ExpiresAt != nil {
		deadline := time.UnixMilli(*envelope.ExpiresAt)
		entry.ExpiresAt = &deadline
	}
	return entry, nil
}
