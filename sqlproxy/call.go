// Package sqlproxy contains the transport shared by the guest-side bindings
// of the host's database interfaces. Each request is serialized to JSON,
// handed to a host-provided function, and the JSON response is decoded.
//
// The backend-specific request/response shapes and value types live in the
// sqlproxy/sqlite and sqlproxy/pg subpackages; the host side that serves them
// lives in sqlproxy/host.
package sqlproxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// HostCall sends a request payload to the host and returns the response
// payload. In a WASI guest it is backed by an imported host function; in
// tests and native programs it can call a host handler directly.
type HostCall func(requestPayload []byte) (responsePayload []byte, err error)

// ErrNoHost is returned when no host handler has been installed.
var ErrNoHost = errors.New("host handler is not set")

// Call marshals req, passes it to the host and unmarshals the reply into resp.
func Call(call HostCall, command string, req any, resp any) error {
	if call == nil {
		return ErrNoHost
	}

	reqPayload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", command, err)
	}

	respPayload, err := call(reqPayload)
	if err != nil {
		return fmt.Errorf("host call for %s failed: %w", command, err)
	}

	if err := json.Unmarshal(respPayload, resp); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", command, err)
	}
	return nil
}

// TaggedValue is the JSON form of one tagged-union value. Encoding is set
// when the payload is not the plain JSON form of the value.
type TaggedValue struct {
	Type     string          `json:"type"`
	Value    json.RawMessage `json:"value,omitempty"`
	Encoding string          `json:"encoding,omitempty"`
}

// Payload encodings for values JSON cannot carry directly.
const (
	// EncodingBytes is text sent as base64 bytes because it is not valid UTF-8.
	EncodingBytes = "bytes"
	// EncodingBits is a float sent as its IEEE 754 bit pattern because it is
	// infinite or NaN.
	EncodingBits = "bits"
)

// Tag builds a TaggedValue from a type name and a JSON-encodable payload.
// A nil payload produces a value with no "value" field.
func Tag(typ string, payload any) (TaggedValue, error) {
	if payload == nil {
		return TaggedValue{Type: typ}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return TaggedValue{}, fmt.Errorf("failed to marshal %s value: %w", typ, err)
	}
	return TaggedValue{Type: typ, Value: raw}, nil
}

// Untag decodes the payload of v into dest.
func Untag[T any](v TaggedValue) (T, error) {
	var dest T
	if len(v.Value) == 0 {
		return dest, fmt.Errorf("missing payload for %s value", v.Type)
	}
	if err := json.Unmarshal(v.Value, &dest); err != nil {
		return dest, fmt.Errorf("failed to unmarshal %s value: %w", v.Type, err)
	}
	return dest, nil
}

// TagText tags a text value. Text that is not valid UTF-8 would be mangled by
// encoding/json, so it is sent as raw bytes instead.
func TagText(typ string, s string) (TaggedValue, error) {
	if utf8.ValidString(s) {
		return Tag(typ, s)
	}
	tv, err := Tag(typ, []byte(s))
	tv.Encoding = EncodingBytes
	return tv, err
}

// UntagText is the inverse of TagText.
func UntagText(v TaggedValue) (string, error) {
	switch v.Encoding {
	case "":
		return Untag[string](v)
	case EncodingBytes:
		b, err := Untag[[]byte](v)
		return string(b), err
	}
	return "", fmt.Errorf("unknown encoding %q for %s value", v.Encoding, v.Type)
}

// TagFloat tags a float value. Infinities and NaN have no JSON number form,
// so they are sent as their bit pattern.
func TagFloat(typ string, f float64) (TaggedValue, error) {
	if !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Tag(typ, f)
	}
	tv, err := Tag(typ, math.Float64bits(f))
	tv.Encoding = EncodingBits
	return tv, err
}

// UntagFloat is the inverse of TagFloat.
func UntagFloat(v TaggedValue) (float64, error) {
	switch v.Encoding {
	case "":
		return Untag[float64](v)
	case EncodingBits:
		bits, err := Untag[uint64](v)
		return math.Float64frombits(bits), err
	}
	return 0, fmt.Errorf("unknown encoding %q for %s value", v.Encoding, v.Type)
}
