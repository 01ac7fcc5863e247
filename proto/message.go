package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ClientID is sent as meta.id on every request. The speakers do not use it
// for correlation; only one request is ever in flight.
const ClientID = "999912345678"

// TargetTypeRoom is the only target type this client addresses.
const TargetTypeRoom = "room"

// WildcardTarget asks the server to enumerate all targets.
const WildcardTarget = "*"

type Method string

const (
	MethodRead   Method = "read"
	MethodUpdate Method = "update"
	MethodSelect Method = "select"
)

// ErrMalformedResponse is returned when a message is not valid JSON or lacks
// a field the caller needs.
var ErrMalformedResponse = errors.New("malformed response")

type Meta struct {
	ID         string `json:"id"`
	Method     Method `json:"method"`
	Endpoint   string `json:"endpoint"`   // logical resource, e.g. "sleep", "gain2"
	TargetType string `json:"targetType"` // always "room" on requests
	Target     string `json:"target"`     // "*" or a resolved target id
}

// Envelope is the {meta, data} message exchanged with the speaker.
type Envelope struct {
	Meta Meta            `json:"meta"`
	Data json.RawMessage `json:"data"`

	raw []byte
}

// Raw returns the message as received, before decoding.
func (e Envelope) Raw() []byte {
	return e.raw
}

// Encode builds a request envelope. A nil data encodes as an empty object so
// the data member is always present.
func Encode(method Method, endpoint, target string, data any) ([]byte, error) {
	payload := json.RawMessage("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s data: %w", endpoint, err)
		}
		if !bytes.Equal(b, []byte("null")) {
			payload = b
		}
	}

	return json.Marshal(Envelope{
		Meta: Meta{
			ID:         ClientID,
			Method:     method,
			Endpoint:   endpoint,
			TargetType: TargetTypeRoom,
			Target:     target,
		},
		Data: payload,
	})
}

// EncodeRequest encodes a typed request addressed at target.
func EncodeRequest(req Request, target string) ([]byte, error) {
	return Encode(req.Method(), req.Endpoint(), target, req)
}

// Decode parses a message received from the speaker.
func Decode(msg []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	env.raw = msg
	return env, nil
}

// DecodeData unmarshals the data member into v. A missing or null data member
// is a malformed response.
func (e Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return fmt.Errorf("%w: %s response has no data", ErrMalformedResponse, e.Meta.Endpoint)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformedResponse, e.Meta.Endpoint, err)
	}
	return nil
}
