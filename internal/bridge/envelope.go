package bridge

import (
	"bytes"
	"encoding/json"

	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

const (
	requestIDKey = "requestId"
	dataKey      = "data"
)

// Envelope is the loosely typed input of one command invocation.
type Envelope struct {
	// Params is the raw JSON object as received.
	Params json.RawMessage
	// RequestID correlates logs and audit records. It carries no meaning
	// for the operation itself.
	RequestID string
}

// ParseEnvelope reads a JSON object, lifting a top-level requestId. Empty
// input and null are treated as an empty object.
func ParseEnvelope(raw []byte) (Envelope, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Envelope{Params: json.RawMessage("{}")}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Envelope{}, apperrors.Wrap(apperrors.CodeInvalidEnvelope, "parameters must be a JSON object", err)
	}

	env := Envelope{Params: append(json.RawMessage(nil), raw...)}
	if value, ok := fields[requestIDKey]; ok && !isNull(value) {
		if err := json.Unmarshal(value, &env.RequestID); err != nil {
			return Envelope{}, apperrors.Wrap(apperrors.CodeInvalidEnvelope, "requestId must be a string", err)
		}
	}
	return env, nil
}

// NewEnvelope marshals params into an envelope.
func NewEnvelope(requestID string, params any) (Envelope, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Envelope{}, apperrors.Wrap(apperrors.CodeInvalidEnvelope, "encode parameters", err)
	}
	env, err := ParseEnvelope(raw)
	if err != nil {
		return Envelope{}, err
	}
	if requestID != "" {
		env.RequestID = requestID
	}
	return env, nil
}

// Payload returns the capability-specific parameters. Callers may wrap them
// in a "data" key or send them at the top level; both shapes yield the same
// payload. A null "data" is an empty object.
func (e Envelope) Payload() (json.RawMessage, error) {
	raw := bytes.TrimSpace(e.Params)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("{}"), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidEnvelope, "parameters must be a JSON object", err)
	}
	if data, ok := fields[dataKey]; ok {
		if isNull(data) {
			return json.RawMessage("{}"), nil
		}
		return data, nil
	}

	delete(fields, requestIDKey)
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidEnvelope, "normalize parameters", err)
	}
	return payload, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
