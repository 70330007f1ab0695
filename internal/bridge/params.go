package bridge

import (
	"bytes"
	"encoding/json"

	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

// Validator is implemented by every typed parameter set. A nil error means
// the parameters may be handed to the host; otherwise the error text is
// shown to the caller.
type Validator interface {
	Validate() error
}

// Decode builds typed parameters from payload. It starts from defaults so
// absent optional fields keep their documented values, then validates.
// Unknown fields are ignored.
func Decode[P Validator](payload json.RawMessage, defaults func() P) (P, error) {
	var params P
	if defaults != nil {
		params = defaults()
	}
	if trimmed := bytes.TrimSpace(payload); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &params); err != nil {
			var zero P
			return zero, apperrors.Wrap(apperrors.CodeValidationFailed, "invalid parameters", err)
		}
	}
	if err := params.Validate(); err != nil {
		var zero P
		return zero, apperrors.New(apperrors.CodeValidationFailed, err.Error())
	}
	return params, nil
}

// NoParams is the parameter type of commands that take no input.
type NoParams struct{}

func (NoParams) Validate() error { return nil }
