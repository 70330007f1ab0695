package bridge

import apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"

// Result is the uniform outcome returned for every command.
type Result struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Response any            `json:"response"`
	Code     apperrors.Code `json:"code,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(message string, payload any) Result {
	return Result{Success: true, Message: message, Response: payload}
}

// Failed builds a failed result with no payload.
func Failed(code apperrors.Code, message string) Result {
	return Result{Success: false, Message: message, Code: code}
}

// FailedFrom converts err into a failed result. Errors without a code are
// reported as operation failures.
func FailedFrom(err error) Result {
	return Failed(apperrors.CodeOr(err, apperrors.CodeOperationFailed), err.Error())
}

// TimedOut reports whether the result is a dispatch timeout rather than an
// operation failure.
func (r Result) TimedOut() bool {
	return !r.Success && r.Code == apperrors.CodeTimeout
}
