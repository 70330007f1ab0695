// Package errors provides structured, code-carrying errors for the bridge.
package errors

// Code is a machine-readable error code surfaced on failed results.
type Code string

const (
	// CodeUnknown represents an unclassified failure.
	CodeUnknown Code = "UNKNOWN"

	// Input errors, detected before anything reaches the host.
	CodeInvalidEnvelope  Code = "INVALID_ENVELOPE"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeUnknownCommand   Code = "UNKNOWN_COMMAND"

	// Dispatch errors.
	CodeTimeout          Code = "TIMEOUT"
	CodeCanceled         Code = "CANCELED"
	CodeHandlerBusy      Code = "HANDLER_BUSY"
	CodeDispatchRejected Code = "DISPATCH_REJECTED"

	// Host-side errors.
	CodeNoActiveDocument Code = "NO_ACTIVE_DOCUMENT"
	CodeElementNotFound  Code = "ELEMENT_NOT_FOUND"
	CodeOperationFailed  Code = "OPERATION_FAILED"
	CodePartialFailure   Code = "PARTIAL_FAILURE"
)

// Retryable reports whether a caller may reasonably retry the same request.
func (c Code) Retryable() bool {
	switch c {
	case CodeTimeout, CodeHandlerBusy, CodeDispatchRejected:
		return true
	default:
		return false
	}
}
