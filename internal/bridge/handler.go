package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/louisbranch/bimbridge/internal/host"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

// ErrHandlerBusy is returned when a handler is armed again before its
// previous invocation completed.
var ErrHandlerBusy = apperrors.New(apperrors.CodeHandlerBusy, "handler is busy with another request")

// Mode tells a handler whether its operation changes the document.
type Mode int

const (
	// ModeRead runs the operation without a transaction.
	ModeRead Mode = iota
	// ModeWrite runs the operation inside one document transaction.
	ModeWrite
)

// Operation is the privileged work of one capability. It runs on the host
// thread with the active document already resolved.
type Operation[P, R any] func(inv *Invocation, params P) (R, error)

// Invocation is the per-request context an operation runs with.
type Invocation struct {
	RequestID string
	Command   string
	App       *host.App
	Document  *host.Document

	missing []host.ElementID
}

// NoteMissing records an id the request referenced that the document does
// not contain.
func (inv *Invocation) NoteMissing(id host.ElementID) {
	inv.missing = append(inv.missing, id)
}

// Missing returns the ids noted by NoteMissing.
func (inv *Invocation) Missing() []host.ElementID {
	return append([]host.ElementID(nil), inv.missing...)
}

// Succeeder is implemented by payloads that decide overall success
// themselves, such as partial batches.
type Succeeder interface {
	Succeeded() bool
}

// Summarizer is implemented by payloads that provide their own message.
type Summarizer interface {
	Summary() string
}

type handlerState int

const (
	stateIdle handlerState = iota
	stateArmed
	stateRunning
	stateCompleted
)

func (s handlerState) String() string {
	switch s {
	case stateArmed:
		return "armed"
	case stateRunning:
		return "running"
	case stateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// EventHandler holds at most one in-flight invocation of an operation.
type EventHandler[P, R any] struct {
	name string
	mode Mode
	op   Operation[P, R]

	mu        sync.Mutex
	state     handlerState
	requestID string
	params    P
	result    *Result
	done      chan Result
}

// NewEventHandler returns an idle handler for op.
func NewEventHandler[P, R any](name string, mode Mode, op Operation[P, R]) *EventHandler[P, R] {
	return &EventHandler[P, R]{name: name, mode: mode, op: op}
}

// SetParameters arms the handler for a new invocation. It fails with
// ErrHandlerBusy while a previous invocation is armed or running.
func (h *EventHandler[P, R]) SetParameters(requestID string, params P) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateArmed || h.state == stateRunning {
		return ErrHandlerBusy
	}
	h.state = stateArmed
	h.requestID = requestID
	h.params = params
	h.result = nil
	h.done = make(chan Result, 1)
	return nil
}

// Done returns the completion channel of the current invocation. It receives
// exactly one Result.
func (h *EventHandler[P, R]) Done() <-chan Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// Result returns the result of the last completed invocation.
func (h *EventHandler[P, R]) Result() (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result == nil {
		return Result{}, false
	}
	return *h.result, true
}

// Execute runs the armed invocation. It must be called on the host thread.
// Whatever happens inside the operation, a Result is stored and delivered
// before Execute returns.
func (h *EventHandler[P, R]) Execute(app *host.App) {
	h.mu.Lock()
	if h.state != stateArmed {
		h.mu.Unlock()
		return
	}
	h.state = stateRunning
	requestID, params, done := h.requestID, h.params, h.done
	h.mu.Unlock()

	result := Failed(apperrors.CodeOperationFailed, h.name+" produced no result")
	defer func() {
		if r := recover(); r != nil {
			result = Failed(apperrors.CodeOperationFailed, fmt.Sprintf("%s failed: %v", h.name, r))
		}
		h.complete(done, result)
	}()
	result = h.run(app, requestID, params)
}

func (h *EventHandler[P, R]) run(app *host.App, requestID string, params P) Result {
	if app == nil {
		return Failed(apperrors.CodeNoActiveDocument, "no host application")
	}
	doc, err := app.ActiveDocument()
	if err != nil {
		return Failed(apperrors.CodeNoActiveDocument, "no active document is open")
	}

	inv := &Invocation{RequestID: requestID, Command: h.name, App: app, Document: doc}
	var payload R
	if h.mode == ModeWrite {
		err = doc.Transact(h.name, func() error {
			var opErr error
			payload, opErr = h.op(inv, params)
			return opErr
		})
	} else {
		payload, err = h.op(inv, params)
	}
	if err != nil {
		return operationFailure(h.name, err)
	}
	return successResult(h.name, payload)
}

func operationFailure(name string, err error) Result {
	code := apperrors.CodeOr(err, apperrors.CodeOperationFailed)
	if errors.Is(err, host.ErrElementNotFound) {
		code = apperrors.CodeElementNotFound
	}
	return Failed(code, fmt.Sprintf("%s failed: %v", name, err))
}

func successResult(name string, payload any) Result {
	message := name + " completed"
	if s, ok := payload.(Summarizer); ok {
		message = s.Summary()
	}
	if s, ok := payload.(Succeeder); ok && !s.Succeeded() {
		return Result{Success: false, Message: message, Response: payload, Code: apperrors.CodePartialFailure}
	}
	return Succeeded(message, payload)
}

// complete stores result and delivers it on done. Nothing else runs here:
// reporting a result nobody waited for happens off the host thread.
func (h *EventHandler[P, R]) complete(done chan Result, result Result) {
	h.mu.Lock()
	stored := result
	h.result = &stored
	h.state = stateCompleted
	h.mu.Unlock()

	done <- result
}

// disarm returns an armed invocation that never reached the host to idle.
func (h *EventHandler[P, R]) disarm(requestID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.requestID == requestID && h.state == stateArmed {
		h.state = stateIdle
		h.done = nil
	}
}
