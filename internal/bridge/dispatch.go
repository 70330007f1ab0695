package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/bimbridge/internal/host"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

// Poster runs functions on the host's privileged thread.
type Poster interface {
	Post(fn func(*host.App)) error
	Done() <-chan struct{}
}

// Target is a unit of privileged work with a completion channel.
type Target interface {
	Execute(app *host.App)
	Done() <-chan Result
}

// Dispatcher hands targets to the privileged thread and waits for them.
type Dispatcher struct {
	thread Poster
}

// NewDispatcher returns a dispatcher posting to thread.
func NewDispatcher(thread Poster) *Dispatcher {
	return &Dispatcher{thread: thread}
}

// Closed is closed once the underlying thread has stopped.
func (d *Dispatcher) Closed() <-chan struct{} {
	return d.thread.Done()
}

// Raise runs target on the privileged thread and waits up to timeout for it
// to signal. signaled reports completion before the deadline, not success;
// the outcome is read from the target afterwards. A timeout does not stop
// the host-side work.
func (d *Dispatcher) Raise(ctx context.Context, target Target, timeout time.Duration) (signaled bool, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return false, fmt.Errorf("raise: timeout must be positive, got %s", timeout)
	}
	done := target.Done()
	if done == nil {
		return false, errors.New("raise: target is not armed")
	}

	if err := d.thread.Post(target.Execute); err != nil {
		return false, apperrors.Wrap(apperrors.CodeDispatchRejected, "host rejected the request", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, apperrors.Wrap(apperrors.CodeCanceled, "request canceled while waiting for the host", ctx.Err())
	case <-d.thread.Done():
		select {
		case <-done:
			return true, nil
		default:
		}
		return false, apperrors.Wrap(apperrors.CodeDispatchRejected, "host stopped before the request ran", host.ErrThreadClosed)
	}
}
