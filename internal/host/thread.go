package host

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Post when the thread's queue is full.
	ErrQueueFull = errors.New("host thread queue is full")
	// ErrThreadClosed is returned by Post after Close.
	ErrThreadClosed = errors.New("host thread is closed")
)

// DefaultQueueSize is the queue depth used when NewThread gets a
// non-positive size.
const DefaultQueueSize = 64

// Thread is the single privileged execution context. Posted functions run
// one at a time, in order, and are the only code allowed to touch documents.
type Thread struct {
	app    *App
	logger *zap.Logger

	queue chan func(*App)
	quit  chan struct{}
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewThread starts the privileged goroutine for app.
func NewThread(app *App, queueSize int, logger *zap.Logger) *Thread {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Thread{
		app:    app,
		logger: logger,
		queue:  make(chan func(*App), queueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.loop()
	return t
}

// Post enqueues fn without blocking.
func (t *Thread) Post(fn func(*App)) error {
	if fn == nil {
		return errors.New("post: function is required")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrThreadClosed
	}
	select {
	case t.queue <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the thread after the function currently running, if any.
// Queued functions that have not started are dropped.
func (t *Thread) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.quit)
	}
	t.mu.Unlock()
	<-t.done
}

// Done is closed once the thread has stopped.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

func (t *Thread) loop() {
	defer close(t.done)
	for {
		// Prefer quitting over draining so Close is prompt.
		select {
		case <-t.quit:
			if dropped := len(t.queue); dropped > 0 {
				t.logger.Warn("host thread stopped with queued work", zap.Int("dropped", dropped))
			}
			return
		default:
		}
		select {
		case <-t.quit:
		case fn := <-t.queue:
			t.run(fn)
		}
	}
}

func (t *Thread) run(fn func(*App)) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("host thread recovered from panic", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn(t.app)
}
