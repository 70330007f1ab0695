package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
	"github.com/louisbranch/bimbridge/internal/platform/id"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/louisbranch/bimbridge/internal/bridge"

// orphanAuditTimeout bounds the audit write for a late completion.
const orphanAuditTimeout = 2 * time.Second

// Definition describes one capability.
type Definition[P Validator, R any] struct {
	Name        string
	Description string
	Timeout     time.Duration
	Mode        Mode
	// Defaults returns the parameters used for fields the caller omits.
	Defaults func() P
	Run      Operation[P, R]
}

// Options carries the collaborators shared by every command.
type Options struct {
	Dispatcher *Dispatcher
	Logger     *zap.Logger
	Recorder   Recorder
	Digester   *Digester
	Tracer     trace.Tracer
}

// Command is the caller-facing entry point of one capability. Concurrent
// callers queue for the command's single in-flight slot.
type Command[P Validator, R any] struct {
	name        string
	description string
	mode        Mode
	timeout     atomic.Int64
	defaults    func() P

	handler    *EventHandler[P, R]
	dispatcher *Dispatcher
	logger     *zap.Logger
	recorder   Recorder
	digester   *Digester
	tracer     trace.Tracer

	slot chan struct{}
}

// NewCommand builds a command from its definition.
func NewCommand[P Validator, R any](def Definition[P, R], opts Options) (*Command[P, R], error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, errors.New("command name is required")
	}
	if def.Run == nil {
		return nil, fmt.Errorf("command %s: operation is required", name)
	}
	if def.Timeout <= 0 {
		return nil, fmt.Errorf("command %s: timeout must be positive", name)
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("command %s: dispatcher is required", name)
	}

	c := &Command[P, R]{
		name:        name,
		description: def.Description,
		mode:        def.Mode,
		defaults:    def.Defaults,
		handler:     NewEventHandler(name, def.Mode, def.Run),
		dispatcher:  opts.Dispatcher,
		logger:      opts.Logger,
		recorder:    opts.Recorder,
		digester:    opts.Digester,
		tracer:      opts.Tracer,
		slot:        make(chan struct{}, 1),
	}
	c.timeout.Store(int64(def.Timeout))
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.recorder == nil {
		c.recorder = NopRecorder{}
	}
	if c.digester == nil {
		c.digester, _ = NewDigester(nil)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c, nil
}

// Descriptor describes the command for listings.
func (c *Command[P, R]) Descriptor() Descriptor {
	return Descriptor{
		Name:        c.name,
		Description: c.description,
		Timeout:     c.Timeout(),
		Mutates:     c.mode == ModeWrite,
	}
}

// Timeout returns the current wait budget.
func (c *Command[P, R]) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// SetTimeout replaces the wait budget for later invocations.
func (c *Command[P, R]) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("command %s: timeout must be positive, got %s", c.name, timeout)
	}
	c.timeout.Store(int64(timeout))
	return nil
}

// Execute runs one invocation and always returns a Result. Invalid input is
// rejected before anything reaches the host; a timeout is reported with
// CodeTimeout and never mixed up with an operation failure.
func (c *Command[P, R]) Execute(ctx context.Context, env Envelope) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID := strings.TrimSpace(env.RequestID)
	if requestID == "" {
		requestID = newRequestID()
	}
	started := time.Now().UTC()

	ctx, span := c.tracer.Start(ctx, "bridge.command/"+c.name, trace.WithAttributes(
		attribute.String("bridge.command", c.name),
		attribute.String("bridge.request_id", requestID),
	))
	defer span.End()

	var (
		outcome Outcome
		result  Result
		digest  string
	)
	payload, err := env.Payload()
	if err != nil {
		outcome, result = OutcomeRejected, FailedFrom(err)
	} else {
		digest = c.digester.Sum(payload)
		outcome, result = c.execute(ctx, requestID, payload)
	}

	span.SetAttributes(attribute.String("bridge.outcome", string(outcome)))
	if !result.Success {
		span.SetStatus(codes.Error, result.Message)
	}

	rec := AuditRecord{
		RequestID:    requestID,
		Command:      c.name,
		Outcome:      outcome,
		Code:         result.Code,
		Message:      result.Message,
		ParamsDigest: digest,
		StartedAt:    started,
		Duration:     time.Since(started),
	}
	if sc := span.SpanContext(); sc.IsValid() {
		rec.TraceID = sc.TraceID().String()
		rec.SpanID = sc.SpanID().String()
	}
	c.record(ctx, rec)
	return result
}

func (c *Command[P, R]) execute(ctx context.Context, requestID string, payload json.RawMessage) (Outcome, Result) {
	params, err := Decode(payload, c.defaults)
	if err != nil {
		c.logger.Debug("rejected command parameters",
			zap.String("command", c.name),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return OutcomeRejected, FailedFrom(err)
	}

	timeout := c.Timeout()
	deadline := time.Now().Add(timeout)
	if outcome, result, ok := c.acquire(ctx, timeout); !ok {
		return outcome, result
	}
	if err := ctx.Err(); err != nil {
		c.release()
		return OutcomeCanceled, FailedFrom(apperrors.Wrap(apperrors.CodeCanceled, "request canceled before dispatch", err))
	}

	if err := c.handler.SetParameters(requestID, params); err != nil {
		c.release()
		return OutcomeFailed, FailedFrom(err)
	}
	done := c.handler.Done()

	remaining := time.Until(deadline)
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	signaled, err := c.dispatcher.Raise(ctx, c.handler, remaining)
	switch {
	case err != nil && apperrors.GetCode(err) == apperrors.CodeCanceled:
		c.abandon(requestID, done)
		return OutcomeCanceled, FailedFrom(err)
	case err != nil:
		c.handler.disarm(requestID)
		c.release()
		c.logger.Warn("command dispatch failed",
			zap.String("command", c.name),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return OutcomeFailed, FailedFrom(err)
	case !signaled:
		c.abandon(requestID, done)
		c.logger.Warn("command timed out",
			zap.String("command", c.name),
			zap.String("request_id", requestID),
			zap.Duration("timeout", timeout),
		)
		return OutcomeTimedOut, Failed(apperrors.CodeTimeout,
			fmt.Sprintf("%s timed out after %s; the host may still complete the operation", c.name, timeout))
	}

	result, ok := c.handler.Result()
	c.release()
	if !ok {
		return OutcomeFailed, Failed(apperrors.CodeOperationFailed, c.name+" signaled without a result")
	}
	if result.Success {
		return OutcomeSucceeded, result
	}
	return OutcomeFailed, result
}

func (c *Command[P, R]) acquire(ctx context.Context, timeout time.Duration) (Outcome, Result, bool) {
	select {
	case c.slot <- struct{}{}:
		return "", Result{}, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c.slot <- struct{}{}:
		return "", Result{}, true
	case <-timer.C:
		return OutcomeTimedOut, Failed(apperrors.CodeTimeout,
			fmt.Sprintf("%s timed out after %s waiting for a previous request to finish", c.name, timeout)), false
	case <-ctx.Done():
		return OutcomeCanceled, Failed(apperrors.CodeCanceled, "request canceled while waiting for a previous request"), false
	}
}

func (c *Command[P, R]) release() {
	<-c.slot
}

// abandon gives up waiting on the invocation. The slot stays held until the
// host is done with it, and a late result is reported as orphaned.
func (c *Command[P, R]) abandon(requestID string, done <-chan Result) {
	go func() {
		var (
			result   Result
			finished bool
		)
		select {
		case result = <-done:
			finished = true
		case <-c.dispatcher.Closed():
			select {
			case result = <-done:
				finished = true
			default:
			}
		}
		c.release()
		if finished {
			c.reportOrphan(requestID, result)
		}
	}()
}

func (c *Command[P, R]) reportOrphan(requestID string, result Result) {
	c.logger.Warn("host completed a request after its caller gave up",
		zap.String("command", c.name),
		zap.String("request_id", requestID),
		zap.Bool("success", result.Success),
		zap.String("message", result.Message),
	)
	ctx, cancel := context.WithTimeout(context.Background(), orphanAuditTimeout)
	defer cancel()
	c.record(ctx, AuditRecord{
		RequestID: requestID,
		Command:   c.name,
		Outcome:   OutcomeOrphaned,
		Code:      result.Code,
		Message:   result.Message,
		StartedAt: time.Now().UTC(),
	})
}

func (c *Command[P, R]) record(ctx context.Context, rec AuditRecord) {
	if err := c.recorder.Record(ctx, rec); err != nil {
		c.logger.Warn("record command audit",
			zap.String("command", rec.Command),
			zap.String("request_id", rec.RequestID),
			zap.Error(err),
		)
	}
}

func newRequestID() string {
	value, err := id.NewID()
	if err != nil {
		return "req-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return value
}
