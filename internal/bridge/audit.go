package bridge

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

// Outcome classifies how an invocation ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeRejected means the request never reached the host.
	OutcomeRejected Outcome = "rejected"
	OutcomeTimedOut Outcome = "timed_out"
	OutcomeCanceled Outcome = "canceled"
	// OutcomeOrphaned is recorded when the host finishes a request whose
	// caller already gave up.
	OutcomeOrphaned Outcome = "orphaned"
)

// AuditRecord describes one invocation outcome.
type AuditRecord struct {
	RequestID    string
	Command      string
	Outcome      Outcome
	Code         apperrors.Code
	Message      string
	ParamsDigest string
	TraceID      string
	SpanID       string
	StartedAt    time.Time
	Duration     time.Duration
}

// Recorder persists audit records.
type Recorder interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// NopRecorder discards every record.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, AuditRecord) error { return nil }
