// Package sqlite persists the bridge command audit log in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/bimbridge/internal/bridge"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
	sqlitemigrate "github.com/louisbranch/bimbridge/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/bimbridge/internal/services/bim/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const (
	// DefaultListLimit applies when a caller passes a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps a single page of audit records.
	MaxListLimit = 500
)

// Store persists command audit records.
type Store struct {
	sqlDB *sql.DB
}

var _ bridge.Recorder = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite audit store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record appends one audit record.
func (s *Store) Record(ctx context.Context, rec bridge.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	requestID := strings.TrimSpace(rec.RequestID)
	command := strings.TrimSpace(rec.Command)
	if requestID == "" {
		return fmt.Errorf("request id is required")
	}
	if command == "" {
		return fmt.Errorf("command is required")
	}
	if rec.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO command_audit (
		   request_id,
		   command,
		   outcome,
		   code,
		   message,
		   params_digest,
		   trace_id,
		   span_id,
		   started_at,
		   duration_us
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requestID,
		command,
		string(rec.Outcome),
		string(rec.Code),
		rec.Message,
		rec.ParamsDigest,
		rec.TraceID,
		rec.SpanID,
		toMillis(startedAt),
		rec.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]bridge.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.query(ctx,
		`SELECT request_id, command, outcome, code, message, params_digest, trace_id, span_id, started_at, duration_us
		 FROM command_audit
		 ORDER BY started_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

// ListByRequestID returns every record for one request in insertion order.
// A request can have more than one record when the host completes it after
// the caller timed out.
func (s *Store) ListByRequestID(ctx context.Context, requestID string) ([]bridge.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("request id is required")
	}
	return s.query(ctx,
		`SELECT request_id, command, outcome, code, message, params_digest, trace_id, span_id, started_at, duration_us
		 FROM command_audit
		 WHERE request_id = ?
		 ORDER BY id ASC`,
		requestID,
	)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]bridge.AuditRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	records := make([]bridge.AuditRecord, 0)
	for rows.Next() {
		var (
			rec        bridge.AuditRecord
			outcome    string
			code       string
			startedAt  int64
			durationUS int64
		)
		if err := rows.Scan(
			&rec.RequestID,
			&rec.Command,
			&outcome,
			&code,
			&rec.Message,
			&rec.ParamsDigest,
			&rec.TraceID,
			&rec.SpanID,
			&startedAt,
			&durationUS,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Outcome = bridge.Outcome(outcome)
		rec.Code = apperrors.Code(code)
		rec.StartedAt = fromMillis(startedAt)
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}
