package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/bimbridge/internal/host"
)

type echoParams struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

func (p echoParams) Validate() error {
	if p.Value < 0 {
		return errors.New("value must be non-negative")
	}
	return nil
}

func echoDefaults() echoParams { return echoParams{Label: "default"} }

type testHost struct {
	app        *host.App
	doc        *host.Document
	thread     *host.Thread
	dispatcher *Dispatcher
	recorder   *memoryRecorder
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	app := host.NewApp("test")
	doc := host.NewDocument("Project1", "")
	app.Open(doc)
	thread := host.NewThread(app, 8, nil)
	t.Cleanup(thread.Close)
	return &testHost{
		app:        app,
		doc:        doc,
		thread:     thread,
		dispatcher: NewDispatcher(thread),
		recorder:   newMemoryRecorder(),
	}
}

func (h *testHost) command(t *testing.T, def Definition[echoParams, int]) *Command[echoParams, int] {
	t.Helper()
	if def.Defaults == nil {
		def.Defaults = echoDefaults
	}
	cmd, err := NewCommand(def, Options{Dispatcher: h.dispatcher, Recorder: h.recorder})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	return cmd
}

func mustEnvelope(t *testing.T, raw string) Envelope {
	t.Helper()
	env, err := ParseEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("parse envelope %s: %v", raw, err)
	}
	return env
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []AuditRecord
	notify  chan AuditRecord
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{notify: make(chan AuditRecord, 64)}
}

func (r *memoryRecorder) Record(_ context.Context, rec AuditRecord) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	select {
	case r.notify <- rec:
	default:
	}
	return nil
}

func (r *memoryRecorder) snapshot() []AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuditRecord(nil), r.records...)
}

func (r *memoryRecorder) waitFor(t *testing.T, outcome Outcome) AuditRecord {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case rec := <-r.notify:
			if rec.Outcome == outcome {
				return rec
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s audit record", outcome)
			return AuditRecord{}
		}
	}
}
