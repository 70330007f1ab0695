package bridge

import (
	"errors"
	"testing"

	"github.com/louisbranch/bimbridge/internal/host"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

func receive(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	default:
		t.Fatal("completion channel was not signaled")
		return Result{}
	}
}

func openApp() (*host.App, *host.Document) {
	app := host.NewApp("test")
	doc := host.NewDocument("Project1", "")
	app.Open(doc)
	return app, doc
}

func TestExecuteSignalsAfterPanic(t *testing.T) {
	app, doc := openApp()
	h := NewEventHandler("explode", ModeWrite, func(inv *Invocation, p echoParams) (int, error) {
		if _, err := inv.Document.Add(&host.Element{Kind: host.KindLevel, Name: "Level 1"}); err != nil {
			return 0, err
		}
		panic("host fault")
	})
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	h.Execute(app)

	result := receive(t, h.Done())
	if result.Success {
		t.Fatal("expected failure after panic")
	}
	if result.Code != apperrors.CodeOperationFailed {
		t.Fatalf("code = %s", result.Code)
	}
	if stored, ok := h.Result(); !ok || stored.Message != result.Message {
		t.Fatalf("stored result = %+v %v", stored, ok)
	}
	if doc.Len() != 0 {
		t.Fatalf("expected rollback, document has %d elements", doc.Len())
	}
}

func TestExecuteConvertsErrors(t *testing.T) {
	app, doc := openApp()
	h := NewEventHandler("fail", ModeWrite, func(inv *Invocation, p echoParams) (int, error) {
		if _, err := inv.Document.Add(&host.Element{Kind: host.KindLevel}); err != nil {
			return 0, err
		}
		return 0, errors.New("wall type not loaded")
	})
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	h.Execute(app)

	result := receive(t, h.Done())
	if result.Success || result.Message != "fail failed: wall type not loaded" {
		t.Fatalf("result = %+v", result)
	}
	if doc.Len() != 0 || doc.Revision() != 0 {
		t.Fatalf("expected untouched document, len=%d revision=%d", doc.Len(), doc.Revision())
	}
}

func TestExecuteWithoutActiveDocument(t *testing.T) {
	called := false
	h := NewEventHandler("status", ModeRead, func(inv *Invocation, p echoParams) (int, error) {
		called = true
		return 0, nil
	})
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	h.Execute(host.NewApp("test"))

	result := receive(t, h.Done())
	if result.Code != apperrors.CodeNoActiveDocument {
		t.Fatalf("code = %s", result.Code)
	}
	if called {
		t.Fatal("operation ran without a document")
	}
}

func TestElementNotFoundCode(t *testing.T) {
	app, _ := openApp()
	h := NewEventHandler("lookup", ModeWrite, func(inv *Invocation, p echoParams) (int, error) {
		_, err := inv.Document.Delete(99)
		return 0, err
	})
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	h.Execute(app)
	if result := receive(t, h.Done()); result.Code != apperrors.CodeElementNotFound {
		t.Fatalf("code = %s", result.Code)
	}
}

func TestSetParametersRejectsReArmWhileBusy(t *testing.T) {
	h := NewEventHandler("noop", ModeRead, func(inv *Invocation, p echoParams) (int, error) { return 0, nil })
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := h.SetParameters("r2", echoParams{}); !errors.Is(err, ErrHandlerBusy) {
		t.Fatalf("expected ErrHandlerBusy, got %v", err)
	}
}

func TestReArmIsolatesResults(t *testing.T) {
	app, _ := openApp()
	h := NewEventHandler("echo", ModeRead, func(inv *Invocation, p echoParams) (int, error) {
		return p.Value, nil
	})

	if err := h.SetParameters("r1", echoParams{Value: 1}); err != nil {
		t.Fatalf("arm r1: %v", err)
	}
	first := h.Done()
	h.Execute(app)
	if got := receive(t, first); got.Response != 1 {
		t.Fatalf("first response = %v", got.Response)
	}

	if err := h.SetParameters("r2", echoParams{Value: 2}); err != nil {
		t.Fatalf("arm r2: %v", err)
	}
	if _, ok := h.Result(); ok {
		t.Fatal("re-arm must clear the previous result")
	}
	second := h.Done()
	if second == first {
		t.Fatal("re-arm must create a fresh completion channel")
	}
	h.Execute(app)
	if got := receive(t, second); got.Response != 2 {
		t.Fatalf("second response = %v", got.Response)
	}
	select {
	case stale := <-first:
		t.Fatalf("first channel received a second result: %+v", stale)
	default:
	}
}

func TestExecuteWithoutArmIsNoop(t *testing.T) {
	app, _ := openApp()
	called := false
	h := NewEventHandler("noop", ModeRead, func(inv *Invocation, p echoParams) (int, error) {
		called = true
		return 0, nil
	})
	h.Execute(app)
	if called {
		t.Fatal("idle handler must not run")
	}
}

type batchOutcome struct{ failed int }

func (b batchOutcome) Succeeded() bool { return b.failed == 0 }
func (b batchOutcome) Summary() string { return "batch done" }

func TestPayloadDecidesSuccess(t *testing.T) {
	app, _ := openApp()
	h := NewEventHandler("batch", ModeRead, func(inv *Invocation, p echoParams) (batchOutcome, error) {
		return batchOutcome{failed: p.Value}, nil
	})

	for _, tc := range []struct {
		failed int
		want   bool
	}{{0, true}, {2, false}} {
		if err := h.SetParameters("r", echoParams{Value: tc.failed}); err != nil {
			t.Fatalf("arm: %v", err)
		}
		h.Execute(app)
		result := receive(t, h.Done())
		if result.Success != tc.want || result.Message != "batch done" {
			t.Fatalf("failed=%d result = %+v", tc.failed, result)
		}
		if !tc.want && result.Code != apperrors.CodePartialFailure {
			t.Fatalf("code = %s", result.Code)
		}
		if result.Response == nil {
			t.Fatal("partial batches keep their payload")
		}
	}
}

func TestInvocationMissingIsPerInvocation(t *testing.T) {
	app, _ := openApp()
	h := NewEventHandler("missing", ModeRead, func(inv *Invocation, p echoParams) ([]host.ElementID, error) {
		for i := 0; i < p.Value; i++ {
			inv.NoteMissing(host.ElementID(100 + i))
		}
		return inv.Missing(), nil
	})
	for _, n := range []int{3, 1} {
		if err := h.SetParameters("r", echoParams{Value: n}); err != nil {
			t.Fatalf("arm: %v", err)
		}
		h.Execute(app)
		result := receive(t, h.Done())
		if got := result.Response.([]host.ElementID); len(got) != n {
			t.Fatalf("missing = %v, want %d ids", got, n)
		}
	}
}
