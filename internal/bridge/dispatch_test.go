package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/bimbridge/internal/host"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

func TestRaiseSignaledEvenOnFailure(t *testing.T) {
	th := newTestHost(t)
	h := NewEventHandler("explode", ModeRead, func(inv *Invocation, p echoParams) (int, error) {
		panic("boom")
	})
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	signaled, err := th.dispatcher.Raise(context.Background(), h, time.Second)
	if err != nil || !signaled {
		t.Fatalf("raise = %v %v, want signaled", signaled, err)
	}
	if result, ok := h.Result(); !ok || result.Success {
		t.Fatalf("result = %+v %v", result, ok)
	}
}

func TestRaiseTimesOut(t *testing.T) {
	th := newTestHost(t)
	release := make(chan struct{})
	defer close(release)
	h := NewEventHandler("slow", ModeRead, func(inv *Invocation, p echoParams) (int, error) {
		<-release
		return 1, nil
	})
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	signaled, err := th.dispatcher.Raise(context.Background(), h, 20*time.Millisecond)
	if err != nil || signaled {
		t.Fatalf("raise = %v %v, want timeout", signaled, err)
	}
}

func TestRaiseCanceled(t *testing.T) {
	th := newTestHost(t)
	release := make(chan struct{})
	defer close(release)
	h := NewEventHandler("slow", ModeRead, func(inv *Invocation, p echoParams) (int, error) {
		<-release
		return 1, nil
	})
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := th.dispatcher.Raise(ctx, h, time.Second)
	if code := apperrors.GetCode(err); code != apperrors.CodeCanceled {
		t.Fatalf("code = %s (%v)", code, err)
	}
}

func TestRaiseRejectedByClosedThread(t *testing.T) {
	app := host.NewApp("test")
	thread := host.NewThread(app, 1, nil)
	thread.Close()
	d := NewDispatcher(thread)

	h := NewEventHandler("noop", ModeRead, func(inv *Invocation, p echoParams) (int, error) { return 0, nil })
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	_, err := d.Raise(context.Background(), h, time.Second)
	if code := apperrors.GetCode(err); code != apperrors.CodeDispatchRejected {
		t.Fatalf("code = %s (%v)", code, err)
	}
}

func TestRaiseRequiresArmedTarget(t *testing.T) {
	th := newTestHost(t)
	h := NewEventHandler("noop", ModeRead, func(inv *Invocation, p echoParams) (int, error) { return 0, nil })
	if _, err := th.dispatcher.Raise(context.Background(), h, time.Second); err == nil {
		t.Fatal("expected error for unarmed target")
	}
	if err := h.SetParameters("r1", echoParams{}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if _, err := th.dispatcher.Raise(context.Background(), h, 0); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}
