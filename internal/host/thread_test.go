package host

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestThreadRunsPostedWorkInOrder(t *testing.T) {
	thread := NewThread(NewApp("2025"), 8, nil)
	defer thread.Close()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		if err := thread.Post(func(*App) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		}); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for posted work")
	}
	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestThreadSurvivesPanic(t *testing.T) {
	thread := NewThread(NewApp("2025"), 4, nil)
	defer thread.Close()

	if err := thread.Post(func(*App) { panic("boom") }); err != nil {
		t.Fatalf("post: %v", err)
	}
	ran := make(chan struct{})
	if err := thread.Post(func(*App) { close(ran) }); err != nil {
		t.Fatalf("post: %v", err)
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("thread did not survive panic")
	}
}

func TestThreadQueueFull(t *testing.T) {
	thread := NewThread(NewApp("2025"), 1, nil)
	defer thread.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	if err := thread.Post(func(*App) { close(started); <-release }); err != nil {
		t.Fatalf("post blocker: %v", err)
	}
	<-started
	if err := thread.Post(func(*App) {}); err != nil {
		t.Fatalf("post queued: %v", err)
	}
	if err := thread.Post(func(*App) {}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(release)
}

func TestThreadClose(t *testing.T) {
	thread := NewThread(NewApp("2025"), 1, nil)
	thread.Close()
	select {
	case <-thread.Done():
	default:
		t.Fatal("expected Done to be closed")
	}
	if err := thread.Post(func(*App) {}); !errors.Is(err, ErrThreadClosed) {
		t.Fatalf("expected ErrThreadClosed, got %v", err)
	}
	thread.Close()
}

func TestActiveDocument(t *testing.T) {
	app := NewApp("2025")
	if _, err := app.ActiveDocument(); !errors.Is(err, ErrNoActiveDocument) {
		t.Fatalf("expected ErrNoActiveDocument, got %v", err)
	}
	doc := NewDocument("Project1", "")
	app.Open(doc)
	got, err := app.ActiveDocument()
	if err != nil || got != doc {
		t.Fatalf("active document = %v %v", got, err)
	}
	app.CloseDocument()
	if _, err := app.ActiveDocument(); err == nil {
		t.Fatal("expected no active document after close")
	}
}
