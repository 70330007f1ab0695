package host

import (
	"errors"
	"sync"
)

// ErrNoActiveDocument is returned when no document is open.
var ErrNoActiveDocument = errors.New("no active document")

// App is the host application: a version string and at most one active
// document.
type App struct {
	version string

	mu     sync.RWMutex
	active *Document
}

// NewApp returns an application with no open document.
func NewApp(version string) *App {
	return &App{version: version}
}

func (a *App) Version() string { return a.version }

// Open makes doc the active document.
func (a *App) Open(doc *Document) {
	a.mu.Lock()
	a.active = doc
	a.mu.Unlock()
}

// CloseDocument clears the active document.
func (a *App) CloseDocument() {
	a.mu.Lock()
	a.active = nil
	a.mu.Unlock()
}

// ActiveDocument returns the open document or ErrNoActiveDocument.
func (a *App) ActiveDocument() (*Document, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.active == nil {
		return nil, ErrNoActiveDocument
	}
	return a.active, nil
}
