package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
)

// Descriptor is the public description of a registered command.
type Descriptor struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Timeout     time.Duration `json:"-"`
	Mutates     bool          `json:"mutates"`
}

// Runner is what the router dispatches to. *Command implements it.
type Runner interface {
	Descriptor() Descriptor
	SetTimeout(timeout time.Duration) error
	Execute(ctx context.Context, env Envelope) Result
}

// Router dispatches invocations by command name.
type Router struct {
	mu      sync.RWMutex
	runners map[string]Runner
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{runners: make(map[string]Runner)}
}

// Register adds runner under its descriptor name.
func (r *Router) Register(runner Runner) error {
	if runner == nil {
		return errors.New("register: runner is required")
	}
	name := strings.TrimSpace(runner.Descriptor().Name)
	if name == "" {
		return errors.New("register: command name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runners[name]; exists {
		return fmt.Errorf("register: command %q already registered", name)
	}
	r.runners[name] = runner
	return nil
}

// Lookup returns the runner registered under name.
func (r *Router) Lookup(name string) (Runner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[name]
	return runner, ok
}

// Execute runs the named command.
func (r *Router) Execute(ctx context.Context, name string, env Envelope) Result {
	runner, ok := r.Lookup(name)
	if !ok {
		return Failed(apperrors.CodeUnknownCommand, fmt.Sprintf("unknown command %q", name))
	}
	return runner.Execute(ctx, env)
}

// ExecuteJSON parses raw as an envelope and runs the named command.
func (r *Router) ExecuteJSON(ctx context.Context, name string, raw []byte) Result {
	if _, ok := r.Lookup(name); !ok {
		return Failed(apperrors.CodeUnknownCommand, fmt.Sprintf("unknown command %q", name))
	}
	env, err := ParseEnvelope(raw)
	if err != nil {
		return FailedFrom(err)
	}
	return r.Execute(ctx, name, env)
}

// Commands lists every registered command sorted by name.
func (r *Router) Commands() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.runners))
	for _, runner := range r.runners {
		out = append(out, runner.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ApplyTimeouts applies a timeout profile. Profiles naming commands that are
// not registered are rejected before any timeout changes.
func (r *Router) ApplyTimeouts(profile timeouts.Profile) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range profile.CommandNames() {
		if _, ok := r.runners[name]; !ok {
			return fmt.Errorf("timeout profile: unknown command %q", name)
		}
	}
	for name, runner := range r.runners {
		if err := runner.SetTimeout(profile.For(name, runner.Descriptor().Timeout)); err != nil {
			return fmt.Errorf("timeout profile: %w", err)
		}
	}
	return nil
}
