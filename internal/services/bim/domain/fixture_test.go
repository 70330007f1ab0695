package domain

import (
	"context"
	"testing"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

type fixture struct {
	app    *host.App
	doc    *host.Document
	router *bridge.Router
	level1 host.ElementID
	level2 host.ElementID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	app := host.NewApp("2025")
	doc := host.NewDocument("Project1", "/models/Project1.rvt")
	app.Open(doc)

	f := &fixture{app: app, doc: doc}
	err := doc.Transact("seed levels", func() error {
		var err error
		if f.level1, err = doc.Add(&host.Element{Kind: host.KindLevel, Name: "Level 1"}); err != nil {
			return err
		}
		f.level2, err = doc.Add(&host.Element{Kind: host.KindLevel, Name: "Level 2", Elevation: units.MMToFeet(3000)})
		return err
	})
	if err != nil {
		t.Fatalf("seed levels: %v", err)
	}

	thread := host.NewThread(app, 16, nil)
	t.Cleanup(thread.Close)
	router, err := NewRouter(bridge.Options{Dispatcher: bridge.NewDispatcher(thread)})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	f.router = router
	return f
}

func (f *fixture) run(t *testing.T, command, raw string) bridge.Result {
	t.Helper()
	return f.router.ExecuteJSON(context.Background(), command, []byte(raw))
}

func mustSucceed[R any](t *testing.T, result bridge.Result) R {
	t.Helper()
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	payload, ok := result.Response.(R)
	if !ok {
		t.Fatalf("response type = %T", result.Response)
	}
	return payload
}

func near(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
