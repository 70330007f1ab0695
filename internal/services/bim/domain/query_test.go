package domain

import (
	"strconv"
	"testing"

	"github.com/louisbranch/bimbridge/internal/bridge"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
)

func TestGetRevitStatus(t *testing.T) {
	f := newFixture(t)
	createWall(t, f, 0, 5000)

	report := mustSucceed[StatusReport](t, f.run(t, CommandGetRevitStatus, `{}`))
	if report.HostVersion != "2025" || report.DocumentTitle != "Project1" || report.DocumentPath != "/models/Project1.rvt" {
		t.Fatalf("report = %+v", report)
	}
	if report.ElementCount != 3 || report.Categories["Levels"] != 2 || report.Categories["Walls"] != 1 {
		t.Fatalf("counts = %d %v", report.ElementCount, report.Categories)
	}
	if len(report.Levels) != 2 || report.Levels[1].Name != "Level 2" || !near(report.Levels[1].Elevation, 3000) {
		t.Fatalf("levels = %+v", report.Levels)
	}
	if report.Revision != 2 {
		t.Fatalf("revision = %d, want 2", report.Revision)
	}
}

func TestGetRevitStatusWithoutDocument(t *testing.T) {
	f := newFixture(t)
	f.app.CloseDocument()
	result := f.run(t, CommandGetRevitStatus, `null`)
	if result.Success || result.Code != apperrors.CodeNoActiveDocument {
		t.Fatalf("result = %+v", result)
	}
}

func TestGetElementInfoReportsMissing(t *testing.T) {
	f := newFixture(t)
	wallID := createWall(t, f, 0, 5000)

	raw := `{"elementIds":[` + strconv.FormatInt(wallID, 10) + `,404,405]}`
	report := mustSucceed[ElementInfoReport](t, f.run(t, CommandGetElementInfo, raw))
	if len(report.Elements) != 1 || report.Elements[0].ElementID != wallID {
		t.Fatalf("elements = %+v", report.Elements)
	}
	if len(report.MissingElementIDs) != 2 || report.MissingElementIDs[0] != 404 {
		t.Fatalf("missing = %v", report.MissingElementIDs)
	}

	// A second call must not inherit the first call's missing ids.
	raw = `{"elementIds":[` + strconv.FormatInt(wallID, 10) + `]}`
	report = mustSucceed[ElementInfoReport](t, f.run(t, CommandGetElementInfo, raw))
	if len(report.MissingElementIDs) != 0 {
		t.Fatalf("missing leaked between calls: %v", report.MissingElementIDs)
	}
}

func TestGetElementInfoErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		raw  string
		code apperrors.Code
	}{
		{raw: `{"elementIds":[]}`, code: apperrors.CodeValidationFailed},
		{raw: `{"elementIds":[3,3]}`, code: apperrors.CodeValidationFailed},
		{raw: `{"elementIds":[-1]}`, code: apperrors.CodeValidationFailed},
		{raw: `{"elementIds":[900]}`, code: apperrors.CodeElementNotFound},
	}
	for _, tc := range tests {
		if result := f.run(t, CommandGetElementInfo, tc.raw); result.Code != tc.code {
			t.Fatalf("%s: result = %+v, want %s", tc.raw, result, tc.code)
		}
	}
}

func TestFilterElements(t *testing.T) {
	f := newFixture(t)
	createWall(t, f, 0, 5000)
	createWall(t, f, 20000, 25000)

	tests := []struct {
		name      string
		raw       string
		count     int
		truncated bool
	}{
		{name: "category", raw: `{"filterCategory":"OST_Walls"}`, count: 2},
		{name: "types only", raw: `{"filterCategory":"wall","includeTypes":true,"includeInstances":false}`, count: 1},
		{name: "types and instances", raw: `{"filterCategory":"wall","includeTypes":true}`, count: 3},
		{name: "type name", raw: `{"filterSettings":{"filterElementType":"default"}}`, count: 2},
		{name: "bounding box", raw: `{"filterCategory":"wall","boundingBoxMin":{"x":-100,"y":-500,"z":0},"boundingBoxMax":{"x":6000,"y":500,"z":3000}}`, count: 1},
		{name: "truncated", raw: `{"filterCategory":"wall","maxElements":1}`, count: 1, truncated: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := mustSucceed[FilterResult](t, f.run(t, CommandAIElementFilter, tc.raw))
			if len(out.Elements) != tc.count || out.Truncated != tc.truncated {
				t.Fatalf("filter = %d elements (truncated=%v), want %d (%v)", len(out.Elements), out.Truncated, tc.count, tc.truncated)
			}
		})
	}
}

func TestFilterValidation(t *testing.T) {
	f := newFixture(t)
	for _, raw := range []string{
		`{}`,
		`{"filterCategory":"wall","includeTypes":false,"includeInstances":false}`,
		`{"boundingBoxMin":{"x":10,"y":0,"z":0},"boundingBoxMax":{"x":0,"y":10,"z":10}}`,
		`{"boundingBoxMin":{"x":0,"y":0,"z":0}}`,
		`{"filterCategory":"wall","maxElements":0}`,
		`{"filterCategory":"wall","maxElements":10001}`,
		`{"filterCategory":"teapot"}`,
	} {
		if result := f.run(t, CommandAIElementFilter, raw); result.Code != apperrors.CodeValidationFailed {
			t.Fatalf("%s: result = %+v", raw, result)
		}
	}
}

func TestExportRoomData(t *testing.T) {
	f := newFixture(t)
	square := `[{"x":0,"y":0,"z":0},{"x":4000,"y":0,"z":0},{"x":4000,"y":5000,"z":0},{"x":0,"y":5000,"z":0}]`
	mustSucceed[BatchOutcome](t, f.run(t, CommandCreateRoom,
		`{"rooms":[{"name":"Upper","number":"201","level":"Level 2","boundary":`+square+`},{"name":"Lower","number":"101","boundary":`+square+`,"height":2500}]}`))

	export := mustSucceed[RoomExport](t, f.run(t, CommandExportRoomData, `{"data":null}`))
	if export.RoomCount != 2 || !near(export.TotalArea, 40) {
		t.Fatalf("export = %+v", export)
	}
	lower := export.Rooms[0]
	if lower.Name != "Lower" || lower.Level != "Level 1" {
		t.Fatalf("rooms not ordered by level: %+v", export.Rooms)
	}
	if !near(lower.Area, 20) || !near(lower.Perimeter, 18000) || !near(lower.Height, 2500) || !near(lower.Volume, 50) {
		t.Fatalf("lower room = %+v", lower)
	}
	if lower.Boundary != nil {
		t.Fatal("boundary is only exported on request")
	}

	upper := mustSucceed[RoomExport](t, f.run(t, CommandExportRoomData, `{"level":"level 2","includeBoundary":true}`))
	if upper.RoomCount != 1 || upper.Rooms[0].Number != "201" || len(upper.Rooms[0].Boundary) != 4 {
		t.Fatalf("level export = %+v", upper)
	}

	if result := f.run(t, CommandExportRoomData, `{"level":"Mezzanine"}`); result.Code != apperrors.CodeElementNotFound {
		t.Fatalf("result = %+v", result)
	}
}

func TestRegisterAllCommands(t *testing.T) {
	f := newFixture(t)
	want := []string{
		CommandAIElementFilter,
		CommandCreateGrid,
		CommandCreateLevel,
		CommandCreateLineBasedElement,
		CommandCreatePointBasedElement,
		CommandCreateRoom,
		CommandCreateSurfaceBasedElement,
		CommandExportRoomData,
		CommandGetElementInfo,
		CommandGetRevitStatus,
		CommandOperateElement,
	}
	got := f.router.Commands()
	if len(got) != len(want) {
		t.Fatalf("registered %d commands, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Name != want[i] || d.Description == "" || d.Timeout <= 0 {
			t.Fatalf("command %d = %+v, want %s", i, d, want[i])
		}
	}

	if err := Register(f.router, bridge.Options{Dispatcher: nil}); err == nil {
		t.Fatal("expected error without dispatcher")
	}
}
