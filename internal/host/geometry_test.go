package host

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPolygonAreaAndPerimeter(t *testing.T) {
	square := []XYZ{{0, 0, 0}, {10, 0, 0}, {10, 20, 0}, {0, 20, 0}}
	if got := PolygonArea(square); !near(got, 200) {
		t.Fatalf("area = %v, want 200", got)
	}
	reversed := []XYZ{square[3], square[2], square[1], square[0]}
	if got := PolygonArea(reversed); !near(got, 200) {
		t.Fatalf("area of clockwise boundary = %v, want 200", got)
	}
	if got := PolygonPerimeter(square); !near(got, 60) {
		t.Fatalf("perimeter = %v, want 60", got)
	}
	if got := PolygonArea(square[:2]); got != 0 {
		t.Fatalf("degenerate area = %v, want 0", got)
	}
}

func TestBoundingBoxIntersects(t *testing.T) {
	a := BoundingBox{Min: XYZ{0, 0, 0}, Max: XYZ{10, 10, 10}}
	tests := []struct {
		name string
		b    BoundingBox
		want bool
	}{
		{name: "overlap", b: BoundingBox{Min: XYZ{5, 5, 5}, Max: XYZ{15, 15, 15}}, want: true},
		{name: "touching", b: BoundingBox{Min: XYZ{10, 0, 0}, Max: XYZ{20, 10, 10}}, want: true},
		{name: "disjoint", b: BoundingBox{Min: XYZ{11, 0, 0}, Max: XYZ{20, 10, 10}}, want: false},
		{name: "above", b: BoundingBox{Min: XYZ{0, 0, 11}, Max: XYZ{10, 10, 20}}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Intersects(tc.b); got != tc.want {
				t.Fatalf("Intersects = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRotateZ(t *testing.T) {
	p := XYZ{X: 1, Y: 0, Z: 3}
	got := p.RotateZ(XYZ{}, math.Pi/2)
	if !near(got.X, 0) || !near(got.Y, 1) || got.Z != 3 {
		t.Fatalf("rotate = %+v", got)
	}
}

func TestPlanDistance(t *testing.T) {
	line := Line{P0: XYZ{0, 0, 0}, P1: XYZ{10, 0, 0}}
	if got := line.PlanDistance(XYZ{5, 3, 100}); !near(got, 3) {
		t.Fatalf("distance = %v, want 3", got)
	}
	if got := line.PlanDistance(XYZ{13, 4, 0}); !near(got, 5) {
		t.Fatalf("distance past endpoint = %v, want 5", got)
	}
}

func TestElementBoundingBox(t *testing.T) {
	wall := &Element{Kind: KindWall, Curve: &Line{P0: XYZ{0, 0, 0}, P1: XYZ{10, 0, 0}}, Thickness: 1, Height: 9}
	box, ok := wall.BoundingBox()
	if !ok {
		t.Fatal("expected wall bounding box")
	}
	if !near(box.Min.Y, -0.5) || !near(box.Max.Y, 0.5) || !near(box.Max.Z, 9) {
		t.Fatalf("wall box = %+v", box)
	}
	if _, ok := (&Element{Kind: KindWall, IsType: true}).BoundingBox(); ok {
		t.Fatal("types have no bounding box")
	}
}

func TestElementCloneIsDeep(t *testing.T) {
	original := &Element{
		Kind:     KindFloor,
		Point:    &XYZ{1, 2, 3},
		Curve:    &Line{P1: XYZ{1, 0, 0}},
		Boundary: []XYZ{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
	}
	clone := original.Clone()
	clone.Point.X = 99
	clone.Curve.P1.X = 99
	clone.Boundary[0].X = 99
	if original.Point.X == 99 || original.Curve.P1.X == 99 || original.Boundary[0].X == 99 {
		t.Fatal("clone shares geometry with original")
	}
}
