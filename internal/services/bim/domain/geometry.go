package domain

import (
	"fmt"

	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// Point is a location or vector in millimetres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point) feet() host.XYZ {
	return host.XYZ{X: units.MMToFeet(p.X), Y: units.MMToFeet(p.Y), Z: units.MMToFeet(p.Z)}
}

func (p Point) isZero() bool { return p == Point{} }

func pointFromFeet(p host.XYZ) Point {
	return Point{
		X: units.Round(units.FeetToMM(p.X), 3),
		Y: units.Round(units.FeetToMM(p.Y), 3),
		Z: units.Round(units.FeetToMM(p.Z), 3),
	}
}

func pointsToFeet(points []Point) []host.XYZ {
	out := make([]host.XYZ, len(points))
	for i, p := range points {
		out[i] = p.feet()
	}
	return out
}

func pointsFromFeet(points []host.XYZ) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = pointFromFeet(p)
	}
	return out
}

// Segment is a straight line in millimetres.
type Segment struct {
	P0 Point `json:"p0"`
	P1 Point `json:"p1"`
}

// Box is an axis-aligned box in millimetres.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func boxFromFeet(b host.BoundingBox) Box {
	return Box{Min: pointFromFeet(b.Min), Max: pointFromFeet(b.Max)}
}

func mm(feet float64) float64 {
	return units.Round(units.FeetToMM(feet), 3)
}

func validateBoundary(field string, boundary []Point) error {
	if len(boundary) < 3 {
		return fmt.Errorf("%s needs at least 3 points, got %d", field, len(boundary))
	}
	if host.PolygonArea(pointsToFeet(boundary)) == 0 {
		return fmt.Errorf("%s encloses no area", field)
	}
	return nil
}
