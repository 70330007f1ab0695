package host

import "math"

// XYZ is a point or vector in decimal feet.
type XYZ struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p XYZ) Add(o XYZ) XYZ { return XYZ{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }

func (p XYZ) Sub(o XYZ) XYZ { return XYZ{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }

func (p XYZ) Length() float64 { return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z) }

func (p XYZ) DistanceTo(o XYZ) float64 { return p.Sub(o).Length() }

// RotateZ rotates p about a vertical axis through center by angle radians.
func (p XYZ) RotateZ(center XYZ, angle float64) XYZ {
	sin, cos := math.Sincos(angle)
	dx, dy := p.X-center.X, p.Y-center.Y
	return XYZ{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
		Z: p.Z,
	}
}

// Line is a bounded straight curve.
type Line struct {
	P0 XYZ `json:"p0"`
	P1 XYZ `json:"p1"`
}

func (l Line) Length() float64 { return l.P0.DistanceTo(l.P1) }

func (l Line) Midpoint() XYZ {
	return XYZ{(l.P0.X + l.P1.X) / 2, (l.P0.Y + l.P1.Y) / 2, (l.P0.Z + l.P1.Z) / 2}
}

// PlanDistance returns the horizontal distance from p to the segment.
func (l Line) PlanDistance(p XYZ) float64 {
	dx, dy := l.P1.X-l.P0.X, l.P1.Y-l.P0.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((p.X-l.P0.X)*dx + (p.Y-l.P0.Y)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	cx, cy := l.P0.X+t*dx, l.P0.Y+t*dy
	return math.Hypot(p.X-cx, p.Y-cy)
}

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	Min XYZ `json:"min"`
	Max XYZ `json:"max"`
}

// BoxOf returns the smallest box containing points. It returns false when
// points is empty.
func BoxOf(points ...XYZ) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = XYZ{math.Min(box.Min.X, p.X), math.Min(box.Min.Y, p.Y), math.Min(box.Min.Z, p.Z)}
		box.Max = XYZ{math.Max(box.Max.X, p.X), math.Max(box.Max.Y, p.Y), math.Max(box.Max.Z, p.Z)}
	}
	return box, true
}

// Grow returns b expanded by d on every horizontal side.
func (b BoundingBox) Grow(d float64) BoundingBox {
	return BoundingBox{
		Min: XYZ{b.Min.X - d, b.Min.Y - d, b.Min.Z},
		Max: XYZ{b.Max.X + d, b.Max.Y + d, b.Max.Z},
	}
}

// Intersects reports whether the boxes overlap, touching faces included.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether p lies inside or on b.
func (b BoundingBox) Contains(p XYZ) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// PolygonArea returns the plan area enclosed by a closed boundary.
func PolygonArea(boundary []XYZ) float64 {
	if len(boundary) < 3 {
		return 0
	}
	var sum float64
	for i, p := range boundary {
		q := boundary[(i+1)%len(boundary)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// PolygonPerimeter returns the plan length of a closed boundary.
func PolygonPerimeter(boundary []XYZ) float64 {
	if len(boundary) < 2 {
		return 0
	}
	var total float64
	for i, p := range boundary {
		q := boundary[(i+1)%len(boundary)]
		total += math.Hypot(q.X-p.X, q.Y-p.Y)
	}
	return total
}

// Centroid returns the vertex average of points.
func Centroid(points []XYZ) XYZ {
	if len(points) == 0 {
		return XYZ{}
	}
	var c XYZ
	for _, p := range points {
		c = c.Add(p)
	}
	n := float64(len(points))
	return XYZ{c.X / n, c.Y / n, c.Z / n}
}
