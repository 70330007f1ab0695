package host

import "strconv"

// ElementID identifies an element within one document.
type ElementID int64

// InvalidElementID is never assigned to an element; ids start at 1, so a
// zero reference means "none".
const InvalidElementID ElementID = 0

func (id ElementID) String() string { return strconv.FormatInt(int64(id), 10) }

// Element is one item of the document. Geometry is absolute and in feet.
type Element struct {
	ID   ElementID
	Kind Kind
	Name string

	// IsType marks element types (e.g. a wall type) as opposed to placed
	// instances. Instances reference their type through TypeID.
	IsType   bool
	TypeID   ElementID
	TypeName string

	LevelID ElementID
	HostID  ElementID

	// Elevation is the height of a level datum.
	Elevation float64

	Curve    *Line
	Point    *XYZ
	Boundary []XYZ

	Height     float64
	Thickness  float64
	BaseOffset float64
	Rotation   float64

	Number string
	Hidden bool
}

// BoundingBox returns the element's extent, or false for elements without
// geometry (types and levels).
func (e *Element) BoundingBox() (BoundingBox, bool) {
	switch {
	case e.IsType:
		return BoundingBox{}, false
	case e.Curve != nil:
		box, _ := BoxOf(e.Curve.P0, e.Curve.P1)
		box = box.Grow(e.Thickness / 2)
		box.Max.Z += e.Height
		return box, true
	case e.Point != nil:
		box, _ := BoxOf(*e.Point)
		box.Max.Z += e.Height
		return box, true
	case len(e.Boundary) > 0:
		box, _ := BoxOf(e.Boundary...)
		box.Max.Z += e.Thickness + e.Height
		return box, true
	default:
		return BoundingBox{}, false
	}
}

// Location returns a representative point for the element.
func (e *Element) Location() (XYZ, bool) {
	switch {
	case e.Point != nil:
		return *e.Point, true
	case e.Curve != nil:
		return e.Curve.Midpoint(), true
	case len(e.Boundary) > 0:
		return Centroid(e.Boundary), true
	default:
		return XYZ{}, false
	}
}

// Translate moves all geometry by offset.
func (e *Element) Translate(offset XYZ) {
	if e.Curve != nil {
		e.Curve.P0 = e.Curve.P0.Add(offset)
		e.Curve.P1 = e.Curve.P1.Add(offset)
	}
	if e.Point != nil {
		p := e.Point.Add(offset)
		e.Point = &p
	}
	for i := range e.Boundary {
		e.Boundary[i] = e.Boundary[i].Add(offset)
	}
	if e.Kind == KindLevel {
		e.Elevation += offset.Z
	}
}

// RotateAbout rotates all geometry about a vertical axis through center.
func (e *Element) RotateAbout(center XYZ, angle float64) {
	if e.Curve != nil {
		e.Curve.P0 = e.Curve.P0.RotateZ(center, angle)
		e.Curve.P1 = e.Curve.P1.RotateZ(center, angle)
	}
	if e.Point != nil {
		p := e.Point.RotateZ(center, angle)
		e.Point = &p
	}
	for i := range e.Boundary {
		e.Boundary[i] = e.Boundary[i].RotateZ(center, angle)
	}
	e.Rotation += angle
}

// Clone returns a deep copy of e.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Curve != nil {
		curve := *e.Curve
		clone.Curve = &curve
	}
	if e.Point != nil {
		point := *e.Point
		clone.Point = &point
	}
	if e.Boundary != nil {
		clone.Boundary = append([]XYZ(nil), e.Boundary...)
	}
	return &clone
}
