package domain

import (
	"fmt"
	"strings"

	"github.com/louisbranch/bimbridge/internal/host"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// ElementInfo describes one element in caller units.
type ElementInfo struct {
	ElementID   int64   `json:"elementId"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	Name        string  `json:"name"`
	IsType      bool    `json:"isType"`
	TypeID      int64   `json:"typeId,omitempty"`
	TypeName    string  `json:"typeName,omitempty"`
	LevelID     int64   `json:"levelId,omitempty"`
	Level       string  `json:"level,omitempty"`
	HostID      int64   `json:"hostId,omitempty"`
	Elevation   float64 `json:"elevation,omitempty"`
	Location    *Point  `json:"location,omitempty"`
	BoundingBox *Box    `json:"boundingBox,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Thickness   float64 `json:"thickness,omitempty"`
	BaseOffset  float64 `json:"baseOffset,omitempty"`
	Rotation    float64 `json:"rotation,omitempty"`
	Number      string  `json:"number,omitempty"`
	Hidden      bool    `json:"hidden"`
}

func describe(doc *host.Document, e *host.Element) ElementInfo {
	info := ElementInfo{
		ElementID:  int64(e.ID),
		Kind:       e.Kind.String(),
		Category:   e.Kind.DisplayName(),
		Name:       e.Name,
		IsType:     e.IsType,
		TypeID:     int64(e.TypeID),
		TypeName:   e.TypeName,
		LevelID:    int64(e.LevelID),
		HostID:     int64(e.HostID),
		Height:     mm(e.Height),
		Thickness:  mm(e.Thickness),
		BaseOffset: mm(e.BaseOffset),
		Rotation:   units.Round(units.RadiansToDegrees(e.Rotation), 6),
		Number:     e.Number,
		Hidden:     e.Hidden,
	}
	if e.Kind == host.KindLevel {
		info.Elevation = mm(e.Elevation)
	}
	if e.LevelID != host.InvalidElementID {
		if level, ok := doc.Get(e.LevelID); ok {
			info.Level = level.Name
		}
	}
	if loc, ok := e.Location(); ok {
		p := pointFromFeet(loc)
		info.Location = &p
	}
	if box, ok := e.BoundingBox(); ok {
		b := boxFromFeet(box)
		info.BoundingBox = &b
	}
	return info
}

// describeID describes the element doc holds under id.
func describeID(doc *host.Document, id host.ElementID) (ElementInfo, error) {
	e, ok := doc.Get(id)
	if !ok {
		return ElementInfo{}, fmt.Errorf("element %s: %w", id, host.ErrElementNotFound)
	}
	return describe(doc, e), nil
}

func describeAll(doc *host.Document, elements []*host.Element) []ElementInfo {
	out := make([]ElementInfo, 0, len(elements))
	for _, e := range elements {
		out = append(out, describe(doc, e))
	}
	return out
}

// resolveLevel finds the level named name, or the level nearest zFeet when
// name is empty.
func resolveLevel(doc *host.Document, name string, zFeet float64) (*host.Element, error) {
	if strings.TrimSpace(name) != "" {
		level, ok := doc.LevelByName(name)
		if !ok {
			return nil, apperrors.New(apperrors.CodeElementNotFound, fmt.Sprintf("level %q not found", name))
		}
		return level, nil
	}
	level, ok := doc.LevelAt(zFeet)
	if !ok {
		return nil, apperrors.New(apperrors.CodeElementNotFound, "document has no levels")
	}
	return level, nil
}

// parsePlacedKind parses category and checks it is placed the way the
// calling command places elements.
func parsePlacedKind(category string, placement host.Placement) (host.Kind, error) {
	kind, err := host.ParseKind(category)
	if err != nil {
		return host.KindUnknown, err
	}
	if kind.Placement() != placement {
		return host.KindUnknown, fmt.Errorf("category %q is not %s-based", category, placement)
	}
	return kind, nil
}

func toElementIDs(ids []int64) []host.ElementID {
	out := make([]host.ElementID, len(ids))
	for i, id := range ids {
		out[i] = host.ElementID(id)
	}
	return out
}

func validateElementIDs(ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("elementIds must contain at least one id")
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("elementIds contains invalid id %d", id)
		}
		if seen[id] {
			return fmt.Errorf("elementIds contains duplicate id %d", id)
		}
		seen[id] = true
	}
	return nil
}
