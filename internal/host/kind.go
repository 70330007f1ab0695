// Package host models the small slice of a BIM document the bridge commands
// operate on: typed elements, all-or-nothing transactions and the single
// privileged thread that is allowed to touch them.
package host

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the closed set of element kinds the bridge can create or query.
type Kind int

const (
	KindUnknown Kind = iota
	KindLevel
	KindGrid
	KindWall
	KindStructuralFraming
	KindStructuralColumn
	KindDoor
	KindWindow
	KindFurniture
	KindFloor
	KindCeiling
	KindRoof
	KindRoom
)

// Placement describes how an element of a kind is located in the model.
type Placement int

const (
	PlacementNone Placement = iota
	PlacementLevel
	PlacementGrid
	PlacementLine
	PlacementPoint
	PlacementSurface
	PlacementRoom
)

func (p Placement) String() string {
	switch p {
	case PlacementLevel:
		return "level"
	case PlacementGrid:
		return "grid"
	case PlacementLine:
		return "line"
	case PlacementPoint:
		return "point"
	case PlacementSurface:
		return "surface"
	case PlacementRoom:
		return "room"
	default:
		return "none"
	}
}

type kindInfo struct {
	label     string
	category  string
	display   string
	placement Placement
	// hostKind is the kind an instance must be hosted by, or KindUnknown.
	hostKind Kind
}

var kindTable = map[Kind]kindInfo{
	KindLevel:             {label: "level", category: "OST_Levels", display: "Levels", placement: PlacementLevel},
	KindGrid:              {label: "grid", category: "OST_Grids", display: "Grids", placement: PlacementGrid},
	KindWall:              {label: "wall", category: "OST_Walls", display: "Walls", placement: PlacementLine},
	KindStructuralFraming: {label: "structural_framing", category: "OST_StructuralFraming", display: "Structural Framing", placement: PlacementLine},
	KindStructuralColumn:  {label: "structural_column", category: "OST_StructuralColumns", display: "Structural Columns", placement: PlacementPoint},
	KindDoor:              {label: "door", category: "OST_Doors", display: "Doors", placement: PlacementPoint, hostKind: KindWall},
	KindWindow:            {label: "window", category: "OST_Windows", display: "Windows", placement: PlacementPoint, hostKind: KindWall},
	KindFurniture:         {label: "furniture", category: "OST_Furniture", display: "Furniture", placement: PlacementPoint},
	KindFloor:             {label: "floor", category: "OST_Floors", display: "Floors", placement: PlacementSurface},
	KindCeiling:           {label: "ceiling", category: "OST_Ceilings", display: "Ceilings", placement: PlacementSurface},
	KindRoof:              {label: "roof", category: "OST_Roofs", display: "Roofs", placement: PlacementSurface},
	KindRoom:              {label: "room", category: "OST_Rooms", display: "Rooms", placement: PlacementRoom},
}

var kindLookup = buildKindLookup()

func buildKindLookup() map[string]Kind {
	lookup := make(map[string]Kind, len(kindTable)*4)
	for kind, info := range kindTable {
		lookup[normalizeKindName(info.label)] = kind
		lookup[normalizeKindName(info.category)] = kind
		lookup[normalizeKindName(info.display)] = kind
		lookup[normalizeKindName(info.label+"s")] = kind
	}
	return lookup
}

func normalizeKindName(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.NewReplacer(" ", "_", "-", "_").Replace(value)
	return value
}

// ParseKind resolves a kind from its label ("wall"), its plural or display
// name ("Walls") or its category name ("OST_Walls"), ignoring case.
func ParseKind(value string) (Kind, error) {
	if kind, ok := kindLookup[normalizeKindName(value)]; ok {
		return kind, nil
	}
	return KindUnknown, fmt.Errorf("unsupported element category %q", value)
}

// Kinds returns every registered kind ordered by label.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindTable))
	for kind := range kindTable {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].String() < kinds[j].String() })
	return kinds
}

// Valid reports whether k is a registered kind.
func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

func (k Kind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.label
	}
	return "unknown"
}

// Category returns the host category name, e.g. OST_Walls.
func (k Kind) Category() string {
	return kindTable[k].category
}

// DisplayName returns the human category name, e.g. Walls.
func (k Kind) DisplayName() string {
	if info, ok := kindTable[k]; ok {
		return info.display
	}
	return "Unknown"
}

func (k Kind) Placement() Placement {
	return kindTable[k].placement
}

// HostKind returns the kind that must host instances of k, and whether one
// is required at all.
func (k Kind) HostKind() (Kind, bool) {
	host := kindTable[k].hostKind
	return host, host != KindUnknown
}
