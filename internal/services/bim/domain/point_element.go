package domain

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// maxHostDistanceMM is how far from a wall a door or window may be placed
// when its host is looked up automatically.
const maxHostDistanceMM = 1000

var defaultPointHeightMM = map[host.Kind]float64{
	host.KindDoor:             2100,
	host.KindWindow:           1200,
	host.KindStructuralColumn: 3000,
	host.KindFurniture:        750,
}

// PointElementSpec is one family instance placed at a point.
type PointElementSpec struct {
	Category      string  `json:"category"`
	TypeName      string  `json:"typeName"`
	LocationPoint Point   `json:"locationPoint"`
	Rotation      float64 `json:"rotation"`
	Height        float64 `json:"height"`
	BaseLevel     string  `json:"baseLevel"`
	BaseOffset    float64 `json:"baseOffset"`
	HostID        int64   `json:"hostId"`
}

// CreatePointElementParams is a batch of point-based elements.
type CreatePointElementParams struct {
	Elements []PointElementSpec
}

func (p *CreatePointElementParams) UnmarshalJSON(data []byte) error {
	return unmarshalItems(data, "elements", &p.Elements)
}

func (p CreatePointElementParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]PointElementSpec{"elements": p.Elements})
}

func (p CreatePointElementParams) Validate() error {
	if err := validateCount("elements", len(p.Elements)); err != nil {
		return err
	}
	for i, item := range p.Elements {
		if _, err := parsePlacedKind(item.Category, host.PlacementPoint); err != nil {
			return fmt.Errorf("elements[%d]: %w", i, err)
		}
		if item.Height < 0 {
			return fmt.Errorf("elements[%d]: height must not be negative", i)
		}
		if item.HostID < 0 {
			return fmt.Errorf("elements[%d]: hostId must be positive", i)
		}
	}
	return nil
}

func createPointElementDefinition() bridge.Definition[CreatePointElementParams, BatchOutcome] {
	return bridge.Definition[CreatePointElementParams, BatchOutcome]{
		Name: CommandCreatePointBasedElement,
		Description: "Place doors, windows, columns or furniture at points given in millimetres. " +
			"Doors and windows are hosted by the given wall or the nearest wall on their level.",
		Timeout: timeouts.Mutation,
		Mode:    bridge.ModeWrite,
		Run:     createPointElements,
	}
}

func createPointElements(inv *bridge.Invocation, params CreatePointElementParams) (BatchOutcome, error) {
	doc := inv.Document
	out := newBatch(CommandCreatePointBasedElement, len(params.Elements))
	for i, item := range params.Elements {
		kind, err := parsePlacedKind(item.Category, host.PlacementPoint)
		if err != nil {
			out.failIndex(i, err.Error())
			continue
		}
		point := item.LocationPoint.feet()
		level, err := resolveLevel(doc, item.BaseLevel, point.Z)
		if err != nil {
			out.failIndex(i, err.Error())
			continue
		}

		hostID := host.InvalidElementID
		if hostKind, needsHost := kind.HostKind(); needsHost {
			hostID, err = findHost(doc, kind, hostKind, host.ElementID(item.HostID), level.ID, point)
			if err != nil {
				out.failIndex(i, err.Error())
				continue
			}
		}

		typeID, typeName, err := doc.EnsureType(kind, item.TypeName)
		if err != nil {
			return BatchOutcome{}, err
		}
		height := item.Height
		if height == 0 {
			height = defaultPointHeightMM[kind]
		}
		offset := units.MMToFeet(item.BaseOffset)
		point.Z = level.Elevation + offset
		id, err := doc.Add(&host.Element{
			Kind:       kind,
			Name:       typeName,
			TypeID:     typeID,
			TypeName:   typeName,
			LevelID:    level.ID,
			HostID:     hostID,
			Point:      &point,
			Height:     units.MMToFeet(height),
			BaseOffset: offset,
			Rotation:   units.DegreesToRadians(item.Rotation),
		})
		if err != nil {
			return BatchOutcome{}, err
		}
		info, err := describeID(doc, id)
		if err != nil {
			return BatchOutcome{}, err
		}
		out.succeed(id)
		out.Elements = append(out.Elements, info)
	}
	return *out, nil
}

// findHost returns the explicit host when given, otherwise the nearest
// element of hostKind on the same level within maxHostDistanceMM.
func findHost(doc *host.Document, kind, hostKind host.Kind, explicit, levelID host.ElementID, point host.XYZ) (host.ElementID, error) {
	if explicit != host.InvalidElementID {
		e, ok := doc.Get(explicit)
		if !ok {
			return host.InvalidElementID, fmt.Errorf("host element %s not found", explicit)
		}
		if e.Kind != hostKind || e.IsType {
			return host.InvalidElementID, fmt.Errorf("element %s is a %s and cannot host a %s", explicit, e.Kind, kind)
		}
		return e.ID, nil
	}

	best, bestDistance := host.InvalidElementID, units.MMToFeet(maxHostDistanceMM)
	for _, candidate := range doc.Elements(hostKind) {
		if candidate.IsType || candidate.Curve == nil || candidate.LevelID != levelID {
			continue
		}
		if d := candidate.Curve.PlanDistance(point); d <= bestDistance {
			best, bestDistance = candidate.ID, d
		}
	}
	if best == host.InvalidElementID {
		return host.InvalidElementID, fmt.Errorf("no %s within %gmm of the insertion point to host the %s", hostKind, float64(maxHostDistanceMM), kind)
	}
	return best, nil
}
