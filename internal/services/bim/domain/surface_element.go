package domain

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// SurfaceElementSpec is one floor, ceiling or roof bounded by a polygon.
type SurfaceElementSpec struct {
	Category   string  `json:"category"`
	TypeName   string  `json:"typeName"`
	Boundary   []Point `json:"boundary"`
	Thickness  float64 `json:"thickness"`
	BaseLevel  string  `json:"baseLevel"`
	BaseOffset float64 `json:"baseOffset"`
}

func (s *SurfaceElementSpec) UnmarshalJSON(data []byte) error {
	type plain SurfaceElementSpec
	v := plain{Category: "floor", Thickness: 200}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SurfaceElementSpec(v)
	return nil
}

// CreateSurfaceElementParams is a batch of surface-based elements.
type CreateSurfaceElementParams struct {
	Elements []SurfaceElementSpec
}

func (p *CreateSurfaceElementParams) UnmarshalJSON(data []byte) error {
	return unmarshalItems(data, "elements", &p.Elements)
}

func (p CreateSurfaceElementParams) Validate() error {
	if err := validateCount("elements", len(p.Elements)); err != nil {
		return err
	}
	for i, item := range p.Elements {
		if _, err := parsePlacedKind(item.Category, host.PlacementSurface); err != nil {
			return fmt.Errorf("elements[%d]: %w", i, err)
		}
		if err := validateBoundary(fmt.Sprintf("elements[%d].boundary", i), item.Boundary); err != nil {
			return err
		}
		if item.Thickness < 0 {
			return fmt.Errorf("elements[%d]: thickness must not be negative", i)
		}
	}
	return nil
}

func createSurfaceElementDefinition() bridge.Definition[CreateSurfaceElementParams, BatchOutcome] {
	return bridge.Definition[CreateSurfaceElementParams, BatchOutcome]{
		Name:        CommandCreateSurfaceBasedElement,
		Description: "Create floors, ceilings or roofs from closed boundaries given in millimetres.",
		Timeout:     timeouts.Mutation,
		Mode:        bridge.ModeWrite,
		Run:         createSurfaceElements,
	}
}

func createSurfaceElements(inv *bridge.Invocation, params CreateSurfaceElementParams) (BatchOutcome, error) {
	doc := inv.Document
	out := newBatch(CommandCreateSurfaceBasedElement, len(params.Elements))
	for i, item := range params.Elements {
		kind, err := parsePlacedKind(item.Category, host.PlacementSurface)
		if err != nil {
			out.failIndex(i, err.Error())
			continue
		}
		boundary := pointsToFeet(item.Boundary)
		level, err := resolveLevel(doc, item.BaseLevel, boundary[0].Z)
		if err != nil {
			out.failIndex(i, err.Error())
			continue
		}
		typeID, typeName, err := doc.EnsureType(kind, item.TypeName)
		if err != nil {
			return BatchOutcome{}, err
		}

		offset := units.MMToFeet(item.BaseOffset)
		for j := range boundary {
			boundary[j].Z = level.Elevation + offset
		}
		id, err := doc.Add(&host.Element{
			Kind:       kind,
			Name:       typeName,
			TypeID:     typeID,
			TypeName:   typeName,
			LevelID:    level.ID,
			Boundary:   boundary,
			Thickness:  units.MMToFeet(item.Thickness),
			BaseOffset: offset,
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
