package domain

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// LineElementSpec is one wall or beam placed along a line.
type LineElementSpec struct {
	Category     string  `json:"category"`
	TypeName     string  `json:"typeName"`
	LocationLine Segment `json:"locationLine"`
	Thickness    float64 `json:"thickness"`
	Height       float64 `json:"height"`
	BaseLevel    string  `json:"baseLevel"`
	BaseOffset   float64 `json:"baseOffset"`
}

func (s *LineElementSpec) UnmarshalJSON(data []byte) error {
	type plain LineElementSpec
	v := plain{Category: "wall", Thickness: 200, Height: 3000}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = LineElementSpec(v)
	return nil
}

// CreateLineElementParams is a batch of line-based elements.
type CreateLineElementParams struct {
	Elements []LineElementSpec
}

func (p *CreateLineElementParams) UnmarshalJSON(data []byte) error {
	return unmarshalItems(data, "elements", &p.Elements)
}

func (p CreateLineElementParams) Validate() error {
	if err := validateCount("elements", len(p.Elements)); err != nil {
		return err
	}
	for i, item := range p.Elements {
		if _, err := parsePlacedKind(item.Category, host.PlacementLine); err != nil {
			return fmt.Errorf("elements[%d]: %w", i, err)
		}
		if item.LocationLine.P0 == item.LocationLine.P1 {
			return fmt.Errorf("elements[%d]: locationLine endpoints must be distinct", i)
		}
		if item.Thickness < 0 || item.Height < 0 {
			return fmt.Errorf("elements[%d]: thickness and height must not be negative", i)
		}
	}
	return nil
}

func createLineElementDefinition() bridge.Definition[CreateLineElementParams, BatchOutcome] {
	return bridge.Definition[CreateLineElementParams, BatchOutcome]{
		Name:        CommandCreateLineBasedElement,
		Description: "Create walls or structural framing along location lines given in millimetres.",
		Timeout:     timeouts.Mutation,
		Mode:        bridge.ModeWrite,
		Run:         createLineElements,
	}
}

func createLineElements(inv *bridge.Invocation, params CreateLineElementParams) (BatchOutcome, error) {
	doc := inv.Document
	out := newBatch(CommandCreateLineBasedElement, len(params.Elements))
	for i, item := range params.Elements {
		kind, err := parsePlacedKind(item.Category, host.PlacementLine)
		if err != nil {
			out.failIndex(i, err.Error())
			continue
		}
		p0, p1 := item.LocationLine.P0.feet(), item.LocationLine.P1.feet()
		level, err := resolveLevel(doc, item.BaseLevel, p0.Z)
		if err != nil {
			out.failIndex(i, err.Error())
			continue
		}
		typeID, typeName, err := doc.EnsureType(kind, item.TypeName)
		if err != nil {
			return BatchOutcome{}, err
		}

		offset := units.MMToFeet(item.BaseOffset)
		base := level.Elevation + offset
		p0.Z, p1.Z = base, base
		id, err := doc.Add(&host.Element{
			Kind:       kind,
			Name:       typeName,
			TypeID:     typeID,
			TypeName:   typeName,
			LevelID:    level.ID,
			Curve:      &host.Line{P0: p0, P1: p1},
			Thickness:  units.MMToFeet(item.Thickness),
			Height:     units.MMToFeet(item.Height),
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
