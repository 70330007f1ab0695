package domain

import (
	"fmt"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

const maxGridsPerAxis = 200

// CreateGridParams lays out a rectangular grid system. X grids are lines
// parallel to the Y axis, spaced along X; Y grids the other way round.
type CreateGridParams struct {
	XCount      int     `json:"xCount"`
	XSpacing    float64 `json:"xSpacing"`
	XStartLabel string  `json:"xStartLabel"`
	YCount      int     `json:"yCount"`
	YSpacing    float64 `json:"ySpacing"`
	YStartLabel string  `json:"yStartLabel"`
	OriginX     float64 `json:"originX"`
	OriginY     float64 `json:"originY"`
	// Extension is how far grid lines run past the outermost crossing grid.
	Extension float64 `json:"extension"`
	Elevation float64 `json:"elevation"`
}

func defaultGridParams() CreateGridParams {
	return CreateGridParams{
		XSpacing:    6000,
		XStartLabel: "1",
		YSpacing:    6000,
		YStartLabel: "A",
		Extension:   2000,
	}
}

func (p CreateGridParams) Validate() error {
	if p.XCount == 0 && p.YCount == 0 {
		return fmt.Errorf("at least one of xCount or yCount must be greater than 0")
	}
	axes := []struct {
		name    string
		count   int
		spacing float64
		label   string
	}{
		{"x", p.XCount, p.XSpacing, p.XStartLabel},
		{"y", p.YCount, p.YSpacing, p.YStartLabel},
	}
	for _, axis := range axes {
		if axis.count < 0 || axis.count > maxGridsPerAxis {
			return fmt.Errorf("%sCount must be between 0 and %d, got %d", axis.name, maxGridsPerAxis, axis.count)
		}
		if axis.count == 0 {
			continue
		}
		if axis.spacing <= 0 {
			return fmt.Errorf("%sSpacing must be greater than 0, got %g", axis.name, axis.spacing)
		}
		if err := validateStartLabel(axis.name+"StartLabel", axis.label); err != nil {
			return err
		}
	}
	if p.Extension < 0 {
		return fmt.Errorf("extension must not be negative, got %g", p.Extension)
	}
	// Without extension a family only has length when it crosses two or more
	// grids of the other family.
	if p.Extension == 0 {
		if p.XCount > 0 && p.YCount < 2 {
			return fmt.Errorf("extension must be greater than 0 when yCount is below 2")
		}
		if p.YCount > 0 && p.XCount < 2 {
			return fmt.Errorf("extension must be greater than 0 when xCount is below 2")
		}
	}
	return nil
}

// GridInfo describes one created grid line.
type GridInfo struct {
	ElementID      int64  `json:"elementId"`
	Name           string `json:"name"`
	Axis           string `json:"axis"`
	Start          Point  `json:"start"`
	End            Point  `json:"end"`
	WasRenamed     bool   `json:"wasRenamed"`
	RequestedLabel string `json:"requestedLabel,omitempty"`
}

// GridOutcome lists the created grids.
type GridOutcome struct {
	Grids   []GridInfo `json:"grids"`
	XGrids  int        `json:"xGrids"`
	YGrids  int        `json:"yGrids"`
	Renamed int        `json:"renamed"`
}

func (o GridOutcome) Summary() string {
	msg := fmt.Sprintf("created %d grids (%d x, %d y)", len(o.Grids), o.XGrids, o.YGrids)
	if o.Renamed > 0 {
		msg += fmt.Sprintf(", %d renamed to avoid existing labels", o.Renamed)
	}
	return msg
}

func createGridDefinition() bridge.Definition[CreateGridParams, GridOutcome] {
	return bridge.Definition[CreateGridParams, GridOutcome]{
		Name: CommandCreateGrid,
		Description: "Create a rectangular grid system. Spacing, origin, extension and elevation are in millimetres; " +
			"labels continue from the start labels and collide-free renames are reported.",
		Timeout:  timeouts.Mutation,
		Mode:     bridge.ModeWrite,
		Defaults: defaultGridParams,
		Run:      createGrids,
	}
}

type plannedGrid struct {
	axis      string
	requested string
	line      host.Line
}

func createGrids(inv *bridge.Invocation, params CreateGridParams) (GridOutcome, error) {
	doc := inv.Document
	planned := planGrids(params)

	taken := make(map[string]bool)
	for _, grid := range doc.Elements(host.KindGrid) {
		taken[strings.ToLower(grid.Name)] = true
	}
	// Requested labels that are free are reserved first so a renamed grid
	// never steals a label another grid in this request asked for.
	reserved := make(map[string]bool, len(planned))
	for _, p := range planned {
		key := strings.ToLower(p.requested)
		if !taken[key] {
			reserved[key] = true
		}
	}

	out := GridOutcome{Grids: make([]GridInfo, 0, len(planned))}
	assigned := make(map[string]bool, len(planned))
	for _, p := range planned {
		name := p.requested
		key := strings.ToLower(name)
		renamed := taken[key] || assigned[key]
		if renamed {
			for taken[key] || assigned[key] || reserved[key] {
				name = nextLabel(name)
				key = strings.ToLower(name)
			}
		}
		assigned[key] = true

		line := p.line
		id, err := doc.Add(&host.Element{Kind: host.KindGrid, Name: name, Curve: &line})
		if err != nil {
			return GridOutcome{}, err
		}
		info := GridInfo{
			ElementID:  int64(id),
			Name:       name,
			Axis:       p.axis,
			Start:      pointFromFeet(line.P0),
			End:        pointFromFeet(line.P1),
			WasRenamed: renamed,
		}
		if renamed {
			info.RequestedLabel = p.requested
			out.Renamed++
		}
		if p.axis == "x" {
			out.XGrids++
		} else {
			out.YGrids++
		}
		out.Grids = append(out.Grids, info)
	}
	return out, nil
}

func planGrids(p CreateGridParams) []plannedGrid {
	ext := p.Extension
	z := units.MMToFeet(p.Elevation)

	// Span of each family: across the other family's extent, or a single
	// extension on each side when the other family is absent.
	xSpan := [2]float64{p.OriginX - ext, p.OriginX + ext}
	if p.XCount > 0 {
		xSpan[1] = p.OriginX + float64(p.XCount-1)*p.XSpacing + ext
	}
	ySpan := [2]float64{p.OriginY - ext, p.OriginY + ext}
	if p.YCount > 0 {
		ySpan[1] = p.OriginY + float64(p.YCount-1)*p.YSpacing + ext
	}

	var planned []plannedGrid
	for i, label := range labelSequence(p.XStartLabel, p.XCount) {
		x := units.MMToFeet(p.OriginX + float64(i)*p.XSpacing)
		planned = append(planned, plannedGrid{
			axis:      "x",
			requested: label,
			line: host.Line{
				P0: host.XYZ{X: x, Y: units.MMToFeet(ySpan[0]), Z: z},
				P1: host.XYZ{X: x, Y: units.MMToFeet(ySpan[1]), Z: z},
			},
		})
	}
	for j, label := range labelSequence(p.YStartLabel, p.YCount) {
		y := units.MMToFeet(p.OriginY + float64(j)*p.YSpacing)
		planned = append(planned, plannedGrid{
			axis:      "y",
			requested: label,
			line: host.Line{
				P0: host.XYZ{X: units.MMToFeet(xSpan[0]), Y: y, Z: z},
				P1: host.XYZ{X: units.MMToFeet(xSpan[1]), Y: y, Z: z},
			},
		})
	}
	return planned
}
