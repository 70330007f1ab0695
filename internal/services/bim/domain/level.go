package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// LevelSpec is one level to create. Elevation is in millimetres.
type LevelSpec struct {
	Name      string  `json:"name"`
	Elevation float64 `json:"elevation"`
}

// CreateLevelParams accepts a bare array of levels, {"levels": [...]} or a
// single level object.
type CreateLevelParams struct {
	Levels []LevelSpec
}

func (p *CreateLevelParams) UnmarshalJSON(data []byte) error {
	return unmarshalItems(data, "levels", &p.Levels)
}

func (p CreateLevelParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]LevelSpec{"levels": p.Levels})
}

func (p CreateLevelParams) Validate() error {
	if err := validateCount("levels", len(p.Levels)); err != nil {
		return err
	}
	names := make(map[string]bool, len(p.Levels))
	for i, level := range p.Levels {
		name := strings.ToLower(strings.TrimSpace(level.Name))
		if name == "" {
			continue
		}
		if names[name] {
			return fmt.Errorf("levels[%d]: duplicate name %q", i, level.Name)
		}
		names[name] = true
	}
	return nil
}

func createLevelDefinition() bridge.Definition[CreateLevelParams, BatchOutcome] {
	return bridge.Definition[CreateLevelParams, BatchOutcome]{
		Name:        CommandCreateLevel,
		Description: "Create levels at elevations given in millimetres. Unnamed levels are numbered after the existing ones.",
		Timeout:     timeouts.Mutation,
		Mode:        bridge.ModeWrite,
		Run:         createLevels,
	}
}

func createLevels(inv *bridge.Invocation, params CreateLevelParams) (BatchOutcome, error) {
	doc := inv.Document
	out := newBatch(CommandCreateLevel, len(params.Levels))
	for i, item := range params.Levels {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = nextLevelName(doc)
		}
		if _, exists := doc.LevelByName(name); exists {
			out.failIndex(i, fmt.Sprintf("level %q already exists", name))
			continue
		}
		id, err := doc.Add(&host.Element{
			Kind:      host.KindLevel,
			Name:      name,
			Elevation: units.MMToFeet(item.Elevation),
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

func nextLevelName(doc *host.Document) string {
	for n := len(doc.Levels()) + 1; ; n++ {
		name := fmt.Sprintf("Level %d", n)
		if _, exists := doc.LevelByName(name); !exists {
			return name
		}
	}
}
