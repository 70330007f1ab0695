package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
)

const maxFilterElements = 10000

// FilterParams selects elements by category, type name and region.
type FilterParams struct {
	FilterCategory    string `json:"filterCategory"`
	FilterElementType string `json:"filterElementType"`
	IncludeTypes      bool   `json:"includeTypes"`
	IncludeInstances  bool   `json:"includeInstances"`
	BoundingBoxMin    *Point `json:"boundingBoxMin"`
	BoundingBoxMax    *Point `json:"boundingBoxMax"`
	MaxElements       int    `json:"maxElements"`
}

func defaultFilterParams() FilterParams {
	return FilterParams{IncludeInstances: true, MaxElements: 50}
}

// UnmarshalJSON accepts the parameters flat or nested under "filterSettings".
func (p *FilterParams) UnmarshalJSON(data []byte) error {
	type plain FilterParams
	var wrapper struct {
		Settings json.RawMessage `json:"filterSettings"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && len(wrapper.Settings) > 0 && string(wrapper.Settings) != "null" {
		data = wrapper.Settings
	}
	v := plain(*p)
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = FilterParams(v)
	return nil
}

func (p FilterParams) Validate() error {
	hasBox := p.BoundingBoxMin != nil || p.BoundingBoxMax != nil
	if strings.TrimSpace(p.FilterCategory) == "" && strings.TrimSpace(p.FilterElementType) == "" && !hasBox {
		return fmt.Errorf("at least one of filterCategory, filterElementType or a bounding box is required")
	}
	if p.FilterCategory != "" {
		if _, err := host.ParseKind(p.FilterCategory); err != nil {
			return err
		}
	}
	if hasBox {
		if p.BoundingBoxMin == nil || p.BoundingBoxMax == nil {
			return fmt.Errorf("boundingBoxMin and boundingBoxMax must be given together")
		}
		lo, hi := *p.BoundingBoxMin, *p.BoundingBoxMax
		if lo.X > hi.X || lo.Y > hi.Y || lo.Z > hi.Z {
			return fmt.Errorf("boundingBoxMin must not exceed boundingBoxMax on any axis")
		}
	}
	if !p.IncludeTypes && !p.IncludeInstances {
		return fmt.Errorf("includeTypes and includeInstances cannot both be false")
	}
	if p.MaxElements < 1 || p.MaxElements > maxFilterElements {
		return fmt.Errorf("maxElements must be between 1 and %d, got %d", maxFilterElements, p.MaxElements)
	}
	return nil
}

// FilterResult lists matching elements, capped at maxElements.
type FilterResult struct {
	Elements     []ElementInfo `json:"elements"`
	MatchedCount int           `json:"matchedCount"`
	Truncated    bool          `json:"truncated"`
}

func (r FilterResult) Summary() string {
	if r.Truncated {
		return fmt.Sprintf("found %d matching elements, returning the first %d", r.MatchedCount, len(r.Elements))
	}
	return fmt.Sprintf("found %d matching elements", r.MatchedCount)
}

func filterDefinition() bridge.Definition[FilterParams, FilterResult] {
	return bridge.Definition[FilterParams, FilterResult]{
		Name: CommandAIElementFilter,
		Description: "Find elements by category, type name (substring) and a bounding box in millimetres. " +
			"Types and instances can be included separately.",
		Timeout:  timeouts.Query,
		Mode:     bridge.ModeRead,
		Defaults: defaultFilterParams,
		Run:      filterElements,
	}
}

func filterElements(inv *bridge.Invocation, params FilterParams) (FilterResult, error) {
	doc := inv.Document

	var kinds []host.Kind
	if params.FilterCategory != "" {
		kind, err := host.ParseKind(params.FilterCategory)
		if err != nil {
			return FilterResult{}, err
		}
		kinds = append(kinds, kind)
	}
	var region *host.BoundingBox
	if params.BoundingBoxMin != nil {
		region = &host.BoundingBox{Min: params.BoundingBoxMin.feet(), Max: params.BoundingBoxMax.feet()}
	}
	typeName := strings.ToLower(strings.TrimSpace(params.FilterElementType))

	out := FilterResult{Elements: []ElementInfo{}}
	for _, e := range doc.Elements(kinds...) {
		if !matchesFilter(e, params, typeName, region) {
			continue
		}
		out.MatchedCount++
		if len(out.Elements) < params.MaxElements {
			out.Elements = append(out.Elements, describe(doc, e))
		}
	}
	out.Truncated = out.MatchedCount > len(out.Elements)
	return out, nil
}

func matchesFilter(e *host.Element, params FilterParams, typeName string, region *host.BoundingBox) bool {
	if e.IsType && !params.IncludeTypes {
		return false
	}
	if !e.IsType && !params.IncludeInstances {
		return false
	}
	if typeName != "" {
		candidate := e.TypeName
		if e.IsType {
			candidate = e.Name
		}
		if !strings.Contains(strings.ToLower(candidate), typeName) {
			return false
		}
	}
	if region != nil {
		box, ok := e.BoundingBox()
		if !ok || !box.Intersects(*region) {
			return false
		}
	}
	return true
}
