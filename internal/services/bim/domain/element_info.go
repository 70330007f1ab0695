package domain

import (
	"fmt"

	"github.com/louisbranch/bimbridge/internal/bridge"
	apperrors "github.com/louisbranch/bimbridge/internal/platform/errors"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
)

const maxInfoElements = 1000

// ElementInfoParams selects the elements to describe.
type ElementInfoParams struct {
	ElementIDs []int64 `json:"elementIds"`
}

func (p ElementInfoParams) Validate() error {
	if len(p.ElementIDs) > maxInfoElements {
		return fmt.Errorf("elementIds may contain at most %d ids, got %d", maxInfoElements, len(p.ElementIDs))
	}
	return validateElementIDs(p.ElementIDs)
}

// ElementInfoReport lists the found elements and the ids that do not exist.
type ElementInfoReport struct {
	Elements          []ElementInfo `json:"elements"`
	MissingElementIDs []int64       `json:"missingElementIds"`
}

func (r ElementInfoReport) Summary() string {
	if len(r.MissingElementIDs) == 0 {
		return fmt.Sprintf("found %d elements", len(r.Elements))
	}
	return fmt.Sprintf("found %d elements, %d ids not found", len(r.Elements), len(r.MissingElementIDs))
}

func elementInfoDefinition() bridge.Definition[ElementInfoParams, ElementInfoReport] {
	return bridge.Definition[ElementInfoParams, ElementInfoReport]{
		Name:        CommandGetElementInfo,
		Description: "Describe elements by id: category, type, level, location and bounding box in millimetres.",
		Timeout:     timeouts.Query,
		Mode:        bridge.ModeRead,
		Run:         getElementInfo,
	}
}

func getElementInfo(inv *bridge.Invocation, params ElementInfoParams) (ElementInfoReport, error) {
	doc := inv.Document
	report := ElementInfoReport{Elements: []ElementInfo{}, MissingElementIDs: []int64{}}
	for _, id := range toElementIDs(params.ElementIDs) {
		e, ok := doc.Get(id)
		if !ok {
			inv.NoteMissing(id)
			continue
		}
		report.Elements = append(report.Elements, describe(doc, e))
	}
	for _, id := range inv.Missing() {
		report.MissingElementIDs = append(report.MissingElementIDs, int64(id))
	}
	if len(report.Elements) == 0 {
		return ElementInfoReport{}, apperrors.New(apperrors.CodeElementNotFound,
			fmt.Sprintf("none of the %d requested elements exist", len(params.ElementIDs)))
	}
	return report, nil
}
