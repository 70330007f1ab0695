package domain

import (
	"fmt"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
)

// LevelSummary is a level listed in the status report.
type LevelSummary struct {
	ElementID int64   `json:"elementId"`
	Name      string  `json:"name"`
	Elevation float64 `json:"elevation"`
}

// StatusReport describes the host and its active document.
type StatusReport struct {
	HostVersion   string         `json:"hostVersion"`
	DocumentTitle string         `json:"documentTitle"`
	DocumentPath  string         `json:"documentPath"`
	Revision      int64          `json:"revision"`
	ElementCount  int            `json:"elementCount"`
	Categories    map[string]int `json:"categories"`
	Levels        []LevelSummary `json:"levels"`
	Selection     []int64        `json:"selection"`
}

func (r StatusReport) Summary() string {
	return fmt.Sprintf("host %s has %q open with %d elements", r.HostVersion, r.DocumentTitle, r.ElementCount)
}

func statusDefinition() bridge.Definition[bridge.NoParams, StatusReport] {
	return bridge.Definition[bridge.NoParams, StatusReport]{
		Name:        CommandGetRevitStatus,
		Description: "Report the host version, the active document and element counts by category.",
		Timeout:     timeouts.Query,
		Mode:        bridge.ModeRead,
		Run:         getStatus,
	}
}

func getStatus(inv *bridge.Invocation, _ bridge.NoParams) (StatusReport, error) {
	doc := inv.Document
	report := StatusReport{
		HostVersion:   inv.App.Version(),
		DocumentTitle: doc.Title(),
		DocumentPath:  doc.Path(),
		Revision:      doc.Revision(),
		Categories:    map[string]int{},
		Levels:        []LevelSummary{},
		Selection:     []int64{},
	}
	for _, e := range doc.Elements() {
		if e.IsType {
			continue
		}
		report.ElementCount++
		report.Categories[e.Kind.DisplayName()]++
	}
	for _, level := range doc.Levels() {
		report.Levels = append(report.Levels, LevelSummary{
			ElementID: int64(level.ID),
			Name:      level.Name,
			Elevation: mm(level.Elevation),
		})
	}
	for _, id := range doc.Selection() {
		report.Selection = append(report.Selection, int64(id))
	}
	return report, nil
}
