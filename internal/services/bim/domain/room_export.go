package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// ExportRoomsParams optionally restricts the export to one level.
type ExportRoomsParams struct {
	Level           string `json:"level"`
	IncludeBoundary bool   `json:"includeBoundary"`
}

func (ExportRoomsParams) Validate() error { return nil }

// RoomData is one exported room. Area is in square metres, lengths in
// millimetres.
type RoomData struct {
	ElementID int64   `json:"elementId"`
	Name      string  `json:"name"`
	Number    string  `json:"number"`
	Level     string  `json:"level"`
	Area      float64 `json:"area"`
	Perimeter float64 `json:"perimeter"`
	Height    float64 `json:"height"`
	Volume    float64 `json:"volume"`
	Centroid  Point   `json:"centroid"`
	Boundary  []Point `json:"boundary,omitempty"`
}

// RoomExport lists rooms with totals.
type RoomExport struct {
	Rooms     []RoomData `json:"rooms"`
	RoomCount int        `json:"roomCount"`
	TotalArea float64    `json:"totalArea"`
}

func (r RoomExport) Summary() string {
	return fmt.Sprintf("exported %d rooms totalling %.2f m²", r.RoomCount, r.TotalArea)
}

func exportRoomsDefinition() bridge.Definition[ExportRoomsParams, RoomExport] {
	return bridge.Definition[ExportRoomsParams, RoomExport]{
		Name:        CommandExportRoomData,
		Description: "Export every room (optionally one level's) with area in m², perimeter and height in millimetres.",
		Timeout:     timeouts.Analysis,
		Mode:        bridge.ModeRead,
		Run:         exportRooms,
	}
}

func exportRooms(inv *bridge.Invocation, params ExportRoomsParams) (RoomExport, error) {
	doc := inv.Document
	var only *host.Element
	if strings.TrimSpace(params.Level) != "" {
		level, err := resolveLevel(doc, params.Level, 0)
		if err != nil {
			return RoomExport{}, err
		}
		only = level
	}

	levels := make(map[host.ElementID]*host.Element)
	for _, level := range doc.Levels() {
		levels[level.ID] = level
	}

	type row struct {
		data      RoomData
		elevation float64
	}
	var rows []row
	var totalArea float64
	for _, room := range doc.Elements(host.KindRoom) {
		if only != nil && room.LevelID != only.ID {
			continue
		}
		areaSqFt := host.PolygonArea(room.Boundary)
		area := units.SquareFeetToSquareMeters(areaSqFt)
		data := RoomData{
			ElementID: int64(room.ID),
			Name:      room.Name,
			Number:    room.Number,
			Area:      units.Round(area, 3),
			Perimeter: mm(host.PolygonPerimeter(room.Boundary)),
			Height:    mm(room.Height),
			Volume:    units.Round(area*units.FeetToMM(room.Height)/1000, 3),
			Centroid:  pointFromFeet(host.Centroid(room.Boundary)),
		}
		var elevation float64
		if level, ok := levels[room.LevelID]; ok {
			data.Level = level.Name
			elevation = level.Elevation
		}
		if params.IncludeBoundary {
			data.Boundary = pointsFromFeet(room.Boundary)
		}
		totalArea += area
		rows = append(rows, row{data: data, elevation: elevation})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].elevation != rows[j].elevation {
			return rows[i].elevation < rows[j].elevation
		}
		return rows[i].data.Number < rows[j].data.Number
	})

	out := RoomExport{Rooms: make([]RoomData, 0, len(rows))}
	for _, r := range rows {
		out.Rooms = append(out.Rooms, r.data)
	}
	out.RoomCount = len(out.Rooms)
	out.TotalArea = units.Round(totalArea, 3)
	return out, nil
}
