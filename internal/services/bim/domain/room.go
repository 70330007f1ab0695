package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// RoomSpec is one room bounded by a polygon on a level.
type RoomSpec struct {
	Name     string  `json:"name"`
	Number   string  `json:"number"`
	Level    string  `json:"level"`
	Boundary []Point `json:"boundary"`
	Height   float64 `json:"height"`
}

func (s *RoomSpec) UnmarshalJSON(data []byte) error {
	type plain RoomSpec
	v := plain{Height: 3000}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = RoomSpec(v)
	return nil
}

// CreateRoomParams is a batch of rooms.
type CreateRoomParams struct {
	Rooms []RoomSpec
}

func (p *CreateRoomParams) UnmarshalJSON(data []byte) error {
	return unmarshalItems(data, "rooms", &p.Rooms)
}

func (p CreateRoomParams) Validate() error {
	if err := validateCount("rooms", len(p.Rooms)); err != nil {
		return err
	}
	for i, room := range p.Rooms {
		if err := validateBoundary(fmt.Sprintf("rooms[%d].boundary", i), room.Boundary); err != nil {
			return err
		}
		if room.Height < 0 {
			return fmt.Errorf("rooms[%d]: height must not be negative", i)
		}
	}
	return nil
}

func createRoomDefinition() bridge.Definition[CreateRoomParams, BatchOutcome] {
	return bridge.Definition[CreateRoomParams, BatchOutcome]{
		Name:        CommandCreateRoom,
		Description: "Create rooms from closed boundaries in millimetres. Rooms without a number get the next free one.",
		Timeout:     timeouts.Mutation,
		Mode:        bridge.ModeWrite,
		Run:         createRooms,
	}
}

func createRooms(inv *bridge.Invocation, params CreateRoomParams) (BatchOutcome, error) {
	doc := inv.Document
	out := newBatch(CommandCreateRoom, len(params.Rooms))
	for i, item := range params.Rooms {
		boundary := pointsToFeet(item.Boundary)
		level, err := resolveLevel(doc, item.Level, boundary[0].Z)
		if err != nil {
			out.failIndex(i, err.Error())
			continue
		}

		number := strings.TrimSpace(item.Number)
		if number == "" {
			number = nextRoomNumber(doc)
		} else if roomNumberTaken(doc, number) {
			out.failIndex(i, fmt.Sprintf("room number %q already exists", number))
			continue
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = "Room"
		}

		for j := range boundary {
			boundary[j].Z = level.Elevation
		}
		id, err := doc.Add(&host.Element{
			Kind:     host.KindRoom,
			Name:     name,
			Number:   number,
			LevelID:  level.ID,
			Boundary: boundary,
			Height:   units.MMToFeet(item.Height),
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

func roomNumberTaken(doc *host.Document, number string) bool {
	for _, room := range doc.Elements(host.KindRoom) {
		if strings.EqualFold(room.Number, number) {
			return true
		}
	}
	return false
}

func nextRoomNumber(doc *host.Document) string {
	for n := len(doc.Elements(host.KindRoom)) + 1; ; n++ {
		candidate := strconv.Itoa(n)
		if !roomNumberTaken(doc, candidate) {
			return candidate
		}
	}
}
