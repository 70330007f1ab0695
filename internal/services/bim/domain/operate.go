package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/host"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/louisbranch/bimbridge/internal/platform/units"
)

// Action is an operation applied to existing elements.
type Action string

const (
	ActionSelect Action = "select"
	ActionDelete Action = "delete"
	ActionHide   Action = "hide"
	ActionUnhide Action = "unhide"
	ActionMove   Action = "move"
	ActionRotate Action = "rotate"
)

func parseAction(value string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(value)))
	switch action {
	case ActionSelect, ActionDelete, ActionHide, ActionUnhide, ActionMove, ActionRotate:
		return action, nil
	default:
		return "", fmt.Errorf("unknown action %q: want select, delete, hide, unhide, move or rotate", value)
	}
}

// OperateParams applies one action to a set of elements. Offset is a
// translation in millimetres; Angle is in degrees, counter-clockwise about
// Center or about each element's own location.
type OperateParams struct {
	ElementIDs []int64 `json:"elementIds"`
	Action     string  `json:"action"`
	Offset     Point   `json:"offset"`
	Angle      float64 `json:"angle"`
	Center     *Point  `json:"center"`
}

// UnmarshalJSON accepts the parameters flat or nested under "operation".
func (p *OperateParams) UnmarshalJSON(data []byte) error {
	type plain OperateParams
	var wrapper struct {
		Operation json.RawMessage `json:"operation"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && len(wrapper.Operation) > 0 && string(wrapper.Operation) != "null" {
		data = wrapper.Operation
	}
	v := plain(*p)
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = OperateParams(v)
	return nil
}

func (p OperateParams) Validate() error {
	if err := validateElementIDs(p.ElementIDs); err != nil {
		return err
	}
	action, err := parseAction(p.Action)
	if err != nil {
		return err
	}
	switch action {
	case ActionMove:
		if p.Offset.isZero() {
			return fmt.Errorf("move needs a non-zero offset")
		}
	case ActionRotate:
		if p.Angle == 0 {
			return fmt.Errorf("rotate needs a non-zero angle")
		}
	}
	return nil
}

// OperateOutcome is the per-element result of an operation.
type OperateOutcome struct {
	BatchOutcome
	// DeletedElements includes dependents removed together with the
	// requested elements.
	DeletedElements []int64 `json:"deletedElements,omitempty"`
}

func operateDefinition() bridge.Definition[OperateParams, OperateOutcome] {
	return bridge.Definition[OperateParams, OperateOutcome]{
		Name: CommandOperateElement,
		Description: "Select, delete, hide, unhide, move (offset in millimetres) or rotate (degrees) elements. " +
			"Elements are processed independently and failures are listed per element.",
		Timeout: timeouts.Mutation,
		Mode:    bridge.ModeWrite,
		Run:     operateElements,
	}
}

var errTypeElement = errors.New("element types cannot be changed this way")

func operateElements(inv *bridge.Invocation, params OperateParams) (OperateOutcome, error) {
	doc := inv.Document
	action, err := parseAction(params.Action)
	if err != nil {
		return OperateOutcome{}, err
	}
	out := OperateOutcome{BatchOutcome: *newBatch(string(action), len(params.ElementIDs))}

	if action == ActionSelect {
		var selected []host.ElementID
		for _, id := range toElementIDs(params.ElementIDs) {
			if _, ok := doc.Get(id); !ok {
				out.failElement(id, host.ErrElementNotFound.Error())
				continue
			}
			selected = append(selected, id)
			out.succeed(id)
		}
		if err := doc.Select(selected); err != nil {
			return OperateOutcome{}, err
		}
		return out, nil
	}

	deleted := make(map[host.ElementID]bool)
	for _, id := range toElementIDs(params.ElementIDs) {
		if deleted[id] {
			// Already removed as a dependent of an earlier element.
			out.succeed(id)
			continue
		}
		if _, ok := doc.Get(id); !ok {
			out.failElement(id, host.ErrElementNotFound.Error())
			continue
		}
		if err := applyAction(doc, action, id, params, deleted); err != nil {
			out.failElement(id, err.Error())
			continue
		}
		out.succeed(id)
	}
	for _, id := range sortedIDs(deleted) {
		out.DeletedElements = append(out.DeletedElements, int64(id))
	}
	return out, nil
}

func applyAction(doc *host.Document, action Action, id host.ElementID, params OperateParams, deleted map[host.ElementID]bool) error {
	switch action {
	case ActionDelete:
		removed, err := doc.Delete(id)
		if err != nil {
			return err
		}
		for _, r := range removed {
			deleted[r] = true
		}
		return nil
	case ActionHide, ActionUnhide:
		return doc.Update(id, func(e *host.Element) error {
			if e.IsType {
				return errTypeElement
			}
			e.Hidden = action == ActionHide
			return nil
		})
	case ActionMove:
		offset := params.Offset.feet()
		return doc.Update(id, func(e *host.Element) error {
			if e.IsType {
				return errTypeElement
			}
			e.Translate(offset)
			return nil
		})
	case ActionRotate:
		angle := units.DegreesToRadians(params.Angle)
		return doc.Update(id, func(e *host.Element) error {
			if e.IsType || e.Kind == host.KindLevel {
				return fmt.Errorf("%s elements cannot be rotated", e.Kind)
			}
			center, ok := e.Location()
			if params.Center != nil {
				center, ok = params.Center.feet(), true
			}
			if !ok {
				return fmt.Errorf("element has no location to rotate about")
			}
			e.RotateAbout(center, angle)
			return nil
		})
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func sortedIDs(set map[host.ElementID]bool) []host.ElementID {
	ids := make([]host.ElementID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
