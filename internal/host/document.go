package host

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoTransaction is returned when a document change is attempted
	// outside Transact.
	ErrNoTransaction = errors.New("document modification requires an open transaction")
	// ErrNestedTransaction is returned when Transact is called from inside
	// another transaction.
	ErrNestedTransaction = errors.New("a transaction is already open")
	// ErrElementNotFound is returned for ids that are not in the document.
	ErrElementNotFound = errors.New("element not found")
)

// Document is an open model. It is not safe for concurrent use: all access
// goes through the privileged Thread.
type Document struct {
	title    string
	path     string
	elements map[ElementID]*Element
	nextID   ElementID
	revision int64

	selection []ElementID

	txName string
	inTx   bool
}

// NewDocument returns an empty document.
func NewDocument(title, path string) *Document {
	return &Document{
		title:    title,
		path:     path,
		elements: make(map[ElementID]*Element),
		nextID:   1,
	}
}

func (d *Document) Title() string { return d.title }

func (d *Document) Path() string { return d.path }

// Revision counts committed transactions.
func (d *Document) Revision() int64 { return d.revision }

// Len returns the number of elements, types included.
func (d *Document) Len() int { return len(d.elements) }

// Transact runs fn as one all-or-nothing change. If fn returns an error or
// panics, every change it made is discarded; a panic is re-raised after the
// rollback.
func (d *Document) Transact(name string, fn func() error) (err error) {
	if d.inTx {
		return fmt.Errorf("start transaction %q: %w (%q)", name, ErrNestedTransaction, d.txName)
	}
	snap := d.snapshot()
	d.inTx, d.txName = true, name

	committed := false
	defer func() {
		d.inTx, d.txName = false, ""
		if !committed {
			d.restore(snap)
		}
	}()

	if err := fn(); err != nil {
		return err
	}
	committed = true
	d.revision++
	return nil
}

type documentSnapshot struct {
	elements  map[ElementID]*Element
	nextID    ElementID
	selection []ElementID
}

func (d *Document) snapshot() documentSnapshot {
	elements := make(map[ElementID]*Element, len(d.elements))
	for id, e := range d.elements {
		elements[id] = e.Clone()
	}
	return documentSnapshot{
		elements:  elements,
		nextID:    d.nextID,
		selection: append([]ElementID(nil), d.selection...),
	}
}

func (d *Document) restore(s documentSnapshot) {
	d.elements = s.elements
	d.nextID = s.nextID
	d.selection = s.selection
}

// Add inserts a copy of e and returns its new id.
func (d *Document) Add(e *Element) (ElementID, error) {
	if !d.inTx {
		return InvalidElementID, ErrNoTransaction
	}
	if e == nil || !e.Kind.Valid() {
		return InvalidElementID, fmt.Errorf("add element: invalid kind")
	}
	stored := e.Clone()
	stored.ID = d.nextID
	d.nextID++
	d.elements[stored.ID] = stored
	return stored.ID, nil
}

// Get returns a copy of the element with the given id.
func (d *Document) Get(id ElementID) (*Element, bool) {
	e, ok := d.elements[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Update applies fn to the stored element.
func (d *Document) Update(id ElementID, fn func(*Element) error) error {
	if !d.inTx {
		return ErrNoTransaction
	}
	e, ok := d.elements[id]
	if !ok {
		return fmt.Errorf("element %s: %w", id, ErrElementNotFound)
	}
	working := e.Clone()
	if err := fn(working); err != nil {
		return err
	}
	working.ID = id
	d.elements[id] = working
	return nil
}

// Delete removes an element together with everything that depends on it:
// hosted instances, elements on a deleted level and instances of a deleted
// type. It returns every removed id in ascending order.
func (d *Document) Delete(id ElementID) ([]ElementID, error) {
	if !d.inTx {
		return nil, ErrNoTransaction
	}
	if _, ok := d.elements[id]; !ok {
		return nil, fmt.Errorf("element %s: %w", id, ErrElementNotFound)
	}

	removed := map[ElementID]struct{}{id: {}}
	pending := []ElementID{id}
	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]
		for otherID, other := range d.elements {
			if _, done := removed[otherID]; done {
				continue
			}
			if other.HostID == current || other.LevelID == current || other.TypeID == current {
				removed[otherID] = struct{}{}
				pending = append(pending, otherID)
			}
		}
	}

	ids := make([]ElementID, 0, len(removed))
	for removedID := range removed {
		delete(d.elements, removedID)
		ids = append(ids, removedID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	kept := d.selection[:0]
	for _, selected := range d.selection {
		if _, gone := removed[selected]; !gone {
			kept = append(kept, selected)
		}
	}
	d.selection = kept
	return ids, nil
}

// Elements returns copies of the elements of the given kinds (all kinds when
// none are given), ordered by id.
func (d *Document) Elements(kinds ...Kind) []*Element {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	out := make([]*Element, 0, len(d.elements))
	for _, e := range d.elements {
		if len(want) == 0 || want[e.Kind] {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Levels returns the levels ordered by elevation.
func (d *Document) Levels() []*Element {
	levels := d.Elements(KindLevel)
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Elevation < levels[j].Elevation })
	return levels
}

// LevelByName finds a level by name, ignoring case.
func (d *Document) LevelByName(name string) (*Element, bool) {
	name = strings.TrimSpace(name)
	for _, level := range d.Levels() {
		if strings.EqualFold(level.Name, name) {
			return level, true
		}
	}
	return nil, false
}

// LevelAt returns the level whose elevation is closest to z.
func (d *Document) LevelAt(z float64) (*Element, bool) {
	var best *Element
	for _, level := range d.Levels() {
		if best == nil || abs(level.Elevation-z) < abs(best.Elevation-z) {
			best = level
		}
	}
	return best, best != nil
}

// TypeByName returns the element type of kind k with the given name.
func (d *Document) TypeByName(k Kind, name string) (*Element, bool) {
	for _, e := range d.Elements(k) {
		if e.IsType && strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return nil, false
}

// EnsureType returns the id of the named type of kind k, creating it when
// missing. An empty name resolves to the first type of the kind, or to a
// "Default" type.
func (d *Document) EnsureType(k Kind, name string) (ElementID, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		for _, e := range d.Elements(k) {
			if e.IsType {
				return e.ID, e.Name, nil
			}
		}
		name = "Default"
	}
	if existing, ok := d.TypeByName(k, name); ok {
		return existing.ID, existing.Name, nil
	}
	id, err := d.Add(&Element{Kind: k, Name: name, IsType: true})
	if err != nil {
		return InvalidElementID, "", err
	}
	return id, name, nil
}

// Select replaces the current selection. Selection is view state and does
// not need a transaction.
func (d *Document) Select(ids []ElementID) error {
	for _, id := range ids {
		if _, ok := d.elements[id]; !ok {
			return fmt.Errorf("select element %s: %w", id, ErrElementNotFound)
		}
	}
	d.selection = append([]ElementID(nil), ids...)
	return nil
}

// Selection returns the selected ids.
func (d *Document) Selection() []ElementID {
	return append([]ElementID(nil), d.selection...)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
