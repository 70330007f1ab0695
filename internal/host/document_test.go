package host

import (
	"errors"
	"testing"
)

func addLevel(t *testing.T, doc *Document, name string, elevation float64) ElementID {
	t.Helper()
	var id ElementID
	err := doc.Transact("level", func() error {
		var err error
		id, err = doc.Add(&Element{Kind: KindLevel, Name: name, Elevation: elevation})
		return err
	})
	if err != nil {
		t.Fatalf("add level: %v", err)
	}
	return id
}

func TestAddRequiresTransaction(t *testing.T) {
	doc := NewDocument("Project1", "")
	if _, err := doc.Add(&Element{Kind: KindWall}); !errors.Is(err, ErrNoTransaction) {
		t.Fatalf("expected ErrNoTransaction, got %v", err)
	}
	if err := doc.Update(1, func(*Element) error { return nil }); !errors.Is(err, ErrNoTransaction) {
		t.Fatalf("expected ErrNoTransaction from update, got %v", err)
	}
}

func TestTransactCommits(t *testing.T) {
	doc := NewDocument("Project1", "")
	id := addLevel(t, doc, "Level 1", 0)
	if doc.Revision() != 1 {
		t.Fatalf("revision = %d, want 1", doc.Revision())
	}
	level, ok := doc.Get(id)
	if !ok || level.Name != "Level 1" {
		t.Fatalf("get level = %+v %v", level, ok)
	}
}

func TestTransactRollsBackOnError(t *testing.T) {
	doc := NewDocument("Project1", "")
	levelID := addLevel(t, doc, "Level 1", 0)

	boom := errors.New("boom")
	err := doc.Transact("fail", func() error {
		if _, err := doc.Add(&Element{Kind: KindWall, LevelID: levelID}); err != nil {
			return err
		}
		if err := doc.Update(levelID, func(e *Element) error { e.Name = "Renamed"; return nil }); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if doc.Len() != 1 {
		t.Fatalf("expected rollback to leave 1 element, got %d", doc.Len())
	}
	level, _ := doc.Get(levelID)
	if level.Name != "Level 1" {
		t.Fatalf("expected rename rolled back, got %q", level.Name)
	}
	if doc.Revision() != 1 {
		t.Fatalf("revision = %d, want 1", doc.Revision())
	}

	id := addLevel(t, doc, "Level 2", 10)
	if id != levelID+1 {
		t.Fatalf("expected id allocation rolled back, got %d", id)
	}
}

func TestTransactRollsBackOnPanic(t *testing.T) {
	doc := NewDocument("Project1", "")
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = doc.Transact("panic", func() error {
			if _, err := doc.Add(&Element{Kind: KindLevel}); err != nil {
				return err
			}
			panic("host fault")
		})
	}()
	if doc.Len() != 0 {
		t.Fatalf("expected empty document after panic, got %d", doc.Len())
	}
	// The document must accept a new transaction afterwards.
	addLevel(t, doc, "Level 1", 0)
}

func TestNestedTransactionRejected(t *testing.T) {
	doc := NewDocument("Project1", "")
	err := doc.Transact("outer", func() error {
		return doc.Transact("inner", func() error { return nil })
	})
	if !errors.Is(err, ErrNestedTransaction) {
		t.Fatalf("expected ErrNestedTransaction, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	doc := NewDocument("Project1", "")
	levelID := addLevel(t, doc, "Level 1", 0)

	var wallID, doorID, otherID ElementID
	err := doc.Transact("build", func() error {
		var err error
		if wallID, err = doc.Add(&Element{Kind: KindWall, LevelID: levelID, Curve: &Line{P1: XYZ{X: 10}}}); err != nil {
			return err
		}
		if doorID, err = doc.Add(&Element{Kind: KindDoor, LevelID: levelID, HostID: wallID, Point: &XYZ{X: 5}}); err != nil {
			return err
		}
		otherID, err = doc.Add(&Element{Kind: KindGrid, Curve: &Line{P1: XYZ{Y: 10}}})
		return err
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := doc.Select([]ElementID{doorID, otherID}); err != nil {
		t.Fatalf("select: %v", err)
	}

	var removed []ElementID
	err = doc.Transact("delete", func() error {
		var err error
		removed, err = doc.Delete(wallID)
		return err
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(removed) != 2 || removed[0] != wallID || removed[1] != doorID {
		t.Fatalf("removed = %v, want [%d %d]", removed, wallID, doorID)
	}
	if sel := doc.Selection(); len(sel) != 1 || sel[0] != otherID {
		t.Fatalf("selection = %v, want [%d]", sel, otherID)
	}

	err = doc.Transact("delete level", func() error {
		_, err := doc.Delete(levelID)
		return err
	})
	if err != nil {
		t.Fatalf("delete level: %v", err)
	}
	if _, ok := doc.Get(otherID); !ok {
		t.Fatal("grid without level should survive level deletion")
	}
}

func TestDeleteMissing(t *testing.T) {
	doc := NewDocument("Project1", "")
	err := doc.Transact("delete", func() error {
		_, err := doc.Delete(42)
		return err
	})
	if !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
}

func TestLevelLookups(t *testing.T) {
	doc := NewDocument("Project1", "")
	addLevel(t, doc, "Level 2", 10)
	addLevel(t, doc, "Level 1", 0)

	levels := doc.Levels()
	if len(levels) != 2 || levels[0].Name != "Level 1" {
		t.Fatalf("levels not ordered by elevation: %+v", levels)
	}
	if level, ok := doc.LevelByName("level 2"); !ok || level.Elevation != 10 {
		t.Fatalf("LevelByName = %+v %v", level, ok)
	}
	if level, ok := doc.LevelAt(7); !ok || level.Name != "Level 2" {
		t.Fatalf("LevelAt(7) = %+v %v", level, ok)
	}
}

func TestEnsureType(t *testing.T) {
	doc := NewDocument("Project1", "")
	var first, second ElementID
	var name string
	err := doc.Transact("types", func() error {
		var err error
		if first, name, err = doc.EnsureType(KindWall, ""); err != nil {
			return err
		}
		second, _, err = doc.EnsureType(KindWall, "default")
		return err
	})
	if err != nil {
		t.Fatalf("ensure type: %v", err)
	}
	if name != "Default" || first != second {
		t.Fatalf("expected one Default type, got %q ids %d %d", name, first, second)
	}
}
