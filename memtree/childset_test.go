package memtree

import "testing"

func TestChildSetInsertFindRemove(t *testing.T) {
	cs := NewChildSet()
	a := &Entry{fileID: 1}
	if !cs.Insert("a", a) {
		t.Fatal("insert a failed")
	}
	if cs.Insert("a", a) {
		t.Fatal("duplicate insert should fail")
	}
	got, ok := cs.Find("a")
	if !ok || got != a {
		t.Fatalf("find a: got %v, %v", got, ok)
	}
	if cs.Size() != 1 {
		t.Fatalf("size = %d, want 1", cs.Size())
	}

	removed, ok := cs.Remove("a")
	if !ok || removed != a {
		t.Fatalf("remove a: got %v, %v", removed, ok)
	}
	if cs.Size() != 0 {
		t.Fatalf("size after remove = %d, want 0", cs.Size())
	}
	if _, ok := cs.Find("a"); ok {
		t.Fatal("find after remove should fail")
	}
}

func TestChildSetTombstonesPreservePositions(t *testing.T) {
	cs := NewChildSet()
	e1, e2, e3 := &Entry{fileID: 1}, &Entry{fileID: 2}, &Entry{fileID: 3}
	cs.Insert("a", e1)
	cs.Insert("b", e2)
	cs.Insert("c", e3)

	if _, ok := cs.Remove("b"); !ok {
		t.Fatal("remove b failed")
	}

	if cs.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (tombstone should not shrink slots)", cs.Len())
	}
	if name, ok := cs.NameAt(2); !ok || name != "c" {
		t.Fatalf("NameAt(2) = %q, %v, want c, true (position of c must not shift)", name, ok)
	}
	if _, ok := cs.ChildAt(1); ok {
		t.Fatal("ChildAt(1) should report absent after tombstoning")
	}
}

func TestChildSetRename(t *testing.T) {
	cs := NewChildSet()
	e := &Entry{fileID: 1}
	cs.Insert("old", e)

	if !cs.Rename("old", "new") {
		t.Fatal("rename failed")
	}
	if _, ok := cs.Find("old"); ok {
		t.Fatal("old name should be gone")
	}
	got, ok := cs.Find("new")
	if !ok || got != e {
		t.Fatalf("find new: got %v, %v", got, ok)
	}
}

func TestChildSetRenameToExistingFails(t *testing.T) {
	cs := NewChildSet()
	cs.Insert("a", &Entry{fileID: 1})
	cs.Insert("b", &Entry{fileID: 2})

	if cs.Rename("a", "b") {
		t.Fatal("rename onto a live name should fail")
	}
}
