package memtree

import "testing"

func TestTryDestroyKeepsEntryWhileReferenced(t *testing.T) {
	e := newEntry(1, TypeRegular, 0, 0, 0o644, systemClock{}.Now())
	e.linkCount = 1
	e.openCount = 1

	var appData any
	if outcome := e.tryDestroy(&appData); outcome != destroyKept {
		t.Fatalf("outcome = %v, want destroyKept", outcome)
	}
	if e.typ == TypeDead {
		t.Fatal("entry should not be marked dead while still referenced")
	}
}

func TestTryDestroyFreesWhenBothCountsZero(t *testing.T) {
	e := newEntry(1, TypeRegular, 0, 0, 0o644, systemClock{}.Now())
	e.AppData = "payload"
	e.data = []byte("content")

	var appData any
	if outcome := e.tryDestroy(&appData); outcome != destroyDone {
		t.Fatalf("outcome = %v, want destroyDone", outcome)
	}
	if e.typ != TypeDead {
		t.Fatalf("type = %v, want TypeDead", e.typ)
	}
	if appData != "payload" {
		t.Fatalf("appData = %v, want payload", appData)
	}
	if e.data != nil {
		t.Fatal("data should be released")
	}
}

func TestCanExecuteHonorsOwnerGroupOtherBits(t *testing.T) {
	owner, group, other := uint64(1), uint64(2), uint64(3)

	e := &Entry{owner: owner, group: group, mode: 0o100}
	if !e.canExecute(owner, group) {
		t.Fatal("owner with owner-execute bit should pass")
	}
	if e.canExecute(other, group) {
		t.Fatal("non-owner should not pass owner-only execute bit")
	}

	e2 := &Entry{owner: owner, group: group, mode: 0o010}
	if !e2.canExecute(other, group) {
		t.Fatal("matching group with group-execute bit should pass")
	}

	e3 := &Entry{owner: owner, group: group, mode: 0o001}
	if !e3.canExecute(other, other) {
		t.Fatal("other-execute bit should let anyone through")
	}
}

func TestStatSnapshotsCurrentFields(t *testing.T) {
	now := systemClock{}.Now()
	e := newEntry(7, TypeDirectory, 1, 2, 0o755, now)
	e.size = 42

	st := e.stat()
	if st.FileID != 7 || st.Type != TypeDirectory || st.Owner != 1 || st.Group != 2 || st.Size != 42 {
		t.Fatalf("stat = %+v, unexpected", st)
	}
}
