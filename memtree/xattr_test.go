package memtree

import "testing"

func TestXattrTableSetGetRoundTrip(t *testing.T) {
	tbl := newXattrTable()
	if errno := tbl.set("user.note", []byte("hello\x00world"), SetUpsert); errno != 0 {
		t.Fatalf("set failed: %v", errno)
	}
	value, ok := tbl.get("user.note")
	if !ok {
		t.Fatal("get after set failed")
	}
	if string(value) != "hello\x00world" {
		t.Fatalf("value = %q, want embedded-null value preserved verbatim", value)
	}
}

func TestXattrTableCreateFlagRejectsExisting(t *testing.T) {
	tbl := newXattrTable()
	tbl.set("a", []byte("1"), SetUpsert)
	if errno := tbl.set("a", []byte("2"), SetCreate); errno != EExists {
		t.Fatalf("errno = %v, want EExists", errno)
	}
}

func TestXattrTableReplaceFlagRejectsMissing(t *testing.T) {
	tbl := newXattrTable()
	if errno := tbl.set("a", []byte("1"), SetReplace); errno != ENotFound {
		t.Fatalf("errno = %v, want ENotFound", errno)
	}
}

func TestXattrTableListIsNullTerminatedInsertionOrder(t *testing.T) {
	tbl := newXattrTable()
	tbl.set("user.b", []byte("x"), SetUpsert)
	tbl.set("user.a", []byte("y"), SetUpsert)

	list := tbl.list()
	want := "user.b\x00user.a\x00"
	if string(list) != want {
		t.Fatalf("list = %q, want %q", list, want)
	}
}

func TestXattrTableRemove(t *testing.T) {
	tbl := newXattrTable()
	tbl.set("a", []byte("1"), SetUpsert)
	if !tbl.remove("a") {
		t.Fatal("remove should succeed for present key")
	}
	if tbl.remove("a") {
		t.Fatal("second remove should fail")
	}
	if _, ok := tbl.get("a"); ok {
		t.Fatal("get after remove should fail")
	}
}

func TestXattrTableSetCopiesValue(t *testing.T) {
	tbl := newXattrTable()
	value := []byte("original")
	tbl.set("a", value, SetUpsert)
	value[0] = 'X'

	stored, _ := tbl.get("a")
	if string(stored) != "original" {
		t.Fatalf("stored value mutated by caller's slice: got %q", stored)
	}
}
