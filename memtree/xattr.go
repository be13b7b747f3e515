package memtree

import "bytes"

// xattrTable is an ordered mapping from attribute name to byte value.
// It reuses the same slice-plus-index shape as ChildSet (L1) rather
// than pulling in a general-purpose ordered-map dependency: the
// entries are few, names are short, and the shape is already proven
// out for the directory child index. See DESIGN.md for the standard-
// library justification.
type xattrTable struct {
	names  []string
	values map[string][]byte
	seen   map[string]bool
}

func newXattrTable() *xattrTable {
	return &xattrTable{values: make(map[string][]byte), seen: make(map[string]bool)}
}

// SetFlag mirrors setxattr's creation-flag semantics.
type SetFlag int

const (
	// SetUpsert creates or replaces unconditionally.
	SetUpsert SetFlag = iota
	// SetCreate fails EExists if the key is already present.
	SetCreate
	// SetReplace fails ENotFound if the key is absent.
	SetReplace
)

func (t *xattrTable) get(name string) ([]byte, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *xattrTable) set(name string, value []byte, flag SetFlag) Errno {
	_, exists := t.values[name]
	switch flag {
	case SetCreate:
		if exists {
			return EExists
		}
	case SetReplace:
		if !exists {
			return ENotFound
		}
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	if !exists {
		t.names = append(t.names, name)
		t.seen[name] = true
	}
	t.values[name] = stored
	return 0
}

func (t *xattrTable) remove(name string) bool {
	if !t.seen[name] {
		return false
	}
	delete(t.values, name)
	delete(t.seen, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i], t.names[i+1:]...)
			break
		}
	}
	return true
}

// list returns the null-terminated concatenation of attribute names,
// in insertion order; its length is the number of bytes the listing
// occupies.
func (t *xattrTable) list() []byte {
	var buf bytes.Buffer
	for _, name := range t.names {
		buf.WriteString(name)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}
