package memtree

import (
	"sync"
	"time"

	"inmemfs/internal/logging"
)

var entryLogger = logging.GetLogger().WithPrefix("entry")

// EntryType identifies the kind of node an Entry represents.
type EntryType int

const (
	TypeRegular EntryType = iota
	TypeDirectory
	TypeSymlink
	TypeFIFO
	TypeSocket
	TypeCharDev
	TypeBlockDev
	// TypeDead marks storage mid-free: link-count and open-count have
	// both reached zero and content is being released. No operation
	// other than the final free may touch an entry in this state.
	TypeDead
)

// Stat is the metadata snapshot returned by Stat, built from an
// Entry's own metadata fields. Owner/Group/Mode implement the owner/group/mode triple the
// specification limits permission checks to.
type Stat struct {
	FileID uint64
	Type   EntryType
	Owner  uint64
	Group  uint64
	Mode   uint32
	Ctime  time.Time
	Mtime  time.Time
	Atime  time.Time
	Size   int64
}

// Entry is a node in the filesystem tree: the unit of the core's
// concurrent, in-memory graph. Every field below other than the lock
// itself is guarded by that lock, except linkCount/openCount/deleting
// which are only ever mutated by a caller holding the write lock (they
// may be read under either lock).
type Entry struct {
	mu sync.RWMutex

	fileID    uint64
	typ       EntryType
	owner     uint64
	group     uint64
	mode      uint32
	ctime     time.Time
	mtime     time.Time
	atime     time.Time
	size      int64
	linkCount int64
	openCount int64
	deleting  bool

	// name is the key under which this entry appears in its parent's
	// child index; empty once detached, except for the root, which is
	// always reachable and carries name == "/".
	name string

	// content, discriminated by typ.
	children *ChildSet // directories
	data     []byte    // regular files
	target   string    // symlinks

	xattrs *xattrTable

	// AppData is opaque to the core; it is surrendered to the caller
	// on final destruction (files/dirs) or handle close (handles).
	AppData any
}

// newEntry allocates an unlinked Entry of the given type. It is the
// caller's responsibility to insert it into a parent's child index
// under the parent's write lock.
func newEntry(id uint64, typ EntryType, owner, group uint64, mode uint32, now time.Time) *Entry {
	e := &Entry{
		fileID: id,
		typ:    typ,
		owner:  owner,
		group:  group,
		mode:   mode,
		ctime:  now,
		mtime:  now,
		atime:  now,
		xattrs: newXattrTable(),
	}
	switch typ {
	case TypeDirectory:
		e.children = NewChildSet()
	}
	return e
}

func (e *Entry) rlock()   { e.mu.RLock() }
func (e *Entry) runlock() { e.mu.RUnlock() }
func (e *Entry) wlock()   { e.mu.Lock() }
func (e *Entry) wunlock() { e.mu.Unlock() }

// stat snapshots the entry's metadata. Caller must hold at least a
// read lock.
func (e *Entry) stat() Stat {
	return Stat{
		FileID: e.fileID,
		Type:   e.typ,
		Owner:  e.owner,
		Group:  e.group,
		Mode:   e.mode,
		Ctime:  e.ctime,
		Mtime:  e.mtime,
		Atime:  e.atime,
		Size:   e.size,
	}
}

// canExecute checks whether (user, group) may traverse this entry as
// a directory segment, using the owner/group/mode triple. It does not
// distinguish read/write/execute beyond the classic three permission
// bits; permission inheritance beyond owner/group/mode is explicitly
// out of scope.
func (e *Entry) canExecute(user, group uint64) bool {
	if e.mode&0o001 != 0 {
		return true
	}
	if user == e.owner && e.mode&0o100 != 0 {
		return true
	}
	if group == e.group && e.mode&0o010 != 0 {
		return true
	}
	return false
}

// destroyOutcome mirrors the tri-state return of the original
// fskit_entry_try_destroy: destroyed, kept, or an error occurred.
type destroyOutcome int

const (
	destroyKept destroyOutcome = iota
	destroyDone
	destroyError
)

// tryDestroy assumes the caller holds the entry's write lock, and
// always leaves it held on return — the caller is responsible for
// unlocking exactly once, after running any detach hook it needs to
// run while the entry's storage is still addressable. If link-count
// and open-count are both zero, it frees content, xattrs, and clears
// storage, surrenders AppData via appData, flips the type to
// TypeDead, and returns destroyDone. Otherwise it returns destroyKept
// without touching anything.
func (e *Entry) tryDestroy(appData *any) destroyOutcome {
	if e.linkCount != 0 || e.openCount != 0 {
		return destroyKept
	}

	entryLogger.Debug("destroying entry file-id=%d type=%v", e.fileID, e.typ)

	if appData != nil {
		*appData = e.AppData
	}
	e.AppData = nil
	e.xattrs = nil
	e.children = nil
	e.data = nil
	e.target = ""
	e.typ = TypeDead
	e.name = ""

	return destroyDone
}
