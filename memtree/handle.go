package memtree

import "sync"

// OpenFlag mirrors the small set of open modes the core cares about.
type OpenFlag int

const (
	OpenRead OpenFlag = 1 << iota
	OpenWrite
	OpenAppend
	OpenCreate
	OpenTruncate
)

// FileHandle binds an entry to a user-visible open session for a
// regular file. The entry back-reference is non-owning: the entry's
// open-count, not this pointer, keeps it alive.
type FileHandle struct {
	mu sync.RWMutex

	entry  *Entry
	path   string // captured at open time, informational only
	fileID uint64 // captured at open time, to detect staleness

	flags  OpenFlag
	offset int64

	AppData any
}

// DirHandle binds a directory entry to a user-visible open session.
type DirHandle struct {
	mu sync.RWMutex

	entry  *Entry
	path   string
	fileID uint64

	AppData any
}

func newFileHandle(entry *Entry, path string, flags OpenFlag) *FileHandle {
	return &FileHandle{entry: entry, path: path, fileID: entry.fileID, flags: flags}
}

func newDirHandle(entry *Entry, path string) *DirHandle {
	return &DirHandle{entry: entry, path: path, fileID: entry.fileID}
}

// Stale reports whether the entry this handle was opened against has
// since been replaced by a different file-id at the same address
// (which cannot happen in this implementation — entries are never
// reused — but the check documents the intended semantics for
// embedders that swap Entry pointers under a handle).
func (h *FileHandle) Stale() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entry == nil || h.entry.fileID != h.fileID
}

func (h *DirHandle) Stale() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entry == nil || h.entry.fileID != h.fileID
}
