package memtree

import "inmemfs/internal/logging"

var hookLogger = logging.GetLogger().WithPrefix("hook")

// HookKind identifies the operation a hook is registered for.
type HookKind int

const (
	HookCreate HookKind = iota
	HookMkdir
	HookOpen
	HookClose
	HookRead
	HookWrite
	HookTrunc
	HookUnlink
	HookRmdir
	HookRename
	// HookReaddir is dispatched once per candidate directory entry
	// rather than once per call, so a non-zero return filters that one
	// entry out of the listing instead of failing the whole readdir.
	HookReaddir
	HookGetxattr
	HookSetxattr
	HookListxattr
	HookRemovexattr
	HookDetach
)

// HookFunc is a user-supplied callback. It receives the owning Core,
// the path (for rename, the destination path), and the entry, still
// locked at the level the
// contracted operation holds it. Returning a non-zero Errno fails the
// operation, except for HookDetach, whose errors are logged and
// dropped.
type HookFunc func(core *Core, path string, entry *Entry) Errno

// HookTable is a registry keyed by operation kind, configured at
// Core-init time and treated as immutable during operation.
type HookTable struct {
	hooks map[HookKind]HookFunc
}

func newHookTable() *HookTable {
	return &HookTable{hooks: make(map[HookKind]HookFunc)}
}

func (t *HookTable) register(kind HookKind, fn HookFunc) {
	t.hooks[kind] = fn
}

// dispatch invokes the hook for kind if one is registered, with entry
// still locked at the caller's contracted level. A non-registered
// hook is a no-op success.
func (t *HookTable) dispatch(core *Core, kind HookKind, path string, entry *Entry) Errno {
	fn, ok := t.hooks[kind]
	if !ok {
		return 0
	}
	return fn(core, path, entry)
}

// dispatchDetach runs the detach hook in the destruction tail. Its
// errors are logged and dropped: successful hook completion is never
// a precondition for the entry actually being freed.
func (t *HookTable) dispatchDetach(core *Core, path string, entry *Entry) {
	fn, ok := t.hooks[HookDetach]
	if !ok {
		return
	}
	if errno := fn(core, path, entry); errno != 0 {
		hookLogger.Warn("detach hook for %q returned %v; dropping", path, errno)
	}
}
