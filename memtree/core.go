package memtree

import (
	"sync/atomic"
	"time"

	"inmemfs/internal/logging"

	"github.com/google/uuid"
)

var coreLogger = logging.GetLogger().WithPrefix("core")

// Config carries per-instance settings. There is no on-disk state:
// Config is provided by the embedder at NewCore time and is treated
// as immutable afterward.
type Config struct {
	// RootOwner/RootGroup/RootMode seed the root directory's
	// metadata.
	RootOwner uint64
	RootGroup uint64
	RootMode  uint32

	// SymlinkChaseLimit bounds symlink resolution depth. Zero uses
	// DefaultSymlinkChaseLimit.
	SymlinkChaseLimit int

	// MaxPathLength bounds resolvable path length. Zero uses
	// DefaultMaxPathLength.
	MaxPathLength int

	// DeferDestruction, when false, makes Unlink and Rmdir return
	// EInvalidArg, before changing anything, when the target still has
	// an open handle (open-count above zero). Close does not consult
	// it. Almost every embedder wants this true; it exists because
	// spec.md's Core carries "whether deferred destruction is
	// enabled" as an explicit config knob.
	DeferDestruction bool

	// Clock supplies timestamps for ctime/mtime/atime. Nil means
	// timestamps are always zero.
	Clock Clock
}

const (
	DefaultSymlinkChaseLimit = 40
	DefaultMaxPathLength     = 4096
)

// Core holds the root entry, the file-id allocator, the hook
// registry, and instance configuration. A Core is safe for concurrent
// use by many goroutines.
type Core struct {
	instanceID uuid.UUID
	nextID     atomic.Uint64
	hooks      *HookTable
	cfg        Config
	root       *Entry
}

// NewCore constructs a Core with a fresh root directory. The root's
// "." and ".." both point to itself.
func NewCore(cfg Config) (*Core, error) {
	if cfg.SymlinkChaseLimit == 0 {
		cfg.SymlinkChaseLimit = DefaultSymlinkChaseLimit
	}
	if cfg.MaxPathLength == 0 {
		cfg.MaxPathLength = DefaultMaxPathLength
	}
	if cfg.RootMode == 0 {
		cfg.RootMode = 0o755
	}
	if cfg.Clock == nil {
		cfg.Clock = zeroClock{}
	}

	c := &Core{
		instanceID: uuid.New(),
		hooks:      newHookTable(),
		cfg:        cfg,
	}

	now := cfg.Clock.Now()
	root := newEntry(c.allocID(), TypeDirectory, cfg.RootOwner, cfg.RootGroup, cfg.RootMode, now)
	root.name = "/"
	root.children.Insert(".", root)
	root.children.Insert("..", root)
	// The root's own link count is not derived from any parent entry
	// (invariant 1's ".." for the root points to itself); it starts
	// at one so it is never eligible for destruction while the Core
	// is alive.
	root.linkCount = 1
	root.openCount = 1

	c.root = root

	coreLogger.Info("core %s initialized", c.instanceID)
	return c, nil
}

// RegisterHook installs fn as the callback for kind. Hooks are
// expected to be registered once at startup, before any operation
// runs; the registry is treated as immutable during operation.
func (c *Core) RegisterHook(kind HookKind, fn HookFunc) {
	c.hooks.register(kind, fn)
}

func (c *Core) allocID() uint64 {
	return c.nextID.Add(1)
}

func (c *Core) now() time.Time {
	return c.cfg.Clock.Now()
}

// Destroy tears down the Core, releasing the root's synthetic
// self-reference so that if nothing else holds it, the tree becomes
// collectible. It surrenders the root's AppData to the caller. There
// is nothing to flush: the core never persists anything.
func (c *Core) Destroy() (any, error) {
	c.root.wlock()
	c.root.linkCount = 0
	c.root.openCount = 0
	var appData any
	outcome := c.root.tryDestroy(&appData)
	if outcome == destroyDone {
		// Matches destroyAndFree: the detach hook runs while the entry
		// is still locked, before the final unlock.
		c.hooks.dispatchDetach(c, "/", c.root)
	}
	c.root.wunlock()
	coreLogger.Info("core %s closed", c.instanceID)
	return appData, nil
}

// destroyAndFree assumes the caller holds entry's write lock, and
// unlocks it unconditionally before returning — this is where every
// operation turns tryDestroy's outcome into a detach-hook dispatch
// (Destroy does the same for the root itself), matching try_destroy_and_free's contract of invoking the detach
// hook as part of the same operation that frees the entry.
func (c *Core) destroyAndFree(path string, entry *Entry) (appData any, destroyed bool) {
	outcome := entry.tryDestroy(&appData)
	if outcome == destroyDone {
		c.hooks.dispatchDetach(c, path, entry)
	}
	entry.wunlock()
	return appData, outcome == destroyDone
}
