// Command inmemfsd mounts an in-memory filesystem core onto the host
// via FUSE. It exists to exercise memtree.Core end to end; nothing it
// does is required to use the library directly from Go.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"inmemfs/internal/config"
	"inmemfs/internal/fusebridge"
	"inmemfs/internal/logging"
	"inmemfs/memtree"
)

var logger = logging.GetLogger()

func main() {
	mountPoint := flag.String("mount", "", "Mount point for the in-memory filesystem")
	configPath := flag.String("config", "", "Config file path (optional)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	if *verbose {
		logger.SetLevel(logging.LevelDebug)
	}

	logger.Info("starting inmemfsd...")

	if *mountPoint == "" {
		logger.Error("mount point is required")
		os.Exit(1)
	}
	cleanMount := filepath.Clean(*mountPoint)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(config.LevelFromString(cfg.LogLevel))
	if *verbose {
		logger.SetLevel(logging.LevelDebug)
	}

	// The -mount flag was already required above, so this block never
	// substitutes cfg.MountPoint; it only recomputes cleanMount.
	if *mountPoint == "" {
		*mountPoint = cfg.MountPoint
	}
	if *mountPoint == "" {
		logger.Error("mount point is required")
		os.Exit(1)
	}
	cleanMount = filepath.Clean(*mountPoint)

	core, err := memtree.NewCore(memtree.Config{
		RootOwner:         cfg.RootOwner,
		RootGroup:         cfg.RootGroup,
		RootMode:          cfg.RootMode,
		SymlinkChaseLimit: cfg.SymlinkChaseLimit,
		MaxPathLength:     cfg.MaxPathLength,
		DeferDestruction:  true,
		Clock:             memtree.SystemClock(),
	})
	if err != nil {
		logger.Error("failed to create core: %v", err)
		os.Exit(1)
	}

	registerDemoHooks(core)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := fusebridge.Mount(ctx, core, cleanMount, uint32(cfg.RootOwner), uint32(cfg.RootGroup))
	if err != nil {
		logger.Error("mount failed: %v", err)
		os.Exit(1)
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("filesystem mounted and ready at %s", cleanMount)
	sig := <-sigChan
	logger.Info("received signal %v, unmounting", sig)

	if err := fusebridge.Unmount(cleanMount); err != nil {
		logger.Error("unmount error: %v", err)
	}
	if _, err := core.Destroy(); err != nil {
		logger.Error("core close error: %v", err)
	}
	logger.Info("clean shutdown complete")
}

// registerDemoHooks wires a couple of illustrative hooks so the demo
// binary exercises the callback surface, not just the tree.
func registerDemoHooks(core *memtree.Core) {
	hookLog := logger.WithPrefix("hook")
	core.RegisterHook(memtree.HookCreate, func(_ *memtree.Core, path string, _ *memtree.Entry) memtree.Errno {
		hookLog.Debug("created %s", path)
		return 0
	})
	core.RegisterHook(memtree.HookDetach, func(_ *memtree.Core, path string, _ *memtree.Entry) memtree.Errno {
		hookLog.Debug("detached %s", path)
		return 0
	})
}
