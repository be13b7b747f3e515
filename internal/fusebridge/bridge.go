// Package fusebridge adapts a memtree.Core onto bazil.org/fuse, the
// same host-kernel bridge library the teacher used to expose its
// path-mapped filesystem. The bridge is a thin translation layer: all
// filesystem semantics live in memtree, and every FUSE callback here
// does nothing but translate between kernel request/response structs
// and Core method calls.
package fusebridge

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"inmemfs/internal/logging"
	"inmemfs/memtree"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var bridgeLogger = logging.GetLogger().WithPrefix("bridge")

// Bridge implements fusefs.FS, handing out Node values that forward
// every operation to an underlying memtree.Core.
type Bridge struct {
	core *memtree.Core
	uid  uint32
	gid  uint32
}

// New wraps core for FUSE serving under the given default uid/gid,
// used for operations the kernel doesn't attach credentials to.
func New(core *memtree.Core, uid, gid uint32) *Bridge {
	return &Bridge{core: core, uid: uid, gid: gid}
}

// Root implements fusefs.FS.
func (b *Bridge) Root() (fusefs.Node, error) {
	bridgeLogger.Trace("returning root node")
	return &Node{bridge: b, path: "/"}, nil
}

// Mount mounts the bridge at mountPoint and serves it until Unmount is
// called. ctx is not consulted: canceling it does not stop serving.
func Mount(ctx context.Context, core *memtree.Core, mountPoint string, uid, gid uint32) (*fuse.Conn, error) {
	bridgeLogger.Info("mounting at %s", mountPoint)

	mountOpts := []fuse.MountOption{
		fuse.FSName("inmemfs"),
		fuse.Subtype("inmemfs"),
		fuse.AllowOther(),
		fuse.DefaultPermissions(),
	}

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return nil, fmt.Errorf("mount failed: %w", err)
	}

	b := New(core, uid, gid)
	go func() {
		if err := fusefs.Serve(c, b); err != nil {
			bridgeLogger.Error("fuse server error: %v", err)
		}
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		return nil, fmt.Errorf("mount point failed to initialize: %w", err)
	}

	bridgeLogger.Info("mounted successfully at %s", mountPoint)
	return c, nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Unmount unmounts a previously mounted bridge.
func Unmount(mountPoint string) error {
	bridgeLogger.Info("unmounting %s", mountPoint)
	return fuse.Unmount(mountPoint)
}

// errnoToSyscall maps a memtree.Errno to the syscall.Errno bazil.org/fuse
// expects a Node method to return.
func errnoToSyscall(err error) error {
	if err == nil {
		return nil
	}
	opErr, ok := err.(*memtree.OpError)
	if !ok {
		return syscall.EIO
	}
	switch opErr.Errno {
	case memtree.ENotFound:
		return syscall.ENOENT
	case memtree.EExists:
		return syscall.EEXIST
	case memtree.ENotEmpty:
		return syscall.ENOTEMPTY
	case memtree.ENotDirectory:
		return syscall.ENOTDIR
	case memtree.EIsDirectory:
		return syscall.EISDIR
	case memtree.EAccessDenied:
		return syscall.EACCES
	case memtree.EInvalidArg:
		return syscall.EINVAL
	case memtree.ENameTooLong:
		return syscall.ENAMETOOLONG
	case memtree.ETooManyLinks:
		return syscall.EMLINK
	case memtree.EBadFD:
		return syscall.EBADF
	default:
		return syscall.EIO
	}
}
