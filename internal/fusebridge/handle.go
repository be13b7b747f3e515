package fusebridge

import (
	"context"

	"inmemfs/internal/logging"
	"inmemfs/memtree"

	"bazil.org/fuse"
)

var handleLogger = logging.GetLogger().WithPrefix("handle")

// FileHandle adapts a memtree.FileHandle to bazil.org/fuse's handle
// interfaces.
type FileHandle struct {
	bridge *Bridge
	handle *memtree.FileHandle
}

// Read implements fusefs.HandleReader.
func (h *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	buf := make([]byte, req.Size)
	n, err := h.bridge.core.Read(h.handle, buf, req.Offset)
	if err != nil {
		return errnoToSyscall(err)
	}
	resp.Data = buf[:n]
	return nil
}

// Write implements fusefs.HandleWriter.
func (h *FileHandle) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	n, err := h.bridge.core.Write(h.handle, req.Data, req.Offset)
	if err != nil {
		return errnoToSyscall(err)
	}
	resp.Size = n
	return nil
}

// Release implements fusefs.HandleReleaser.
func (h *FileHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	_, _, err := h.bridge.core.Close(h.handle)
	if err != nil {
		handleLogger.Warn("close failed: %v", err)
		return errnoToSyscall(err)
	}
	return nil
}

