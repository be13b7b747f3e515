package memtree

// Close closes a file handle. If this was the last reference to its
// entry (link-count and open-count both reach zero), the entry is
// destroyed and its AppData is returned as fileAppData.
func (c *Core) Close(handle *FileHandle) (handleAppData, fileAppData any, err error) {
	handle.mu.Lock()
	defer handle.mu.Unlock()

	if handle.entry == nil {
		return nil, nil, newErr("close", handle.path, EBadFD)
	}

	entry := handle.entry
	entry.wlock()
	entry.openCount--

	if errno := c.hooks.dispatch(c, HookClose, handle.path, entry); errno != 0 {
		entry.wunlock()
		return nil, nil, newErr("close", handle.path, errno)
	}

	fileAppData, _ = c.destroyAndFree(handle.path, entry)

	handleAppData = handle.AppData
	handle.entry = nil
	handle.AppData = nil

	return handleAppData, fileAppData, nil
}

// CloseDir closes a directory handle, symmetric to Close.
func (c *Core) CloseDir(handle *DirHandle) (handleAppData, dirAppData any, err error) {
	handle.mu.Lock()
	defer handle.mu.Unlock()

	if handle.entry == nil {
		return nil, nil, newErr("closedir", handle.path, EBadFD)
	}

	entry := handle.entry
	entry.wlock()
	entry.openCount--

	if errno := c.hooks.dispatch(c, HookClose, handle.path, entry); errno != 0 {
		entry.wunlock()
		return nil, nil, newErr("closedir", handle.path, errno)
	}

	dirAppData, _ = c.destroyAndFree(handle.path, entry)

	handleAppData = handle.AppData
	handle.entry = nil
	handle.AppData = nil

	return handleAppData, dirAppData, nil
}
