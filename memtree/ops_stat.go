package memtree

// Stat resolves path (following a terminal symlink) and returns a
// metadata snapshot.
func (c *Core) Stat(path string, user, group uint64) (Stat, error) {
	entry, errno := c.resolve(path, user, group, lockRead)
	if errno != 0 {
		return Stat{}, newErr("stat", path, errno)
	}
	defer entry.runlock()
	return entry.stat(), nil
}

// Lstat behaves like Stat but does not follow a terminal symlink.
func (c *Core) Lstat(path string, user, group uint64) (Stat, error) {
	entry, errno := c.resolveNoFollow(path, user, group, lockRead)
	if errno != 0 {
		return Stat{}, newErr("lstat", path, errno)
	}
	defer entry.runlock()
	return entry.stat(), nil
}

// Fstat reads metadata off an already-open file handle, without
// re-walking the path.
func (c *Core) Fstat(handle *FileHandle) (Stat, error) {
	handle.mu.RLock()
	defer handle.mu.RUnlock()
	if handle.entry == nil {
		return Stat{}, newErr("fstat", handle.path, EBadFD)
	}
	entry := handle.entry
	entry.rlock()
	defer entry.runlock()
	return entry.stat(), nil
}

// Chmod sets an entry's permission bits.
func (c *Core) Chmod(path string, user, group uint64, mode uint32) error {
	entry, errno := c.resolve(path, user, group, lockWrite)
	if errno != 0 {
		return newErr("chmod", path, errno)
	}
	defer entry.wunlock()
	entry.mode = mode
	entry.ctime = c.now()
	return nil
}

// Chown sets an entry's owner and group.
func (c *Core) Chown(path string, user, group uint64, newOwner, newGroup uint64) error {
	entry, errno := c.resolve(path, user, group, lockWrite)
	if errno != 0 {
		return newErr("chown", path, errno)
	}
	defer entry.wunlock()
	entry.owner = newOwner
	entry.group = newGroup
	entry.ctime = c.now()
	return nil
}
