package memtree

// Getxattr resolves path and returns the value stored under name.
func (c *Core) Getxattr(path string, user, group uint64, name string) ([]byte, error) {
	entry, errno := c.resolve(path, user, group, lockRead)
	if errno != 0 {
		return nil, newErr("getxattr", path, errno)
	}
	defer entry.runlock()

	value, ok := entry.xattrs.get(name)
	if !ok {
		return nil, newErr("getxattr", path, ENotFound)
	}
	if errno := c.hooks.dispatch(c, HookGetxattr, path, entry); errno != 0 {
		return nil, newErr("getxattr", path, errno)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Setxattr resolves path and sets name to value, honoring flag's
// creation semantics.
func (c *Core) Setxattr(path string, user, group uint64, name string, value []byte, flag SetFlag) error {
	entry, errno := c.resolve(path, user, group, lockWrite)
	if errno != 0 {
		return newErr("setxattr", path, errno)
	}
	defer entry.wunlock()

	if errno := entry.xattrs.set(name, value, flag); errno != 0 {
		return newErr("setxattr", path, errno)
	}
	entry.ctime = c.now()

	if errno := c.hooks.dispatch(c, HookSetxattr, path, entry); errno != 0 {
		return newErr("setxattr", path, errno)
	}
	return nil
}

// Listxattr resolves path and copies the null-terminated concatenation
// of its attribute names into buf, returning the number of bytes the
// full listing occupies. A nil or zero-length buf is a size query:
// it returns the required length with a nil error and copies nothing.
// A non-empty buf shorter than that length copies nothing and fails
// with ERange, with the required length still returned so the caller
// knows how large a buffer to retry with.
func (c *Core) Listxattr(path string, user, group uint64, buf []byte) (int, error) {
	entry, errno := c.resolve(path, user, group, lockRead)
	if errno != 0 {
		return 0, newErr("listxattr", path, errno)
	}
	defer entry.runlock()

	if errno := c.hooks.dispatch(c, HookListxattr, path, entry); errno != 0 {
		return 0, newErr("listxattr", path, errno)
	}

	list := entry.xattrs.list()
	if len(buf) == 0 {
		return len(list), nil
	}
	if len(buf) < len(list) {
		return len(list), newErr("listxattr", path, ERange)
	}
	copy(buf, list)
	return len(list), nil
}

// Removexattr resolves path and deletes the attribute named name.
func (c *Core) Removexattr(path string, user, group uint64, name string) error {
	entry, errno := c.resolve(path, user, group, lockWrite)
	if errno != 0 {
		return newErr("removexattr", path, errno)
	}
	defer entry.wunlock()

	if !entry.xattrs.remove(name) {
		return newErr("removexattr", path, ENotFound)
	}
	entry.ctime = c.now()

	if errno := c.hooks.dispatch(c, HookRemovexattr, path, entry); errno != 0 {
		return newErr("removexattr", path, errno)
	}
	return nil
}

// Fgetxattr, Fsetxattr, Flistxattr, and Fremovexattr operate on an
// already-open file handle instead of re-walking the path.

func (c *Core) Fgetxattr(handle *FileHandle, name string) ([]byte, error) {
	handle.mu.RLock()
	defer handle.mu.RUnlock()
	if handle.entry == nil {
		return nil, newErr("fgetxattr", handle.path, EBadFD)
	}
	entry := handle.entry
	entry.rlock()
	defer entry.runlock()

	value, ok := entry.xattrs.get(name)
	if !ok {
		return nil, newErr("fgetxattr", handle.path, ENotFound)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (c *Core) Fsetxattr(handle *FileHandle, name string, value []byte, flag SetFlag) error {
	handle.mu.RLock()
	defer handle.mu.RUnlock()
	if handle.entry == nil {
		return newErr("fsetxattr", handle.path, EBadFD)
	}
	entry := handle.entry
	entry.wlock()
	defer entry.wunlock()

	if errno := entry.xattrs.set(name, value, flag); errno != 0 {
		return newErr("fsetxattr", handle.path, errno)
	}
	entry.ctime = c.now()
	return nil
}

// Flistxattr follows the same size-query/ERange contract as Listxattr.
func (c *Core) Flistxattr(handle *FileHandle, buf []byte) (int, error) {
	handle.mu.RLock()
	defer handle.mu.RUnlock()
	if handle.entry == nil {
		return 0, newErr("flistxattr", handle.path, EBadFD)
	}
	entry := handle.entry
	entry.rlock()
	defer entry.runlock()

	list := entry.xattrs.list()
	if len(buf) == 0 {
		return len(list), nil
	}
	if len(buf) < len(list) {
		return len(list), newErr("flistxattr", handle.path, ERange)
	}
	copy(buf, list)
	return len(list), nil
}

func (c *Core) Fremovexattr(handle *FileHandle, name string) error {
	handle.mu.RLock()
	defer handle.mu.RUnlock()
	if handle.entry == nil {
		return newErr("fremovexattr", handle.path, EBadFD)
	}
	entry := handle.entry
	entry.wlock()
	defer entry.wunlock()

	if !entry.xattrs.remove(name) {
		return newErr("fremovexattr", handle.path, ENotFound)
	}
	entry.ctime = c.now()
	return nil
}
