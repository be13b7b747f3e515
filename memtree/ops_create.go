package memtree

// Create makes a new regular file at path and returns an open
// FileHandle to it with open-count already accounted for.
func (c *Core) Create(path string, user, group uint64, mode uint32) (*FileHandle, error) {
	parent, base, errno := c.resolveParent(path, user, group)
	if errno != 0 {
		return nil, newErr("create", path, errno)
	}
	defer parent.wunlock()

	if _, exists := parent.children.Find(base); exists {
		return nil, newErr("create", path, EExists)
	}

	entry := newEntry(c.allocID(), TypeRegular, user, group, mode, c.now())
	entry.name = base
	entry.linkCount = 1

	parent.children.Insert(base, entry)
	parent.mtime = c.now()

	if errno := c.hooks.dispatch(c, HookCreate, path, entry); errno != 0 {
		// The hook runs after insertion; its error surfaces without
		// rollback. The entry stays reachable with no open reference
		// on it — a caller that wants it gone must Unlink explicitly.
		return nil, newErr("create", path, errno)
	}

	entry.openCount = 1
	return newFileHandle(entry, path, OpenRead|OpenWrite), nil
}

// Mkdir creates a new directory at path, installing "." and ".." as
// part of creation.
func (c *Core) Mkdir(path string, user, group uint64, mode uint32) error {
	parent, base, errno := c.resolveParent(path, user, group)
	if errno != 0 {
		return newErr("mkdir", path, errno)
	}
	defer parent.wunlock()

	if _, exists := parent.children.Find(base); exists {
		return newErr("mkdir", path, EExists)
	}

	entry := newEntry(c.allocID(), TypeDirectory, user, group, mode, c.now())
	entry.name = base
	entry.linkCount = 1
	entry.children.Insert(".", entry)
	entry.children.Insert("..", parent)

	parent.children.Insert(base, entry)
	parent.mtime = c.now()

	if errno := c.hooks.dispatch(c, HookMkdir, path, entry); errno != 0 {
		// Same no-rollback contract as Create: the directory stays in
		// place; a caller that wants it gone must Rmdir explicitly.
		return newErr("mkdir", path, errno)
	}

	return nil
}

// Open opens an existing regular file (following a terminal symlink).
// If flags include OpenCreate and the target is absent, it delegates
// to Create.
func (c *Core) Open(path string, user, group uint64, flags OpenFlag, mode uint32) (*FileHandle, error) {
	entry, errno := c.resolve(path, user, group, lockWrite)
	if errno == ENotFound && flags&OpenCreate != 0 {
		return c.Create(path, user, group, mode)
	}
	if errno != 0 {
		return nil, newErr("open", path, errno)
	}
	defer entry.wunlock()

	if entry.typ == TypeDirectory {
		return nil, newErr("open", path, EIsDirectory)
	}
	if entry.typ != TypeRegular {
		return nil, newErr("open", path, ENotDirectory)
	}

	if flags&OpenTruncate != 0 {
		entry.data = nil
		entry.size = 0
		entry.mtime = c.now()
	}

	entry.openCount++

	if errno := c.hooks.dispatch(c, HookOpen, path, entry); errno != 0 {
		entry.openCount--
		return nil, newErr("open", path, errno)
	}

	return newFileHandle(entry, path, flags), nil
}

// OpenDir resolves path (write-locked, per the original resolver's
// opendir contract) and returns an open DirHandle.
func (c *Core) OpenDir(path string, user, group uint64, appData any) (*DirHandle, error) {
	entry, errno := c.resolve(path, user, group, lockWrite)
	if errno != 0 {
		return nil, newErr("opendir", path, errno)
	}
	defer entry.wunlock()

	if entry.typ != TypeDirectory {
		return nil, newErr("opendir", path, ENotDirectory)
	}

	entry.openCount++
	handle := newDirHandle(entry, path)
	handle.AppData = appData
	return handle, nil
}
