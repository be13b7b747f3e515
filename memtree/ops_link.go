package memtree

import "strings"

// Unlink removes a non-directory entry from its parent. Destruction
// is deferred until the last open handle closes if one is still
// open.
func (c *Core) Unlink(path string, user, group uint64) error {
	parent, base, errno := c.resolveParent(path, user, group)
	if errno != 0 {
		return newErr("unlink", path, errno)
	}
	defer parent.wunlock()

	target, ok := parent.children.Find(base)
	if !ok {
		return newErr("unlink", path, ENotFound)
	}
	if target.typ == TypeDirectory {
		return newErr("unlink", path, EIsDirectory)
	}

	target.wlock()

	if !c.cfg.DeferDestruction && target.openCount > 0 {
		target.wunlock()
		return newErr("unlink", path, EInvalidArg)
	}

	parent.children.Remove(base)
	target.linkCount--
	target.deleting = true
	target.name = ""
	parent.mtime = c.now()

	if errno := c.hooks.dispatch(c, HookUnlink, path, target); errno != 0 {
		target.wunlock()
		return newErr("unlink", path, errno)
	}

	c.destroyAndFree(path, target)
	return nil
}

// Rmdir removes an empty directory. The directory's child index must
// contain only "." and "..".
func (c *Core) Rmdir(path string, user, group uint64) error {
	parent, base, errno := c.resolveParent(path, user, group)
	if errno != 0 {
		return newErr("rmdir", path, errno)
	}
	defer parent.wunlock()

	target, ok := parent.children.Find(base)
	if !ok {
		return newErr("rmdir", path, ENotFound)
	}
	if target.typ != TypeDirectory {
		return newErr("rmdir", path, ENotDirectory)
	}

	target.wlock()

	if target.children.Size() != 2 {
		target.wunlock()
		return newErr("rmdir", path, ENotEmpty)
	}
	if !c.cfg.DeferDestruction && target.openCount > 0 {
		target.wunlock()
		return newErr("rmdir", path, EInvalidArg)
	}

	parent.children.Remove(base)
	target.linkCount = 0
	target.deleting = true
	target.name = ""
	parent.mtime = c.now()

	if errno := c.hooks.dispatch(c, HookRmdir, path, target); errno != 0 {
		target.wunlock()
		return newErr("rmdir", path, errno)
	}

	c.destroyAndFree(path, target)
	return nil
}

// Symlink creates a symlink entry at linkpath whose content is target
// (not resolved at creation time).
func (c *Core) Symlink(target, linkpath string, user, group uint64) error {
	parent, base, errno := c.resolveParent(linkpath, user, group)
	if errno != 0 {
		return newErr("symlink", linkpath, errno)
	}
	defer parent.wunlock()

	if _, exists := parent.children.Find(base); exists {
		return newErr("symlink", linkpath, EExists)
	}

	entry := newEntry(c.allocID(), TypeSymlink, user, group, 0o777, c.now())
	entry.name = base
	entry.linkCount = 1
	entry.target = target
	entry.size = int64(len(target))

	parent.children.Insert(base, entry)
	parent.mtime = c.now()

	return nil
}

// Readlink resolves the parent and looks up the final component
// without following it, returning its target string.
func (c *Core) Readlink(path string, user, group uint64) (string, error) {
	entry, errno := c.resolveNoFollow(path, user, group, lockRead)
	if errno != 0 {
		return "", newErr("readlink", path, errno)
	}
	defer entry.runlock()

	if entry.typ != TypeSymlink {
		return "", newErr("readlink", path, EInvalidArg)
	}
	return entry.target, nil
}

// pathLess implements the global lock-ordering rule for two unrelated
// paths: the lexicographically smaller absolute path is locked first.
func pathLess(a, b string) bool {
	return strings.Compare(a, b) < 0
}

// Rename moves oldPath to newPath, possibly across directories.
// rename(a, a) is a no-op success.
func (c *Core) Rename(oldPath, newPath string, user, group uint64) error {
	if oldPath == newPath {
		return nil
	}

	oldSegs := splitSegments(oldPath)
	newSegs := splitSegments(newPath)
	if len(oldSegs) == 0 || len(newSegs) == 0 {
		return newErr("rename", oldPath, EInvalidArg)
	}
	oldDir := "/" + strings.Join(oldSegs[:len(oldSegs)-1], "/")
	newDir := "/" + strings.Join(newSegs[:len(newSegs)-1], "/")
	oldBase := oldSegs[len(oldSegs)-1]
	newBase := newSegs[len(newSegs)-1]

	var oldParent, newParent *Entry
	var errno Errno

	if oldDir == newDir {
		oldParent, errno = c.resolve(oldDir, user, group, lockWrite)
		if errno != 0 {
			return newErr("rename", oldPath, errno)
		}
		newParent = oldParent
		defer oldParent.wunlock()
	} else if pathLess(oldDir, newDir) {
		oldParent, errno = c.resolve(oldDir, user, group, lockWrite)
		if errno != 0 {
			return newErr("rename", oldPath, errno)
		}
		defer oldParent.wunlock()
		newParent, errno = c.resolve(newDir, user, group, lockWrite)
		if errno != 0 {
			return newErr("rename", oldPath, errno)
		}
		defer newParent.wunlock()
	} else {
		newParent, errno = c.resolve(newDir, user, group, lockWrite)
		if errno != 0 {
			return newErr("rename", oldPath, errno)
		}
		defer newParent.wunlock()
		oldParent, errno = c.resolve(oldDir, user, group, lockWrite)
		if errno != 0 {
			return newErr("rename", oldPath, errno)
		}
		defer oldParent.wunlock()
	}

	if oldParent.typ != TypeDirectory || newParent.typ != TypeDirectory {
		return newErr("rename", oldPath, ENotDirectory)
	}

	moving, ok := oldParent.children.Find(oldBase)
	if !ok {
		return newErr("rename", oldPath, ENotFound)
	}

	existing, existingOK := newParent.children.Find(newBase)
	if existingOK {
		if existing.typ == TypeDirectory {
			existing.rlock()
			nonEmpty := existing.children.Size() != 2
			existing.runlock()
			if nonEmpty {
				return newErr("rename", newPath, ENotEmpty)
			}
			if moving.typ != TypeDirectory {
				return newErr("rename", newPath, EIsDirectory)
			}
		} else if moving.typ == TypeDirectory {
			return newErr("rename", newPath, ENotDirectory)
		}
	}

	// Lock the two terminal entries in the same global order as the
	// parents above: the lexicographically smaller absolute path
	// first. Without this, Rename(A, B) racing Rename(B, A) can lock
	// moving/existing in opposite orders and deadlock.
	if existingOK && pathLess(newPath, oldPath) {
		existing.wlock()
		moving.wlock()
	} else {
		moving.wlock()
		if existingOK {
			existing.wlock()
		}
	}
	defer moving.wunlock()

	oldParent.children.Remove(oldBase)
	if existingOK {
		newParent.children.Remove(newBase)
		existing.linkCount--
		existing.deleting = true
		existing.name = ""
		c.destroyAndFree(newPath, existing)
	}
	newParent.children.Insert(newBase, moving)
	moving.name = newBase

	if moving.typ == TypeDirectory && oldParent != newParent {
		moving.children.Remove("..")
		moving.children.Insert("..", newParent)
	}

	now := c.now()
	oldParent.mtime = now
	newParent.mtime = now

	if errno := c.hooks.dispatch(c, HookRename, newPath, moving); errno != 0 {
		return newErr("rename", newPath, errno)
	}

	return nil
}
