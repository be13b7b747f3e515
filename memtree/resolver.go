package memtree

import (
	"strings"

	"inmemfs/internal/logging"
)

var resolverLogger = logging.GetLogger().WithPrefix("resolver")

// lockMode selects which lock resolve() takes on the terminal entry.
type lockMode int

const (
	lockRead lockMode = iota
	lockWrite
)

// normalizePath collapses runs of '/', strips a trailing '/' (except
// for the root path itself), and rejects overlong paths. It does not
// resolve "." or ".." components textually — those are handled by the
// walk itself via the child index, exactly as the original resolver
// does, so that a "logical .." always reflects the live tree rather
// than a textual rewrite.
func normalizePath(path string, maxLen int) (string, Errno) {
	if path == "" {
		return "", EInvalidArg
	}
	if len(path) > maxLen {
		return "", ENameTooLong
	}
	if path[0] != '/' {
		return "", EInvalidArg
	}

	var b strings.Builder
	b.Grow(len(path))
	lastWasSlash := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if lastWasSlash {
				continue
			}
			lastWasSlash = true
			b.WriteByte(c)
			continue
		}
		lastWasSlash = false
		b.WriteByte(c)
	}
	normalized := b.String()
	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized, 0
}

// splitSegments turns a normalized absolute path into its non-empty
// components. "/" yields no segments.
func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// resolve walks path under the locking discipline described in the
// specification, returning the terminal entry locked according to
// mode. The caller is responsible for unlocking it. It never holds
// two entry locks at once except for the momentary hand-over between
// an intermediate segment's current directory and its child.
func (c *Core) resolve(path string, user, group uint64, mode lockMode) (*Entry, Errno) {
	normalized, errno := normalizePath(path, c.cfg.MaxPathLength)
	if errno != 0 {
		return nil, errno
	}

	segments := splitSegments(normalized)
	current := c.root
	current.rlock()

	chases := 0
	for len(segments) > 0 {
		seg := segments[0]
		segments = segments[1:]
		last := len(segments) == 0

		if current.typ != TypeDirectory {
			current.runlock()
			return nil, ENotDirectory
		}

		child, ok := current.children.Find(seg)
		if !ok {
			current.runlock()
			return nil, ENotFound
		}

		if !last {
			if !current.canExecute(user, group) {
				current.runlock()
				return nil, EAccessDenied
			}
		}

		// A symlink is followed whether or not it's the terminal
		// component: resolve() always returns the entry a path
		// ultimately names, never the link itself. resolveNoFollow
		// exists precisely for callers (readlink, lstat) that want the
		// link entry.
		if child.typ == TypeSymlink {
			child.rlock()
			target := child.target
			child.runlock()

			chases++
			if chases > c.cfg.SymlinkChaseLimit {
				current.runlock()
				return nil, ETooManyLinks
			}

			if strings.HasPrefix(target, "/") {
				targetNorm, nerr := normalizePath(target, c.cfg.MaxPathLength)
				if nerr != 0 {
					current.runlock()
					return nil, nerr
				}
				segments = append(splitSegments(targetNorm), segments...)
				current.runlock()
				current = c.root
				current.rlock()
			} else {
				segments = append(splitSegments(target), segments...)
			}
			continue
		}

		if last {
			// Terminal segment: lock it at the requested mode before
			// releasing the parent, hand-over-hand.
			if mode == lockWrite {
				child.wlock()
			} else {
				child.rlock()
			}
			current.runlock()
			// A goroutine that found this entry via Find just before a
			// concurrent destroy finished flipping its type is holding
			// a stale reference; treat the zombie as not-found rather
			// than handing back an entry with freed content/children.
			if child.typ == TypeDead {
				if mode == lockWrite {
					child.wunlock()
				} else {
					child.runlock()
				}
				return nil, ENotFound
			}
			return child, 0
		}

		// Intermediate, non-symlink segment: hand over the lock.
		child.rlock()
		if child.typ == TypeDead {
			child.runlock()
			current.runlock()
			return nil, ENotFound
		}
		current.runlock()
		current = child
	}

	// Zero segments: path was "/". Lock the root itself.
	if mode == lockWrite {
		current.runlock()
		current.wlock()
	}
	return current, 0
}

// resolveParent resolves the parent directory of path (write-locked)
// and returns it along with the final path component. It is the
// entry point used by every operation that mutates a directory's
// child index.
func (c *Core) resolveParent(path string, user, group uint64) (parent *Entry, base string, errno Errno) {
	normalized, errno := normalizePath(path, c.cfg.MaxPathLength)
	if errno != 0 {
		return nil, "", errno
	}
	segments := splitSegments(normalized)
	if len(segments) == 0 {
		return nil, "", EInvalidArg
	}
	base = segments[len(segments)-1]
	dirPath := "/" + strings.Join(segments[:len(segments)-1], "/")

	parent, errno = c.resolve(dirPath, user, group, lockWrite)
	if errno != 0 {
		return nil, "", errno
	}
	if parent.typ != TypeDirectory {
		parent.wunlock()
		return nil, "", ENotDirectory
	}
	return parent, base, 0
}

// resolveNoFollow behaves like resolve but does not substitute a
// terminal symlink's target — used by readlink and lstat-style
// callers that want the symlink entry itself.
func (c *Core) resolveNoFollow(path string, user, group uint64, mode lockMode) (*Entry, Errno) {
	normalized, errno := normalizePath(path, c.cfg.MaxPathLength)
	if errno != 0 {
		return nil, errno
	}
	segments := splitSegments(normalized)
	if len(segments) == 0 {
		if mode == lockWrite {
			c.root.wlock()
		} else {
			c.root.rlock()
		}
		return c.root, 0
	}

	dirPath := "/" + strings.Join(segments[:len(segments)-1], "/")
	parent, errno := c.resolve(dirPath, user, group, lockRead)
	if errno != 0 {
		return nil, errno
	}
	if parent.typ != TypeDirectory {
		parent.runlock()
		return nil, ENotDirectory
	}
	base := segments[len(segments)-1]
	child, ok := parent.children.Find(base)
	if !ok {
		parent.runlock()
		return nil, ENotFound
	}
	if mode == lockWrite {
		child.wlock()
	} else {
		child.rlock()
	}
	parent.runlock()
	if child.typ == TypeDead {
		if mode == lockWrite {
			child.wunlock()
		} else {
			child.runlock()
		}
		return nil, ENotFound
	}
	return child, 0
}
