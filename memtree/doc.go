// Package memtree implements a concurrent, in-memory filesystem tree:
// entries, path resolution, open handles, and user-callback dispatch,
// with POSIX-style semantics but no backing block device.
//
// A Core owns a root Entry and is safe for concurrent use by many
// goroutines. Entries are locked individually; operations that touch
// more than one entry always acquire locks in a fixed order (parent
// before child, or lexicographically-smaller-path first for unrelated
// entries) to avoid deadlock.
package memtree
