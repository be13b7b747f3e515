package memtree

import "time"

// Clock supplies the current time to entries that need to stamp
// ctime/mtime/atime. If a Core is constructed without one, timestamps
// are always the zero time, matching the external interface's
// contract: "if no clock hook is registered, timestamps are zero."
type Clock interface {
	Now() time.Time
}

// zeroClock is the default Clock: it never advances.
type zeroClock struct{}

func (zeroClock) Now() time.Time { return time.Time{} }

// SystemClock returns a Clock backed by the host's wall clock. Callers
// that want real timestamps register this explicitly; the core never
// assumes it.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
