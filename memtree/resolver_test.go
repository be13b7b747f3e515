package memtree

import "testing"

func TestNormalizePathCollapsesSlashesAndTrimsTrailing(t *testing.T) {
	got, errno := normalizePath("/a//b///c/", 4096)
	if errno != 0 {
		t.Fatalf("errno = %v", errno)
	}
	if got != "/a/b/c" {
		t.Fatalf("got %q, want /a/b/c", got)
	}
}

func TestNormalizePathRejectsRelative(t *testing.T) {
	if _, errno := normalizePath("relative/path", 4096); errno != EInvalidArg {
		t.Fatalf("errno = %v, want EInvalidArg", errno)
	}
}

func TestNormalizePathRejectsEmpty(t *testing.T) {
	if _, errno := normalizePath("", 4096); errno != EInvalidArg {
		t.Fatalf("errno = %v, want EInvalidArg", errno)
	}
}

func TestNormalizePathRejectsOverlong(t *testing.T) {
	if _, errno := normalizePath("/"+string(make([]byte, 10)), 5); errno != ENameTooLong {
		t.Fatalf("errno = %v, want ENameTooLong", errno)
	}
}

func TestNormalizePathKeepsBareRoot(t *testing.T) {
	got, errno := normalizePath("/", 4096)
	if errno != 0 || got != "/" {
		t.Fatalf("got %q, errno %v", got, errno)
	}
}

func TestSplitSegments(t *testing.T) {
	segs := splitSegments("/a/b/c")
	if len(segs) != 3 || segs[0] != "a" || segs[1] != "b" || segs[2] != "c" {
		t.Fatalf("segs = %v", segs)
	}
	if segs := splitSegments("/"); len(segs) != 0 {
		t.Fatalf("segs for root = %v, want empty", segs)
	}
}

func TestResolveWalksNestedDirectories(t *testing.T) {
	c := newTestCore(t)
	if err := c.Mkdir("/a", 0, 0, 0o755); err != nil {
		t.Fatalf("Mkdir /a: %v", err)
	}
	if err := c.Mkdir("/a/b", 0, 0, 0o755); err != nil {
		t.Fatalf("Mkdir /a/b: %v", err)
	}
	entry, errno := c.resolve("/a/b", 0, 0, lockRead)
	if errno != 0 {
		t.Fatalf("resolve: %v", errno)
	}
	defer entry.runlock()
	if entry.typ != TypeDirectory {
		t.Fatalf("type = %v, want TypeDirectory", entry.typ)
	}
}

func TestResolveNotFoundIntermediate(t *testing.T) {
	c := newTestCore(t)
	if _, errno := c.resolve("/nope/child", 0, 0, lockRead); errno != ENotFound {
		t.Fatalf("errno = %v, want ENotFound", errno)
	}
}

func TestResolveThroughSymlinkChain(t *testing.T) {
	c := newTestCore(t)
	h, _ := c.Create("/real.txt", 0, 0, 0o644)
	c.Close(h)
	if err := c.Symlink("/real.txt", "/l1", 0, 0); err != nil {
		t.Fatalf("Symlink l1: %v", err)
	}
	if err := c.Symlink("/l1", "/l2", 0, 0); err != nil {
		t.Fatalf("Symlink l2: %v", err)
	}

	entry, errno := c.resolve("/l2", 0, 0, lockRead)
	if errno != 0 {
		t.Fatalf("resolve through chain: %v", errno)
	}
	defer entry.runlock()
	if entry.typ != TypeRegular {
		t.Fatalf("type = %v, want TypeRegular", entry.typ)
	}
}

func TestResolveDetectsSymlinkLoop(t *testing.T) {
	c := newTestCore(t)
	if err := c.Symlink("/b", "/a", 0, 0); err != nil {
		t.Fatalf("Symlink a->b: %v", err)
	}
	if err := c.Symlink("/a", "/b", 0, 0); err != nil {
		t.Fatalf("Symlink b->a: %v", err)
	}

	if _, errno := c.resolve("/a", 0, 0, lockRead); errno != ETooManyLinks {
		t.Fatalf("errno = %v, want ETooManyLinks", errno)
	}
}

// TestResolveTreatsZombieEntryAsNotFound simulates a goroutine that
// found an entry via the child index a moment before a concurrent
// destroy finished flipping it to TypeDead. resolve and readdir must
// treat that state as not-found rather than exposing freed content.
func TestResolveTreatsZombieEntryAsNotFound(t *testing.T) {
	c := newTestCore(t)

	zombie := newEntry(c.allocID(), TypeRegular, 0, 0, 0o644, c.now())
	zombie.name = "zombie"
	zombie.typ = TypeDead

	c.root.wlock()
	c.root.children.Insert("zombie", zombie)
	c.root.wunlock()

	if _, errno := c.resolve("/zombie", 0, 0, lockRead); errno != ENotFound {
		t.Fatalf("resolve errno = %v, want ENotFound", errno)
	}
	if _, errno := c.resolveNoFollow("/zombie", 0, 0, lockRead); errno != ENotFound {
		t.Fatalf("resolveNoFollow errno = %v, want ENotFound", errno)
	}

	handle, err := c.OpenDir("/", 0, 0, nil)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	entries := make([]DirEntry, 8)
	n, _, _, err := c.Readdir(handle, 0, entries)
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	for _, e := range entries[:n] {
		if e.Name == "zombie" {
			t.Fatal("readdir should skip a zombie entry")
		}
	}
}
