package memfs

import (
	"testing"

	"ferrite/kernel/vfs"
)

func TestFileWriteAtGrowsAndReadsBack(t *testing.T) {
	f := NewFile()

	n, err := f.WriteAt(0, []byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("WriteAt = (%d, %v)", n, err)
	}

	buf := make([]byte, 5)
	rn, rerr := f.ReadAt(0, buf)
	if rerr != nil || rn != 5 {
		t.Fatalf("ReadAt = (%d, %v)", rn, rerr)
	}
	if string(buf) != "hello" {
		t.Fatalf("content = %q", buf)
	}
}

func TestFileWriteAtOffsetBeyondEndGrows(t *testing.T) {
	f := NewFile()
	if _, err := f.WriteAt(10, []byte("x")); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if f.Size() != 11 {
		t.Fatalf("Size = %d, want 11", f.Size())
	}
}

func TestFileTruncateShrinksAndGrows(t *testing.T) {
	f := NewFile()
	f.WriteAt(0, []byte("hello world"))

	if err := f.Truncate(5); err != nil {
		t.Fatalf("Truncate(5) failed: %v", err)
	}
	if f.Size() != 5 {
		t.Fatalf("Size = %d, want 5", f.Size())
	}

	if err := f.Truncate(8); err != nil {
		t.Fatalf("Truncate(8) failed: %v", err)
	}
	if f.Size() != 8 {
		t.Fatalf("Size = %d, want 8", f.Size())
	}
}

func TestDirCreateAndLookup(t *testing.T) {
	d := NewDir()

	node, err := d.Create("scratch", vfs.KindFile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if node.Kind != vfs.KindFile {
		t.Fatalf("created node kind = %v, want KindFile", node.Kind)
	}

	found, lerr := d.Lookup("scratch")
	if lerr != nil {
		t.Fatalf("Lookup failed: %v", lerr)
	}
	if found.File == nil {
		t.Fatal("looked-up node has no File handle")
	}
}

func TestDirCreateRejectsDuplicate(t *testing.T) {
	d := NewDir()
	if _, err := d.Create("x", vfs.KindFile); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := d.Create("x", vfs.KindFile); err != vfs.ErrAlreadyExists {
		t.Fatalf("second Create = %v, want ErrAlreadyExists", err)
	}
}

func TestDirChildrenListsCreatedEntries(t *testing.T) {
	d := NewDir()
	d.Create("a", vfs.KindFile)
	d.Create("b", vfs.KindDir)

	children, err := d.Children()
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}
}
