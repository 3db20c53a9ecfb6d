// Package memfs implements a writable, in-memory scratch filesystem. It
// backs /dev/mem and any other mount point that needs a mutable tree
// without a block device underneath it (unlike ext2/tarfs, which are both
// read-only).
package memfs

import (
	"ferrite/kernel"
	"ferrite/kernel/sync"
	"ferrite/kernel/vfs"
)

// File is a growable, writable in-memory file.
type File struct {
	lock sync.Spinlock
	data []byte
}

// NewFile returns an empty File.
func NewFile() *File {
	return &File{}
}

func (f *File) Stat() (vfs.Stat, *kernel.Error) {
	f.lock.Acquire()
	defer f.lock.Release()
	return vfs.Stat{Size: uint64(len(f.data))}, nil
}

func (f *File) Size() uint64 {
	f.lock.Acquire()
	defer f.lock.Release()
	return uint64(len(f.data))
}

func (f *File) ReadAt(offset uint64, buf []byte) (int, *kernel.Error) {
	f.lock.Acquire()
	defer f.lock.Release()

	if offset >= uint64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[offset:])
	return n, nil
}

func (f *File) WriteAt(offset uint64, buf []byte) (int, *kernel.Error) {
	f.lock.Acquire()
	defer f.lock.Release()

	end := offset + uint64(len(buf))
	if end > uint64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	n := copy(f.data[offset:], buf)
	return n, nil
}

func (f *File) Truncate(size uint64) *kernel.Error {
	f.lock.Acquire()
	defer f.lock.Release()

	if size <= uint64(len(f.data)) {
		f.data = f.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown
	return nil
}

// Dir is a mutable in-memory directory supporting Create and Mount,
// unlike vfs.RootDir (mount-only) and the read-only ext2/tarfs
// directories.
type Dir struct {
	lock     sync.Spinlock
	children map[string]vfs.INode
	order    []string
}

// NewDir returns an empty Dir.
func NewDir() *Dir {
	return &Dir{children: map[string]vfs.INode{}}
}

func (d *Dir) Stat() (vfs.Stat, *kernel.Error) { return vfs.Stat{}, nil }

func (d *Dir) Lookup(name string) (vfs.INode, *kernel.Error) {
	d.lock.Acquire()
	defer d.lock.Release()

	n, ok := d.children[name]
	if !ok {
		return vfs.INode{}, vfs.ErrNotFound
	}
	return n, nil
}

func (d *Dir) Create(name string, kind vfs.Kind) (vfs.INode, *kernel.Error) {
	d.lock.Acquire()
	defer d.lock.Release()

	if _, exists := d.children[name]; exists {
		return vfs.INode{}, vfs.ErrAlreadyExists
	}

	var node vfs.INode
	switch kind {
	case vfs.KindFile:
		node = vfs.FileNode(NewFile())
	case vfs.KindDir:
		node = vfs.DirNode(NewDir())
	default:
		return vfs.INode{}, vfs.ErrNotImplemented
	}

	d.children[name] = node
	d.order = append(d.order, name)
	return node, nil
}

func (d *Dir) Mount(name string, node vfs.INode) *kernel.Error {
	d.lock.Acquire()
	defer d.lock.Release()

	if _, exists := d.children[name]; exists {
		return vfs.ErrAlreadyExists
	}
	d.children[name] = node
	d.order = append(d.order, name)
	return nil
}

func (d *Dir) Children() ([]vfs.NamedNode, *kernel.Error) {
	d.lock.Acquire()
	defer d.lock.Release()

	out := make([]vfs.NamedNode, 0, len(d.order))
	for _, name := range d.order {
		if n, ok := d.children[name]; ok {
			out = append(out, vfs.NamedNode{Name: name, Node: n})
		}
	}
	return out, nil
}
