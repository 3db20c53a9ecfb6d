package vfs

import "ferrite/kernel"

// memFile is a minimal in-memory IFile used only by this package's own
// tests, exercising FindInode/ReadFileNode/Open/WalkTree against a real
// node implementation without depending on ext2 or tarfs.
type memFile struct {
	data []byte
}

func (f *memFile) Stat() (Stat, *kernel.Error) {
	return Stat{Size: uint64(len(f.data)), Nlink: 1}, nil
}

func (f *memFile) Size() uint64 { return uint64(len(f.data)) }

func (f *memFile) ReadAt(offset uint64, buf []byte) (int, *kernel.Error) {
	if offset >= uint64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[offset:])
	return n, nil
}

func (f *memFile) WriteAt(offset uint64, buf []byte) (int, *kernel.Error) {
	end := offset + uint64(len(buf))
	if end > uint64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[offset:], buf)
	return len(buf), nil
}

func (f *memFile) Truncate(size uint64) *kernel.Error {
	if size <= uint64(len(f.data)) {
		f.data = f.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown
	return nil
}

// memDir is a minimal mutable IDir used only by this package's tests.
type memDir struct {
	children map[string]INode
	order    []string
}

func newMemDir() *memDir {
	return &memDir{children: map[string]INode{}}
}

func (d *memDir) Stat() (Stat, *kernel.Error) { return Stat{Nlink: 1}, nil }

func (d *memDir) Lookup(name string) (INode, *kernel.Error) {
	n, ok := d.children[name]
	if !ok {
		return INode{}, ErrNotFound
	}
	return n, nil
}

func (d *memDir) Create(name string, kind Kind) (INode, *kernel.Error) {
	var node INode
	switch kind {
	case KindFile:
		node = FileNode(&memFile{})
	case KindDir:
		node = DirNode(newMemDir())
	default:
		return INode{}, ErrNotImplemented
	}

	if err := d.Mount(name, node); err != nil {
		return INode{}, err
	}
	return node, nil
}

func (d *memDir) Mount(name string, node INode) *kernel.Error {
	if _, exists := d.children[name]; exists {
		return ErrAlreadyExists
	}
	d.children[name] = node
	d.order = append(d.order, name)
	return nil
}

func (d *memDir) Children() ([]NamedNode, *kernel.Error) {
	out := make([]NamedNode, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, NamedNode{Name: name, Node: d.children[name]})
	}
	return out, nil
}
