package tarfs

import (
	"ferrite/kernel"
	"ferrite/kernel/vfs"
)

// FileNode adapts an archived regular file (or symlink) to vfs.IFile.
// Writes are rejected: this reader is read-only end to end.
type FileNode struct {
	fs *FileSystem
	e  *entry
}

func (n *FileNode) Stat() (vfs.Stat, *kernel.Error) {
	return vfs.Stat{Size: n.e.size}, nil
}

func (n *FileNode) Size() uint64 { return n.e.size }

func (n *FileNode) ReadAt(offset uint64, buf []byte) (int, *kernel.Error) {
	return n.fs.readAt(n.e, offset, buf)
}

func (n *FileNode) WriteAt(offset uint64, buf []byte) (int, *kernel.Error) {
	return 0, ErrNotImplemented
}

func (n *FileNode) Truncate(size uint64) *kernel.Error {
	return ErrNotImplemented
}

// Target returns a symlink entry's link target. Callers must check
// IsSymlink() first.
func (n *FileNode) Target() string { return n.e.linkname }

func (n *FileNode) IsSymlink() bool { return n.e.typeflag == typeSymlink }

// DirNode adapts an in-memory archive directory to vfs.IDir.
type DirNode struct {
	fs  *FileSystem
	dir *dirNode
}

func (n *DirNode) Stat() (vfs.Stat, *kernel.Error) {
	return vfs.Stat{}, nil
}

func (n *DirNode) Lookup(name string) (vfs.INode, *kernel.Error) {
	child, ok := n.dir.children[name]
	if !ok {
		return vfs.INode{}, ErrNotFound
	}
	return wrap(n.fs, child), nil
}

func (n *DirNode) Create(name string, kind vfs.Kind) (vfs.INode, *kernel.Error) {
	return vfs.INode{}, ErrNotImplemented
}

func (n *DirNode) Mount(name string, node vfs.INode) *kernel.Error {
	return ErrNotImplemented
}

func (n *DirNode) Children() ([]vfs.NamedNode, *kernel.Error) {
	out := make([]vfs.NamedNode, 0, len(n.dir.order))
	for _, name := range n.dir.order {
		out = append(out, vfs.NamedNode{Name: name, Node: wrap(n.fs, n.dir.children[name])})
	}
	return out, nil
}

// wrap adapts a treeNode to the matching vfs.INode variant.
func wrap(fs *FileSystem, t *treeNode) vfs.INode {
	if t.isDir {
		return vfs.DirNode(&DirNode{fs: fs, dir: t.dir})
	}
	return vfs.FileNode(&FileNode{fs: fs, e: t.file})
}

// Root returns the archive's top-level directory as a mountable vfs.INode.
func (fs *FileSystem) Root() vfs.INode {
	return vfs.DirNode(&DirNode{fs: fs, dir: fs.root})
}
