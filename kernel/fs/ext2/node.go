package ext2

import (
	"ferrite/kernel"
	"ferrite/kernel/vfs"
)

// FileNode adapts a regular-file inode to vfs.IFile. Writes are rejected:
// this reader is read-only end to end.
type FileNode struct {
	fs    *FileSystem
	inode *Inode
}

func (n *FileNode) Stat() (vfs.Stat, *kernel.Error) {
	return vfs.Stat{
		Inode:  uint64(n.inode.InodeNum),
		Nlink:  uint32(n.inode.LinksCount),
		UID:    uint32(n.inode.UID),
		GID:    uint32(n.inode.GID),
		Size:   n.inode.Size(),
		Atime:  int64(n.inode.Atime),
		Mtime:  int64(n.inode.Mtime),
		Ctime:  int64(n.inode.Ctime),
		Blocks: uint64(n.inode.Blocks),
		Perm:   n.inode.Perm(),
	}, nil
}

func (n *FileNode) Size() uint64 { return n.inode.Size() }

func (n *FileNode) ReadAt(offset uint64, buf []byte) (int, *kernel.Error) {
	got, err := n.fs.ReadAt(n.inode, offset, buf)
	return got, err
}

func (n *FileNode) WriteAt(offset uint64, buf []byte) (int, *kernel.Error) {
	return 0, ErrNotImplemented
}

func (n *FileNode) Truncate(size uint64) *kernel.Error {
	return ErrNotImplemented
}

// Target returns the symlink's destination path. Callers must check
// inode.IsSymlink() before calling; it is meaningless otherwise.
func (n *FileNode) Target() string {
	return n.inode.ShortSymlinkTarget()
}

// DirNode adapts a directory inode to vfs.IDir.
type DirNode struct {
	fs    *FileSystem
	inode *Inode
}

func (n *DirNode) Stat() (vfs.Stat, *kernel.Error) {
	return vfs.Stat{
		Inode: uint64(n.inode.InodeNum),
		Nlink: uint32(n.inode.LinksCount),
		UID:   uint32(n.inode.UID),
		GID:   uint32(n.inode.GID),
		Size:  n.inode.Size(),
		Perm:  n.inode.Perm(),
	}, nil
}

func (n *DirNode) Lookup(name string) (vfs.INode, *kernel.Error) {
	for _, ent := range n.fs.ListDir(n.inode) {
		if ent.Name == name {
			return n.fs.nodeForInode(ent.Inode)
		}
	}
	return vfs.INode{}, ErrNotFound
}

func (n *DirNode) Create(name string, kind vfs.Kind) (vfs.INode, *kernel.Error) {
	return vfs.INode{}, ErrNotImplemented
}

func (n *DirNode) Mount(name string, node vfs.INode) *kernel.Error {
	return ErrNotImplemented
}

func (n *DirNode) Children() ([]vfs.NamedNode, *kernel.Error) {
	entries := n.fs.ListDir(n.inode)
	out := make([]vfs.NamedNode, 0, len(entries))
	for _, ent := range entries {
		if ent.Name == "." || ent.Name == ".." {
			continue
		}
		node, err := n.fs.nodeForInode(ent.Inode)
		if err != nil {
			continue
		}
		out = append(out, vfs.NamedNode{Name: ent.Name, Node: node})
	}
	return out, nil
}

// nodeForInode reads addr's inode and wraps it as the matching vfs.INode
// variant: a directory becomes a DirNode, and every other inode kind
// (regular file, symlink, device node) becomes a FileNode.
func (fs *FileSystem) nodeForInode(addr uint32) (vfs.INode, *kernel.Error) {
	inode, err := fs.ReadInode(addr)
	if err != nil {
		return vfs.INode{}, err
	}

	if inode.IsDir() {
		return vfs.DirNode(&DirNode{fs: fs, inode: inode}), nil
	}
	return vfs.FileNode(&FileNode{fs: fs, inode: inode}), nil
}

// rootInodeNum is ext2's well-known root directory inode number.
const rootInodeNum = 2

// Root returns the volume's root directory as a mountable vfs.INode.
func (fs *FileSystem) Root() (vfs.INode, *kernel.Error) {
	return fs.nodeForInode(rootInodeNum)
}
