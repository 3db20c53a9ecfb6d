package vfs

import "ferrite/kernel"

// Stat describes a node's metadata, mirroring the fields a POSIX-style
// stat(2) call would report.
type Stat struct {
	Dev     uint64
	Inode   uint64
	Rdev    uint64
	Nlink   uint32
	UID     uint32
	GID     uint32
	Size    uint64
	Atime   int64
	Mtime   int64
	Ctime   int64
	BlkSize uint32
	Blocks  uint64
	Perm    Perm
}

// Perm is a nine-bit rwx-for-user/group/other permission set plus a sticky
// bit, packed the same way a POSIX mode_t packs them.
type Perm uint16

const (
	PermOwnerRead Perm = 1 << iota
	PermOwnerWrite
	PermOwnerExec
	PermGroupRead
	PermGroupWrite
	PermGroupExec
	PermOtherRead
	PermOtherWrite
	PermOtherExec
	PermSticky
)

// Kind tags which concrete node type an INode wraps.
type Kind uint8

const (
	KindFile Kind = iota
	KindDir
	KindBlockDevice
	KindCharDevice
)

// IFile is implemented by regular-file nodes (ext2 files, tarfs files,
// devfs nodes like /dev/zero and /dev/null).
type IFile interface {
	Stat() (Stat, *kernel.Error)
	Size() uint64
	ReadAt(offset uint64, buf []byte) (int, *kernel.Error)
	WriteAt(offset uint64, buf []byte) (int, *kernel.Error)
	Truncate(size uint64) *kernel.Error
}

// IDir is implemented by directory nodes. RootDir, ext2 directories, and
// tarfs directories all satisfy this contract.
type IDir interface {
	Stat() (Stat, *kernel.Error)

	// Lookup finds a child by exact name equality.
	Lookup(name string) (INode, *kernel.Error)

	// Create adds a new child of the given kind. Directories that do not
	// support mutation (RootDir, any read-only filesystem's directories)
	// return ErrNotImplemented.
	Create(name string, kind Kind) (INode, *kernel.Error)

	// Mount attaches node as a child of this directory under name.
	// Returns ErrAlreadyExists if name is already present.
	Mount(name string, node INode) *kernel.Error

	// Children returns every direct child, for directory listings and
	// walk_tree.
	Children() ([]NamedNode, *kernel.Error)
}

// IBlockDeviceFile is implemented by a node that exposes a blockdev.Device
// through the VFS (e.g. /dev/ide0).
type IBlockDeviceFile interface {
	Stat() (Stat, *kernel.Error)
	ReadBlock(n uint64, buf []byte) *kernel.Error
	WriteBlock(n uint64, buf []byte) *kernel.Error
	BlockCount() uint64
}

// ICharacterDeviceFile is implemented by unbuffered, streaming device
// nodes (e.g. /dev/serial).
type ICharacterDeviceFile interface {
	Stat() (Stat, *kernel.Error)
	Read(buf []byte) (int, *kernel.Error)
	Write(buf []byte) (int, *kernel.Error)
}

// INode is a tagged union over the four node kinds the VFS tree can hold.
// Exactly one of the four handle fields is non-nil, selected by Kind.
type INode struct {
	Kind Kind

	File  IFile
	Dir   IDir
	Block IBlockDeviceFile
	Char  ICharacterDeviceFile
}

// NamedNode pairs a node with the name it is reachable under from its
// parent directory.
type NamedNode struct {
	Name string
	Node INode
}

// FileNode, DirNode, BlockDeviceNode, and CharDeviceNode wrap a concrete
// node implementation as the corresponding tagged INode variant. Every
// filesystem backend (ext2, tarfs, devfs) builds its tree out of these.
func FileNode(f IFile) INode                { return INode{Kind: KindFile, File: f} }
func DirNode(d IDir) INode                  { return INode{Kind: KindDir, Dir: d} }
func BlockDeviceNode(b IBlockDeviceFile) INode { return INode{Kind: KindBlockDevice, Block: b} }
func CharDeviceNode(c ICharacterDeviceFile) INode { return INode{Kind: KindCharDevice, Char: c} }
