package ext2

import (
	"bytes"
	"encoding/binary"

	"ferrite/kernel"
	"ferrite/kernel/vfs"
)

// Inode type bits, packed into the top nibble of Mode exactly as ext2's
// on-disk i_mode field does.
const (
	typeMask  = 0xF000
	typeFIFO  = 0x1000
	typeChar  = 0x2000
	typeDir   = 0x4000
	typeBlock = 0x6000
	typeFile  = 0x8000
	typeLink  = 0xA000
	typeSock  = 0xC000
)

// onDiskInodeSize is the portion of the 128-byte (or larger) inode record
// this reader decodes; any trailing OS-specific padding bytes are ignored.
const onDiskInodeSize = 128

// Inode is a decoded ext2 on-disk inode, stamped with its own 1-based
// inode number on read.
type Inode struct {
	InodeNum uint32

	Mode       uint16
	UID        uint16
	SizeLo     uint32
	Atime      uint32
	Ctime      uint32
	Mtime      uint32
	Dtime      uint32
	GID        uint16
	LinksCount uint16
	Blocks     uint32
	Flags      uint32

	Direct          [12]uint32
	SinglyIndirect  uint32
	DoublyIndirect  uint32
	TriplyIndirect  uint32

	SizeHi uint32
}

// DecodeInode decodes one inode record from raw, which must be at least
// onDiskInodeSize bytes, and stamps it with num.
func DecodeInode(raw []byte, num uint32) (*Inode, *kernel.Error) {
	if len(raw) < onDiskInodeSize {
		return nil, ErrPrematureEndOfInput
	}

	var onDisk struct {
		Mode       uint16
		UID        uint16
		SizeLo     uint32
		Atime      uint32
		Ctime      uint32
		Mtime      uint32
		Dtime      uint32
		GID        uint16
		LinksCount uint16
		Blocks     uint32
		Flags      uint32
		OSD1       uint32
		Direct     [12]uint32
		Singly     uint32
		Doubly     uint32
		Triply     uint32
		Generation uint32
		FileACL    uint32
		SizeHiOrDirACL uint32
	}

	if err := binary.Read(bytes.NewReader(raw[:onDiskInodeSize]), binary.LittleEndian, &onDisk); err != nil {
		return nil, ErrDecodeError
	}

	inode := &Inode{
		InodeNum:       num,
		Mode:           onDisk.Mode,
		UID:            onDisk.UID,
		SizeLo:         onDisk.SizeLo,
		Atime:          onDisk.Atime,
		Ctime:          onDisk.Ctime,
		Mtime:          onDisk.Mtime,
		Dtime:          onDisk.Dtime,
		GID:            onDisk.GID,
		LinksCount:     onDisk.LinksCount,
		Blocks:         onDisk.Blocks,
		Flags:          onDisk.Flags,
		Direct:         onDisk.Direct,
		SinglyIndirect: onDisk.Singly,
		DoublyIndirect: onDisk.Doubly,
		TriplyIndirect: onDisk.Triply,
	}

	if inode.IsRegular() {
		inode.SizeHi = onDisk.SizeHiOrDirACL
	}

	return inode, nil
}

// Size returns the inode's byte size, combining SizeLo/SizeHi for regular
// files only (directories and other node kinds use the high word for
// unrelated fields, matching the on-disk format's field reuse).
func (i *Inode) Size() uint64 {
	if i.IsRegular() {
		return uint64(i.SizeHi)<<32 | uint64(i.SizeLo)
	}
	return uint64(i.SizeLo)
}

func (i *Inode) IsRegular() bool { return i.Mode&typeMask == typeFile }
func (i *Inode) IsDir() bool     { return i.Mode&typeMask == typeDir }
func (i *Inode) IsSymlink() bool { return i.Mode&typeMask == typeLink }
func (i *Inode) IsCharDevice() bool { return i.Mode&typeMask == typeChar }
func (i *Inode) IsBlockDevice() bool { return i.Mode&typeMask == typeBlock }

// permission bits packed into the low 12 bits of i_mode, standard POSIX
// layout (owner/group/other rwx plus the sticky bit).
const (
	modeOtherExec  = 0x001
	modeOtherWrite = 0x002
	modeOtherRead  = 0x004
	modeGroupExec  = 0x008
	modeGroupWrite = 0x010
	modeGroupRead  = 0x020
	modeOwnerExec  = 0x040
	modeOwnerWrite = 0x080
	modeOwnerRead  = 0x100
	modeSticky     = 0x200
)

// Perm translates the inode's packed POSIX mode bits into vfs.Perm, the
// same rwx-for-owner/group/other-plus-sticky concept
// `original_source/src/io/fs/perm.rs`'s `Permission` bitflags describes,
// repacked here into this tree's own bit order.
func (i *Inode) Perm() vfs.Perm {
	var p vfs.Perm
	mode := i.Mode
	if mode&modeOwnerRead != 0 {
		p |= vfs.PermOwnerRead
	}
	if mode&modeOwnerWrite != 0 {
		p |= vfs.PermOwnerWrite
	}
	if mode&modeOwnerExec != 0 {
		p |= vfs.PermOwnerExec
	}
	if mode&modeGroupRead != 0 {
		p |= vfs.PermGroupRead
	}
	if mode&modeGroupWrite != 0 {
		p |= vfs.PermGroupWrite
	}
	if mode&modeGroupExec != 0 {
		p |= vfs.PermGroupExec
	}
	if mode&modeOtherRead != 0 {
		p |= vfs.PermOtherRead
	}
	if mode&modeOtherWrite != 0 {
		p |= vfs.PermOtherWrite
	}
	if mode&modeOtherExec != 0 {
		p |= vfs.PermOtherExec
	}
	if mode&modeSticky != 0 {
		p |= vfs.PermSticky
	}
	return p
}

// ShortSymlinkTarget returns the symlink target embedded directly in the
// inode's Direct/Singly/Doubly/Triply block-pointer fields, the storage
// ext2 uses for "fast" symlinks whose target fits in 60 bytes. Long-form
// symlinks that spill into an indirect data block are out of scope (spec).
func (i *Inode) ShortSymlinkTarget() string {
	buf := make([]byte, 0, 60)
	for _, word := range i.Direct {
		buf = appendLE32(buf, word)
	}
	buf = appendLE32(buf, i.SinglyIndirect)
	buf = appendLE32(buf, i.DoublyIndirect)
	buf = appendLE32(buf, i.TriplyIndirect)

	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
	}
	return string(buf[:n])
}

func appendLE32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
