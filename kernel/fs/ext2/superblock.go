// Package ext2 implements a read-only ext2 filesystem reader: superblock
// and block-group descriptor table decode, inode lookup, directory listing
// and file read_at, wired into the kernel's IDir/IFile node contract.
package ext2

import (
	"bytes"
	"encoding/binary"

	"ferrite/kernel"
)

// Magic is the ext2 superblock magic number.
const Magic = 0xEF53

// SuperblockOffset and SuperblockSize are the fixed byte offset and size
// of the superblock on every ext2 volume.
const (
	SuperblockOffset = 1024
	SuperblockSize   = 1024
)

var (
	ErrInvalidMagicNumber  = &kernel.Error{Module: "ext2", Message: "invalid ext2 superblock magic"}
	ErrDecodeError         = &kernel.Error{Module: "ext2", Message: "ext2 decode error"}
	ErrPrematureEndOfInput = &kernel.Error{Module: "ext2", Message: "premature end of input"}
	ErrNotFound            = &kernel.Error{Module: "ext2", Message: "no such inode or directory entry"}
	ErrNotImplemented      = &kernel.Error{Module: "ext2", Message: "not implemented"}
	ErrInvalidArgument     = &kernel.Error{Module: "ext2", Message: "invalid argument"}
	ErrIsDir               = &kernel.Error{Module: "ext2", Message: "is a directory"}
)

// Superblock is the base 84-byte ext2 superblock layout (revision 0),
// followed by the extended fields present when RevLevel >= 1. Field
// layout and naming follow the same byte offsets as ext4's superblock
// (ext2 is exactly the prefix of that layout this reader needs), per
// other_examples/.../go-ext4/superblock.go.
type Superblock struct {
	InodesCount     uint32
	BlocksCountLo   uint32
	RBlocksCountLo  uint32
	FreeBlocksCount uint32

	FreeInodesCount uint32
	FirstDataBlock  uint32
	LogBlockSize    uint32
	LogFragSize     uint32

	BlocksPerGroup uint32
	FragsPerGroup  uint32
	InodesPerGroup uint32
	Mtime          uint32

	Wtime         uint32
	MntCount      uint16
	MaxMntCount   uint16
	Magic         uint16
	State         uint16
	Errors        uint16
	MinorRevLevel uint16

	Lastcheck     uint32
	CheckInterval uint32
	CreatorOS     uint32
	RevLevel      uint32

	DefResuid uint16
	DefResgid uint16

	// Extended fields, valid only when RevLevel >= 1 (HasExtended()).
	FirstIno       uint32
	InodeSize      uint16
	BlockGroupNr   uint16
	FeatureCompat  uint32
	FeatureIncompat uint32
	FeatureRoCompat uint32
}

// baseSuperblockSize is the byte length of the revision-0 fields (through
// DefResgid); binary.Read stops there for volumes that don't report
// RevLevel >= 1.
const baseSuperblockSize = 0x54

// DecodeSuperblock decodes a 1024-byte superblock sector. Only the base
// fields are populated unless the decoded RevLevel indicates dynamic
// (extended) fields are present, matching the on-disk contract that a
// revision-0 volume may not even have written bytes beyond offset 0x54.
func DecodeSuperblock(sector []byte) (*Superblock, *kernel.Error) {
	if len(sector) < baseSuperblockSize {
		return nil, ErrDecodeError
	}

	sb := new(Superblock)

	// binary.Read walks a pointer-to-struct's fields in declaration
	// order, so an anonymous struct matching the base layout's field
	// order decodes the whole revision-0 region in one call.
	base := struct {
		InodesCount     uint32
		BlocksCountLo   uint32
		RBlocksCountLo  uint32
		FreeBlocksCount uint32
		FreeInodesCount uint32
		FirstDataBlock  uint32
		LogBlockSize    uint32
		LogFragSize     uint32
		BlocksPerGroup  uint32
		FragsPerGroup   uint32
		InodesPerGroup  uint32
		Mtime           uint32
		Wtime           uint32
		MntCount        uint16
		MaxMntCount     uint16
		Magic           uint16
		State           uint16
		Errors          uint16
		MinorRevLevel   uint16
		Lastcheck       uint32
		CheckInterval   uint32
		CreatorOS       uint32
		RevLevel        uint32
		DefResuid       uint16
		DefResgid       uint16
	}{}

	if err := binary.Read(bytes.NewReader(sector[:baseSuperblockSize]), binary.LittleEndian, &base); err != nil {
		return nil, ErrDecodeError
	}

	sb.InodesCount = base.InodesCount
	sb.BlocksCountLo = base.BlocksCountLo
	sb.RBlocksCountLo = base.RBlocksCountLo
	sb.FreeBlocksCount = base.FreeBlocksCount
	sb.FreeInodesCount = base.FreeInodesCount
	sb.FirstDataBlock = base.FirstDataBlock
	sb.LogBlockSize = base.LogBlockSize
	sb.LogFragSize = base.LogFragSize
	sb.BlocksPerGroup = base.BlocksPerGroup
	sb.FragsPerGroup = base.FragsPerGroup
	sb.InodesPerGroup = base.InodesPerGroup
	sb.Mtime = base.Mtime
	sb.Wtime = base.Wtime
	sb.MntCount = base.MntCount
	sb.MaxMntCount = base.MaxMntCount
	sb.Magic = base.Magic
	sb.State = base.State
	sb.Errors = base.Errors
	sb.MinorRevLevel = base.MinorRevLevel
	sb.Lastcheck = base.Lastcheck
	sb.CheckInterval = base.CheckInterval
	sb.CreatorOS = base.CreatorOS
	sb.RevLevel = base.RevLevel
	sb.DefResuid = base.DefResuid
	sb.DefResgid = base.DefResgid

	if sb.Magic != Magic {
		return nil, ErrInvalidMagicNumber
	}

	if sb.HasExtended() && len(sector) >= 0x64 {
		var ext struct {
			FirstIno        uint32
			InodeSize       uint16
			BlockGroupNr    uint16
			FeatureCompat   uint32
			FeatureIncompat uint32
			FeatureRoCompat uint32
		}
		if err := binary.Read(bytes.NewReader(sector[baseSuperblockSize:0x64]), binary.LittleEndian, &ext); err == nil {
			sb.FirstIno = ext.FirstIno
			sb.InodeSize = ext.InodeSize
			sb.BlockGroupNr = ext.BlockGroupNr
			sb.FeatureCompat = ext.FeatureCompat
			sb.FeatureIncompat = ext.FeatureIncompat
			sb.FeatureRoCompat = ext.FeatureRoCompat
		}
	}

	return sb, nil
}

// HasExtended reports whether the superblock carries the dynamic-revision
// extended fields (s_first_ino, s_inode_size, feature flags).
func (sb *Superblock) HasExtended() bool {
	return sb.RevLevel >= 1
}

// BlockSize returns the filesystem's block size in bytes: 1024 <<
// LogBlockSize.
func (sb *Superblock) BlockSize() uint32 {
	return 1024 << sb.LogBlockSize
}

// InodeSizeOrDefault returns the on-disk inode record size: the extended
// field when present, or the fixed 128-byte revision-0 size otherwise.
func (sb *Superblock) InodeSizeOrDefault() uint16 {
	if sb.HasExtended() && sb.InodeSize != 0 {
		return sb.InodeSize
	}
	return 128
}

// GroupCount returns the number of block groups, computed from both the
// block and inode counts; a mismatch between the two indicates a
// corrupt or unsupported volume.
func (sb *Superblock) GroupCount() (uint32, *kernel.Error) {
	byBlocks := ceilDiv(sb.BlocksCountLo, sb.BlocksPerGroup)
	byInodes := ceilDiv(sb.InodesCount, sb.InodesPerGroup)
	if byBlocks != byInodes {
		return 0, ErrDecodeError
	}
	return byBlocks, nil
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
