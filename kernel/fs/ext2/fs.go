package ext2

import (
	"ferrite/kernel"
	"ferrite/kernel/blockdev"
)

// FileSystem is a mounted, read-only ext2 volume. It owns the decoded
// superblock and BGDT and resolves inode numbers and block pointers
// against the underlying block reader (typically a blockcache.Cache
// wrapping a blockdev.Device, though FileSystem only needs the narrower
// ReadAt contract).
type FileSystem struct {
	dev blockdev.Device
	sb  *Superblock
	bgdt []GroupDescriptor

	blockSize uint32
}

// Mount reads the superblock and BGDT off dev and returns a FileSystem
// ready to serve ReadInode/directory/read_at calls.
func Mount(dev blockdev.Device) (*FileSystem, *kernel.Error) {
	sector := make([]byte, SuperblockSize)
	if err := blockdev.ReadAt(dev, SuperblockOffset, sector); err != nil {
		return nil, err
	}

	sb, err := DecodeSuperblock(sector)
	if err != nil {
		return nil, err
	}

	groupCount, err := sb.GroupCount()
	if err != nil {
		return nil, err
	}

	bgdtRaw := make([]byte, int(groupCount)*groupDescSize)
	if err := blockdev.ReadAt(dev, bgdtOffset, bgdtRaw); err != nil {
		return nil, err
	}

	bgdt, err := DecodeBGDT(bgdtRaw, groupCount)
	if err != nil {
		return nil, err
	}

	return &FileSystem{dev: dev, sb: sb, bgdt: bgdt, blockSize: sb.BlockSize()}, nil
}

// blockToByte converts a block number to its byte offset on the volume.
func (fs *FileSystem) blockToByte(block uint32) uint64 {
	return uint64(block) * uint64(fs.blockSize)
}

// ReadInode resolves a 1-based inode address to its decoded Inode.
func (fs *FileSystem) ReadInode(addr uint32) (*Inode, *kernel.Error) {
	if addr == 0 {
		return nil, ErrInvalidArgument
	}

	group := (addr - 1) / fs.sb.InodesPerGroup
	index := (addr - 1) % fs.sb.InodesPerGroup
	if int(group) >= len(fs.bgdt) {
		return nil, ErrNotFound
	}

	inodeSize := uint64(fs.sb.InodeSizeOrDefault())
	offset := fs.blockToByte(fs.bgdt[group].InodeTableStart) + uint64(index)*inodeSize

	raw := make([]byte, inodeSize)
	if err := blockdev.ReadAt(fs.dev, offset, raw); err != nil {
		return nil, err
	}

	return DecodeInode(raw, addr)
}

// readBlock reads one filesystem block (fs.blockSize bytes) at the given
// block number.
func (fs *FileSystem) readBlock(blockNum uint32, buf []byte) *kernel.Error {
	if blockNum == 0 {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	return blockdev.ReadAt(fs.dev, fs.blockToByte(blockNum), buf)
}

// ListDir decodes every directory record reachable from inode's direct
// block pointers, in directory order. Per this design, a directory whose
// entries spill into an indirect block is an invariant violation: ext2
// directories over the (12 * block_size) inline-only boundary are not
// supported by this reader, and encountering one panics rather than
// silently truncating the listing.
func (fs *FileSystem) ListDir(inode *Inode) []DirEntry {
	if inode.SinglyIndirect != 0 || inode.DoublyIndirect != 0 || inode.TriplyIndirect != 0 {
		kernel.Panic("ext2: directory listing requires an indirect block, which this reader does not support")
	}

	var entries []DirEntry
	block := make([]byte, fs.blockSize)

	for _, ptr := range inode.Direct {
		if ptr == 0 {
			continue
		}
		if err := fs.readBlock(ptr, block); err != nil {
			continue
		}
		entries = append(entries, DecodeDirEntries(block)...)
	}

	return entries
}

// blockPointerCount is P in spec.md's read_at block-resolution formula:
// the number of 32-bit block pointers that fit in one indirect block.
func (fs *FileSystem) blockPointerCount() uint32 {
	return fs.blockSize / 4
}

// resolveBlock maps a logical block index within a file to its physical
// block number, per the direct/single/double/triple-indirect layout.
// Double and triple indirect resolution is intentionally unimplemented:
// it returns ErrNotImplemented cleanly rather than guessing at semantics
// spec.md leaves as an open question.
func (fs *FileSystem) resolveBlock(inode *Inode, index uint32) (uint32, *kernel.Error) {
	p := fs.blockPointerCount()

	switch {
	case index < 12:
		return inode.Direct[index], nil

	case index < p:
		if inode.SinglyIndirect == 0 {
			return 0, nil
		}
		ptrs := make([]byte, fs.blockSize)
		if err := fs.readBlock(inode.SinglyIndirect, ptrs); err != nil {
			return 0, err
		}
		return le32(ptrs, index-12), nil

	default:
		return 0, ErrNotImplemented
	}
}

func le32(buf []byte, index uint32) uint32 {
	off := index * 4
	return uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
}

// ReadAt reads len(buf) bytes of inode's file contents starting at byte
// offset off, resolving each touched logical block to a physical block
// number and copying the relevant slice out of a staging buffer.
func (fs *FileSystem) ReadAt(inode *Inode, off uint64, buf []byte) (int, *kernel.Error) {
	if len(buf) == 0 {
		return 0, nil
	}

	size := inode.Size()
	if off >= size {
		return 0, nil
	}
	if off+uint64(len(buf)) > size {
		buf = buf[:size-off]
	}

	staging := make([]byte, fs.blockSize)
	total := 0

	for total < len(buf) {
		pos := off + uint64(total)
		blockIndex := uint32(pos / uint64(fs.blockSize))
		rel := uint32(pos % uint64(fs.blockSize))

		physBlock, err := fs.resolveBlock(inode, blockIndex)
		if err != nil {
			return total, err
		}

		if err := fs.readBlock(physBlock, staging); err != nil {
			return total, err
		}

		n := copy(buf[total:], staging[rel:])
		total += n
	}

	return total, nil
}
