// Package devfs supplies the virtual device nodes the post-init path tree
// mounts under /dev: /dev/zero, /dev/null, /dev/serial, and (via memfs)
// /dev/mem. None of these back onto a real block device; each is a small
// IFile/ICharacterDeviceFile implementation over kernel state or hardware
// I/O ports.
package devfs

import (
	"ferrite/kernel"
	"ferrite/kernel/vfs"
)

// ZeroFile backs /dev/zero: every read returns zero bytes, writes are
// accepted and discarded.
type ZeroFile struct{}

func (ZeroFile) Stat() (vfs.Stat, *kernel.Error) { return vfs.Stat{}, nil }
func (ZeroFile) Size() uint64                    { return 0 }

func (ZeroFile) ReadAt(offset uint64, buf []byte) (int, *kernel.Error) {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}

func (ZeroFile) WriteAt(offset uint64, buf []byte) (int, *kernel.Error) {
	return len(buf), nil
}

func (ZeroFile) Truncate(size uint64) *kernel.Error { return nil }

// NullFile backs /dev/null: reads always return zero bytes (immediate
// EOF), writes are accepted, discarded, and report the full length
// written.
type NullFile struct{}

func (NullFile) Stat() (vfs.Stat, *kernel.Error) { return vfs.Stat{}, nil }
func (NullFile) Size() uint64                    { return 0 }

func (NullFile) ReadAt(offset uint64, buf []byte) (int, *kernel.Error) {
	return 0, nil
}

func (NullFile) WriteAt(offset uint64, buf []byte) (int, *kernel.Error) {
	return len(buf), nil
}

func (NullFile) Truncate(size uint64) *kernel.Error { return nil }

// serialPort is the subset of *serial.Port devfs needs, kept narrow so
// this package does not have to import the device package directly in
// its node type (the init sequence wires the concrete port in).
type serialPort interface {
	Read(buf []byte) (int, *kernel.Error)
	Write(buf []byte) (int, *kernel.Error)
}

// SerialFile backs /dev/serial as a streaming character device over a
// UART port.
type SerialFile struct {
	port serialPort
}

// NewSerialFile wraps port as a /dev/serial node.
func NewSerialFile(port serialPort) *SerialFile {
	return &SerialFile{port: port}
}

func (s *SerialFile) Stat() (vfs.Stat, *kernel.Error) { return vfs.Stat{}, nil }

func (s *SerialFile) Read(buf []byte) (int, *kernel.Error) { return s.port.Read(buf) }

func (s *SerialFile) Write(buf []byte) (int, *kernel.Error) { return s.port.Write(buf) }

// Tree builds the /dev directory's standard contents (zero, null,
// serial) as a ready-to-mount vfs.IDir.
func Tree(port serialPort) vfs.IDir {
	dir := &staticDir{children: map[string]vfs.INode{
		"zero": vfs.FileNode(ZeroFile{}),
		"null": vfs.FileNode(NullFile{}),
	}}
	if port != nil {
		dir.children["serial"] = vfs.CharDeviceNode(NewSerialFile(port))
	}
	dir.order = []string{"zero", "null", "serial"}
	return dir
}

// staticDir is devfs's directory of pre-built nodes. Create is not
// supported; Mount adds a child, and children are never removed.
type staticDir struct {
	children map[string]vfs.INode
	order    []string
}

func (d *staticDir) Stat() (vfs.Stat, *kernel.Error) { return vfs.Stat{}, nil }

func (d *staticDir) Lookup(name string) (vfs.INode, *kernel.Error) {
	n, ok := d.children[name]
	if !ok {
		return vfs.INode{}, vfs.ErrNotFound
	}
	return n, nil
}

func (d *staticDir) Create(name string, kind vfs.Kind) (vfs.INode, *kernel.Error) {
	return vfs.INode{}, vfs.ErrNotImplemented
}

func (d *staticDir) Mount(name string, node vfs.INode) *kernel.Error {
	if _, exists := d.children[name]; exists {
		return vfs.ErrAlreadyExists
	}
	d.children[name] = node
	d.order = append(d.order, name)
	return nil
}

func (d *staticDir) Children() ([]vfs.NamedNode, *kernel.Error) {
	out := make([]vfs.NamedNode, 0, len(d.order))
	for _, name := range d.order {
		if n, ok := d.children[name]; ok {
			out = append(out, vfs.NamedNode{Name: name, Node: n})
		}
	}
	return out, nil
}
