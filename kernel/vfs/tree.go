package vfs

import "ferrite/kernel"

// Tree is a unified VFS over a RootDir. All of its methods correspond
// directly to the operations spec.md §4.5 names.
type Tree struct {
	root *RootDir
}

// NewTree wraps root as a navigable Tree.
func NewTree(root *RootDir) *Tree {
	return &Tree{root: root}
}

// Root returns the tree's root node as an INode, for code that needs to
// pass it somewhere generic (e.g. WalkTree's own recursion).
func (t *Tree) Root() INode {
	return DirNode(t.root)
}

// FindInode resolves raw to the INode it names. Canonicalization happens
// first; relative and empty paths are rejected with ErrNotFound before any
// tree walk begins.
func (t *Tree) FindInode(raw string) (INode, *kernel.Error) {
	path, err := Canonicalize(raw)
	if err != nil {
		return INode{}, err
	}

	current := t.Root()
	for _, c := range path.Components() {
		if current.Kind != KindDir {
			return INode{}, ErrNotFound
		}

		next, err := current.Dir.Lookup(c)
		if err != nil {
			return INode{}, err
		}
		current = next
	}

	return current, nil
}

// Mount resolves the parent directory of raw and attaches node under
// raw's final path component. Mounting at the tree's own root path ("/")
// is rejected with ErrAlreadyExists, since the root always exists.
func (t *Tree) Mount(raw string, node INode) *kernel.Error {
	path, err := Canonicalize(raw)
	if err != nil {
		return err
	}
	if path.IsRoot() {
		return ErrAlreadyExists
	}

	components := path.Components()
	parentName := components[len(components)-1]

	parent := t.Root()
	for _, c := range components[:len(components)-1] {
		if parent.Kind != KindDir {
			return ErrNotFound
		}
		next, err := parent.Dir.Lookup(c)
		if err != nil {
			return err
		}
		parent = next
	}

	switch parent.Kind {
	case KindFile:
		return ErrIsFile
	case KindBlockDevice, KindCharDevice:
		return ErrIsFile
	case KindDir:
		return parent.Dir.Mount(parentName, node)
	}

	return ErrNotFound
}

// WalkVisitor is invoked at every node WalkTree descends into, receiving
// its depth from the walk's starting point (0 for the start node itself)
// and the node.
type WalkVisitor func(depth int, name string, node INode)

// WalkTree performs a depth-first, pre-order walk of the tree starting at
// raw, invoking visitor at every node it encounters.
func (t *Tree) WalkTree(raw string, visitor WalkVisitor) *kernel.Error {
	start, err := t.FindInode(raw)
	if err != nil {
		return err
	}

	path, _ := Canonicalize(raw)
	name := "/"
	if !path.IsRoot() {
		comps := path.Components()
		name = comps[len(comps)-1]
	}

	walk(0, name, start, visitor)
	return nil
}

func walk(depth int, name string, node INode, visitor WalkVisitor) {
	visitor(depth, name, node)

	if node.Kind != KindDir {
		return
	}

	children, err := node.Dir.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		walk(depth+1, child.Name, child.Node, visitor)
	}
}

// ReadFileNode resolves raw, requires it to be a regular file, and reads
// its entire contents.
func (t *Tree) ReadFileNode(raw string) ([]byte, *kernel.Error) {
	node, err := t.FindInode(raw)
	if err != nil {
		return nil, err
	}
	if node.Kind != KindFile {
		return nil, ErrIsDir
	}

	size := node.File.Size()
	buf := make([]byte, size)

	var off uint64
	for off < size {
		n, err := node.File.ReadAt(off, buf[off:])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		off += uint64(n)
	}

	return buf[:off], nil
}

// OpenResult is returned by Open: exactly one of File or Block is non-nil,
// selected by Kind.
type OpenResult struct {
	Kind  Kind
	File  IFile
	Block IBlockDeviceFile
}

// Open resolves raw and returns a handle to it. Directories are rejected
// with ErrIsDir; character devices are rejected with ErrNotImplemented
// since this VFS's Open contract only distinguishes file and
// block-device handles (spec.md §4.5).
func (t *Tree) Open(raw string) (OpenResult, *kernel.Error) {
	node, err := t.FindInode(raw)
	if err != nil {
		return OpenResult{}, err
	}

	switch node.Kind {
	case KindFile:
		return OpenResult{Kind: KindFile, File: node.File}, nil
	case KindBlockDevice:
		return OpenResult{Kind: KindBlockDevice, Block: node.Block}, nil
	case KindDir:
		return OpenResult{}, ErrIsDir
	default:
		return OpenResult{}, ErrNotImplemented
	}
}
