package vfs

import "ferrite/kernel"

// RootDir is the special directory that anchors the VFS tree. It accepts
// only Mount (Create is rejected) and looks up children by exact name
// equality, exactly like any other directory's Lookup.
type RootDir struct {
	children map[string]INode
	order    []string
}

// NewRootDir creates an empty root directory.
func NewRootDir() *RootDir {
	return &RootDir{children: map[string]INode{}}
}

func (r *RootDir) Stat() (Stat, *kernel.Error) {
	return Stat{Nlink: 1}, nil
}

func (r *RootDir) Lookup(name string) (INode, *kernel.Error) {
	n, ok := r.children[name]
	if !ok {
		return INode{}, ErrNotFound
	}
	return n, nil
}

// Create always fails on RootDir: the root only ever gains children via
// Mount.
func (r *RootDir) Create(name string, kind Kind) (INode, *kernel.Error) {
	return INode{}, ErrNotImplemented
}

func (r *RootDir) Mount(name string, node INode) *kernel.Error {
	if _, exists := r.children[name]; exists {
		return ErrAlreadyExists
	}
	r.children[name] = node
	r.order = append(r.order, name)
	return nil
}

func (r *RootDir) Children() ([]NamedNode, *kernel.Error) {
	out := make([]NamedNode, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, NamedNode{Name: name, Node: r.children[name]})
	}
	return out, nil
}
