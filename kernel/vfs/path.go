package vfs

import (
	"strings"

	"ferrite/kernel"
)

// OwnedPath is always canonical: rooted, no "." components, no ".."
// components, no duplicate separators. Constructing one is the only way
// to get a Path into the rest of this package; every raw path string is
// canonicalized on entry via Canonicalize.
type OwnedPath struct {
	components []string
}

// Canonicalize validates and normalizes a raw path string. The empty path
// and any relative (non "/"-rooted) path are rejected with ErrNotFound, as
// are paths that decompose into "." or ".." components (this VFS performs
// no path traversal that needs them, and spec.md's canonical-path
// invariant treats their presence as malformed input rather than
// something to resolve away).
func Canonicalize(raw string) (OwnedPath, *kernel.Error) {
	if raw == "" || raw[0] != '/' {
		return OwnedPath{}, ErrNotFound
	}

	var components []string
	for _, part := range strings.Split(raw, "/") {
		if part == "" {
			continue
		}
		if part == "." || part == ".." {
			return OwnedPath{}, ErrNotFound
		}
		components = append(components, part)
	}

	return OwnedPath{components: components}, nil
}

// Components returns the path's normalized components in order, "/a/b"
// yielding ["a", "b"]. The root path returns an empty slice.
func (p OwnedPath) Components() []string {
	return p.components
}

// IsRoot reports whether p refers to the root directory itself.
func (p OwnedPath) IsRoot() bool {
	return len(p.components) == 0
}

// String renders the path back to its canonical "/"-separated form.
func (p OwnedPath) String() string {
	if p.IsRoot() {
		return "/"
	}
	return "/" + strings.Join(p.components, "/")
}
