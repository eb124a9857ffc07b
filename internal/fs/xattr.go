//go:build darwin || freebsd || netbsd || linux || solaris

package fs

import (
	"github.com/pkg/xattr"

	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
)

// errNoAttr is the error reported when an attribute does not exist.
var errNoAttr error = xattr.ENOATTR

// Local accesses the extended attributes of the local file system. Unless
// FollowSymlinks is set, a symlink's own attributes are used, not those of its
// target.
type Local struct {
	FollowSymlinks bool
}

// statically ensure that Local implements Store.
var _ Store = &Local{}

// NewLocal returns a Store for the local file system.
func NewLocal(followSymlinks bool) *Local {
	return &Local{FollowSymlinks: followSymlinks}
}

// Get retrieves the extended attribute name associated with path.
func (l *Local) Get(path, name string) ([]byte, bool, error) {
	get := xattr.LGet
	if l.FollowSymlinks {
		get = xattr.Get
	}

	b, err := get(path, name)
	debug.Log("getxattr(%v, %v): %d bytes, %v", path, name, len(b), err)
	if errors.Is(err, xattr.ENOATTR) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	if b == nil {
		b = []byte{}
	}
	return b, true, nil
}

// Set associates name and value together as an attribute of path.
func (l *Local) Set(path, name string, value []byte) error {
	set := xattr.LSet
	if l.FollowSymlinks {
		set = xattr.Set
	}

	err := set(path, name, value)
	debug.Log("setxattr(%v, %v, %d bytes): %v", path, name, len(value), err)
	return errors.WithStack(err)
}

// Remove removes the attribute name from path.
func (l *Local) Remove(path, name string) error {
	remove := xattr.LRemove
	if l.FollowSymlinks {
		remove = xattr.Remove
	}

	err := remove(path, name)
	debug.Log("removexattr(%v, %v): %v", path, name, err)
	return errors.WithStack(err)
}

// List retrieves the names of the extended attributes associated with path.
func (l *Local) List(path string) ([]string, error) {
	list := xattr.LList
	if l.FollowSymlinks {
		list = xattr.List
	}

	names, err := list(path)
	debug.Log("listxattr(%v): %v, %v", path, names, err)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return names, nil
}
