//go:build !(darwin || freebsd || netbsd || linux || solaris)

package fs

import (
	"syscall"

	"github.com/restic/xattrbridge/internal/errors"
)

var errNoAttr error = syscall.ENOENT

var errNotSupported = errors.New("extended attributes are not supported on this platform")

// Local reports every operation as unsupported.
type Local struct {
	FollowSymlinks bool
}

// NewLocal returns a Store for the local file system.
func NewLocal(followSymlinks bool) *Local {
	return &Local{FollowSymlinks: followSymlinks}
}

func (l *Local) Get(_, _ string) ([]byte, bool, error) {
	return nil, false, errors.WithStack(errNotSupported)
}

func (l *Local) Set(_, _ string, _ []byte) error {
	return errors.WithStack(errNotSupported)
}

func (l *Local) Remove(_, _ string) error {
	return errors.WithStack(errNotSupported)
}

func (l *Local) List(_ string) ([]string, error) {
	return nil, errors.WithStack(errNotSupported)
}
