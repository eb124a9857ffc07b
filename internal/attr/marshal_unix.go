//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package attr

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// errnoMessage returns the symbolic name and the description of errno, e.g.
// "ENOTSUP: operation not supported".
func errnoMessage(errno syscall.Errno) string {
	name := unix.ErrnoName(errno)
	if name == "" {
		return errno.Error()
	}
	return name + ": " + errno.Error()
}
