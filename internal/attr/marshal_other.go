//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package attr

import "syscall"

func errnoMessage(errno syscall.Errno) string {
	return errno.Error()
}
