package attr

import (
	"strings"

	"github.com/restic/xattrbridge/internal/errors"
)

// Kind classifies an Error.
type Kind uint8

const (
	// InvalidArgument means the file system returned data that could not be
	// converted, for example an attribute name that is not valid UTF-8.
	InvalidArgument Kind = iota + 1
	// OsFailure means the attribute syscall failed.
	OsFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case OsFailure:
		return "OsFailure"
	default:
		return "Unknown"
	}
}

// Error is the error returned by all attribute operations. It holds a copy
// of the information of the underlying error, not the error itself.
type Error struct {
	Kind Kind
	Op   Op
	Path string
	Name string

	// Code is the errno reported by the operating system, 0 if there was none.
	Code int
	Msg  string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op.String())
	b.WriteByte(' ')
	b.WriteString(e.Path)
	if e.Name != "" {
		b.WriteByte(' ')
		b.WriteString(e.Name)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// KindOf returns the kind of err if it is or wraps an *Error. Errors of the
// bridge itself, ErrBridgeClosed and the context errors returned by
// Pending.Wait, are not an *Error and report false.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsInvalidArgument reports whether err is an InvalidArgument error.
func IsInvalidArgument(err error) bool {
	k, ok := KindOf(err)
	return ok && k == InvalidArgument
}

// IsOsFailure reports whether err is an OsFailure error.
func IsOsFailure(err error) bool {
	k, ok := KindOf(err)
	return ok && k == OsFailure
}
