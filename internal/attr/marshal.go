package attr

import (
	"fmt"
	"os"
	"syscall"
	"unicode/utf8"

	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/feature"
)

// marshalGet reports a missing attribute as absence. A path that does not
// exist has no attributes and is reported the same way, other failures are
// passed on.
func marshalGet(p Payload, value []byte, ok bool, err error) (Result, error) {
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !feature.Flag.Enabled(feature.GetMissingPathAsError) {
			return Result{op: OpGet}, nil
		}
		return Result{}, marshalError(p, err)
	}

	if !ok {
		return Result{op: OpGet}, nil
	}
	return Result{op: OpGet, value: value, present: true}, nil
}

func marshalUnit(p Payload, err error) (Result, error) {
	if err != nil {
		return Result{}, marshalError(p, err)
	}
	return Result{op: p.op}, nil
}

// marshalList fails on the first name that is not valid UTF-8, a partial list
// is never returned.
func marshalList(p Payload, names []string, err error) (Result, error) {
	if err != nil {
		return Result{}, marshalError(p, err)
	}

	for _, name := range names {
		if !utf8.ValidString(name) {
			return Result{}, &Error{
				Kind: InvalidArgument,
				Op:   p.op,
				Path: p.path,
				Msg:  fmt.Sprintf("invalid attribute name %q", name),
			}
		}
	}

	if names == nil {
		names = []string{}
	}
	return Result{op: OpList, names: names}, nil
}

// marshalError converts an error of the attribute store into an OsFailure.
// Only the errno and the message are kept.
func marshalError(p Payload, err error) error {
	e := &Error{
		Kind: OsFailure,
		Op:   p.op,
		Path: p.path,
		Name: p.name,
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Code = int(errno)
		e.Msg = errnoMessage(errno)
	} else {
		e.Msg = errors.Cause(err).Error()
	}

	return e
}
