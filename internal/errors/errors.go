// Package errors wraps github.com/pkg/errors so that callers get stack
// traces on errors created inside xattrbridge, and re-exports the Go 1.13
// helpers so that only one errors package needs to be imported.
package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// New creates a new error based on message. Wrapped so that this package does
// not appear in the stack trace.
var New = errors.New

// Errorf creates an error based on a format string and values.
var Errorf = errors.Errorf

// Wrap annotates an error returned by a syscall or a library with message.
var Wrap = errors.Wrap

// Wrapf returns an error annotating err with the format specifier. If err is
// nil, Wrapf returns nil.
var Wrapf = errors.Wrapf

// WithStack annotates err with a stack trace at the point WithStack was called.
// If err is nil, WithStack returns nil.
var WithStack = errors.WithStack

// Cause returns the innermost error that does not implement causer.
var Cause = errors.Cause

// As finds the first error in err's tree that matches target.
func As(err error, tgt interface{}) bool { return stderrors.As(err, tgt) }

// Is reports whether any error in err's tree matches target.
func Is(x, y error) bool { return stderrors.Is(x, y) }

// Join returns an error that wraps the given errors, discarding nil values.
func Join(errs ...error) error { return stderrors.Join(errs...) }
