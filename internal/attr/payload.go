// Package attr implements the extended attribute operations get, set, remove
// and list. An operation is described by a Payload, which is either run on
// the calling goroutine by an Executor or handed to a Bridge, which runs it
// on a worker goroutine and delivers the outcome on the host loop.
package attr

import (
	"bytes"
	"fmt"
)

// Op identifies an attribute operation.
type Op uint8

const (
	OpGet Op = iota + 1
	OpSet
	OpRemove
	OpList
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	case OpList:
		return "list"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Value is the value of a set operation. It is given either as raw bytes or
// as text, text is stored as its UTF-8 encoding.
type Value struct {
	raw    []byte
	text   string
	isText bool
}

// Bytes returns a Value holding a copy of b.
func Bytes(b []byte) Value {
	return Value{raw: bytes.Clone(b)}
}

// Text returns a Value holding s.
func Text(s string) Value {
	return Value{text: s, isText: true}
}

// IsText reports whether v was created by Text.
func (v Value) IsText() bool {
	return v.isText
}

// Raw returns the bytes passed to the file system.
func (v Value) Raw() []byte {
	if v.isText {
		return []byte(v.text)
	}
	return v.raw
}

// Len returns the length of the encoded value.
func (v Value) Len() int {
	if v.isText {
		return len(v.text)
	}
	return len(v.raw)
}

// Payload describes a single attribute operation. Paths and names are not
// validated, empty or oversized values are rejected by the file system.
type Payload struct {
	op    Op
	path  string
	name  string
	value Value
}

// Get describes reading the attribute name of path.
func Get(path, name string) Payload {
	return Payload{op: OpGet, path: path, name: name}
}

// Set describes storing value as the attribute name of path.
func Set(path, name string, value Value) Payload {
	return Payload{op: OpSet, path: path, name: name, value: value}
}

// Remove describes deleting the attribute name of path.
func Remove(path, name string) Payload {
	return Payload{op: OpRemove, path: path, name: name}
}

// List describes listing the attribute names of path.
func List(path string) Payload {
	return Payload{op: OpList, path: path}
}

func (p Payload) Op() Op { return p.op }
func (p Payload) Path() string { return p.path }
func (p Payload) Name() string { return p.name }
func (p Payload) Value() Value { return p.value }

func (p Payload) String() string {
	switch p.op {
	case OpSet:
		return fmt.Sprintf("set(%q, %q, %d bytes)", p.path, p.name, p.value.Len())
	case OpList:
		return fmt.Sprintf("list(%q)", p.path)
	default:
		return fmt.Sprintf("%v(%q, %q)", p.op, p.path, p.name)
	}
}
