package attr

// Result is the successful outcome of an operation. Get results carry a
// value or report its absence, list results carry names, set and remove
// results carry nothing.
type Result struct {
	op      Op
	value   []byte
	present bool
	names   []string
}

// Op returns the operation that produced r.
func (r Result) Op() Op {
	return r.op
}

// Value returns the attribute value of a get result. ok is false if the
// attribute does not exist.
func (r Result) Value() (value []byte, ok bool) {
	return r.value, r.present
}

// Names returns the attribute names of a list result in the order reported
// by the file system.
func (r Result) Names() []string {
	return r.names
}
