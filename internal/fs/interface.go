// Package fs provides access to the extended attributes of a file system.
// Local uses the attribute syscalls of the operating system, Mem keeps all
// attributes in memory and is meant for tests.
package fs

// Store reads and modifies the extended attributes of paths. Implementations
// must be safe for concurrent use; concurrent modifications of the same
// attribute are resolved by the implementation (last writer wins for Local).
type Store interface {
	// Get returns the value of the attribute name of path. If the attribute
	// does not exist, ok is false and err is nil. A present attribute with an
	// empty value is returned as a non-nil empty slice.
	Get(path, name string) (value []byte, ok bool, err error)

	// Set creates or replaces the attribute name of path.
	Set(path, name string, value []byte) error

	// Remove deletes the attribute name of path.
	Remove(path, name string) error

	// List returns the attribute names of path in the order reported by the
	// file system. Names are raw bytes and may not be valid UTF-8.
	List(path string) ([]string, error)
}
