package fs

import (
	"bytes"
	"os"
	"sync"
	"syscall"

	"github.com/restic/xattrbridge/internal/debug"
)

type memFile struct {
	names  []string
	values map[string][]byte
}

// Mem is a Store that keeps all attributes in memory. Paths must be created
// with Create before attributes can be set. This should only be used for
// tests.
type Mem struct {
	m     sync.Mutex
	files map[string]*memFile
}

// statically ensure that Mem implements Store.
var _ Store = &Mem{}

// NewMem returns an empty in-memory Store.
func NewMem() *Mem {
	debug.Log("created new memory attribute store")
	return &Mem{files: make(map[string]*memFile)}
}

// Create adds path without any attributes. Creating an existing path is a
// no-op.
func (m *Mem) Create(path string) {
	m.m.Lock()
	defer m.m.Unlock()

	if _, ok := m.files[path]; !ok {
		m.files[path] = &memFile{values: make(map[string][]byte)}
	}
}

func (m *Mem) file(op, path string) (*memFile, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, &os.PathError{Op: op, Path: path, Err: syscall.ENOENT}
	}
	return f, nil
}

func (m *Mem) Get(path, name string) ([]byte, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	f, err := m.file("getxattr", path)
	if err != nil {
		return nil, false, err
	}

	v, ok := f.values[name]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (m *Mem) Set(path, name string, value []byte) error {
	m.m.Lock()
	defer m.m.Unlock()

	f, err := m.file("setxattr", path)
	if err != nil {
		return err
	}

	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	f.values[name] = v
	return nil
}

func (m *Mem) Remove(path, name string) error {
	m.m.Lock()
	defer m.m.Unlock()

	f, err := m.file("removexattr", path)
	if err != nil {
		return err
	}

	if _, ok := f.values[name]; !ok {
		return &os.PathError{Op: "removexattr", Path: path, Err: errNoAttr}
	}

	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mem) List(path string) ([]string, error) {
	m.m.Lock()
	defer m.m.Unlock()

	f, err := m.file("listxattr", path)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(f.names))
	copy(names, f.names)
	return names, nil
}
