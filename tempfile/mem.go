package tempfile

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sync"
)

// Mem is an in-memory Store. Artifacts are kept in byte buffers instead of
// files, which is useful for testing and benchmarking without filesystem I/O.
type Mem struct {
	mu    sync.Mutex
	files map[string]*bytes.Buffer
	next  int
}

// NewMem returns an empty in-memory Store.
func NewMem() *Mem {
	return &Mem{files: make(map[string]*bytes.Buffer)}
}

type memFile struct {
	name string
	buf  *bytes.Buffer
}

func (f *memFile) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *memFile) Name() string                { return f.name }
func (f *memFile) Close() error                { return nil }

// Create adds a new empty buffer to the store.
func (m *Mem) Create() (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	f := &memFile{name: fmt.Sprintf("mem_%d", m.next), buf: new(bytes.Buffer)}
	m.files[f.name] = f.buf
	return f, nil
}

// Open returns a reader over the named buffer.
func (m *Mem) Open(name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// Remove drops the named buffer.
func (m *Mem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	return nil
}

// Len returns the number of artifacts currently held.
func (m *Mem) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Close drops every buffer.
func (m *Mem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.files)
	return nil
}
