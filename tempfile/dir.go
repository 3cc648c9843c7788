package tempfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// runFilePrefix is the filename prefix for runs put in the operation directory
var runFilePrefix = fmt.Sprintf("run_%d_", os.Getpid())

// Dir is a disk backed Store. Every Dir owns a freshly created directory
// named after a random UUID so concurrent sort operations never share
// artifacts, and Close removes it along with any run left behind.
type Dir struct {
	path string
}

// NewDir creates a private run directory below parent. An empty or unusable
// parent falls back to GetTempDir's default choice.
func NewDir(parent string) (*Dir, error) {
	base := GetTempDir(parent)
	path := filepath.Join(base, "spillsort-"+uuid.NewString())
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, errors.Wrapf(err, "tempfile: create run directory below %s", base)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory holding the runs.
func (d *Dir) Path() string {
	return d.path
}

// Create makes a new run file in the directory.
func (d *Dir) Create() (File, error) {
	f, err := os.CreateTemp(d.path, runFilePrefix)
	if err != nil {
		return nil, errors.Wrap(err, "tempfile: create run")
	}
	return f, nil
}

// Open opens the named run file for reading.
func (d *Dir) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Remove deletes the named run file.
func (d *Dir) Remove(name string) error {
	err := os.Remove(name)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close removes the directory and everything still in it.
func (d *Dir) Close() error {
	return errors.Wrap(os.RemoveAll(d.path), "tempfile: remove run directory")
}
