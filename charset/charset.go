// Package charset resolves character encoding names and wraps byte streams
// so record codecs can read and write text in encodings other than UTF-8.
package charset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Lookup returns the encoding registered under name, using the WHATWG
// encoding labels ("utf-8", "iso-8859-1", "windows-1252", "shift_jis", ...).
// The empty string and any UTF-8 label return nil, which callers treat as
// "no transcoding".
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	e, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("charset: unsupported charset %q: %w", name, err)
	}
	if e == unicode.UTF8 {
		return nil, nil
	}
	return e, nil
}

// Reader decodes a stream into UTF-8 and keeps count of the bytes taken
// from the source and handed to the caller, so offsets in the decoded text
// can be mapped back to source offsets.
type Reader struct {
	src     countingReader
	r       io.Reader
	decoded int64
}

// NewReader returns r decoded from e into UTF-8. A nil e reads r unchanged.
func NewReader(r io.Reader, e encoding.Encoding) *Reader {
	d := &Reader{src: countingReader{r: r}}
	if e == nil {
		d.r = &d.src
	} else {
		d.r = transform.NewReader(&d.src, e.NewDecoder())
	}
	return d
}

func (d *Reader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	d.decoded += int64(n)
	return n, err
}

// SourceOffset maps offset, a position in the decoded text, to the matching
// position in the source. For multi-byte encodings the result is scaled by
// the ratio of source to decoded bytes seen so far, so it is approximate.
func (d *Reader) SourceOffset(offset int64) int64 {
	if d.decoded == 0 || d.src.n == d.decoded {
		return offset
	}
	return int64(float64(offset) * float64(d.src.n) / float64(d.decoded))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// NewWriter returns a writer encoding UTF-8 input into e before writing it
// to w. Runes that cannot be represented in e cause a write error.
// Close flushes pending bytes and does not close w.
func NewWriter(w io.Writer, e encoding.Encoding) io.WriteCloser {
	if e == nil {
		return nopCloser{w}
	}
	return transform.NewWriter(w, e.NewEncoder())
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
