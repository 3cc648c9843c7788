package tempfile

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Compression selects the stream codec wrapped around run artifacts.
type Compression int

const (
	// None stores runs as plain encoded records.
	None Compression = iota
	// Gzip stores runs gzip compressed at the fastest level.
	Gzip
	// Zstd stores runs zstd compressed at the fastest level.
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// ParseCompression maps a name such as "gzip" or "zstd" to a Compression.
// The empty string and "none" select None.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none", "off":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	default:
		return None, errors.Errorf("tempfile: unknown compression %q", s)
	}
}

// NewWriter wraps w so that bytes written are compressed with c.
// Closing the returned writer flushes the compressor but does not close w.
func (c Compression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestSpeed)
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	default:
		return nil, errors.Errorf("tempfile: unknown compression %d", int(c))
	}
}

// NewReader wraps r so that reads return data decompressed with c.
// Closing the returned reader does not close r.
func (c Compression) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrap(err, "tempfile: open zstd stream")
		}
		return d.IOReadCloser(), nil
	default:
		return nil, errors.Errorf("tempfile: unknown compression %d", int(c))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
