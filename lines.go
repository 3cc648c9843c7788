package spillsort

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/lanrat/spillsort/charset"
)

const lineBufferSize = 64 << 10

var errInvalidUTF8 = errors.New("invalid UTF-8")

// LineCodec reads and writes newline terminated text lines. Lines are held
// as UTF-8 strings in memory; the stream may use another charset.
type LineCodec struct {
	enc encoding.Encoding
}

// NewLineCodec returns a LineCodec for streams in the named charset.
// The empty string selects UTF-8.
func NewLineCodec(charsetName string) (*LineCodec, error) {
	e, err := charset.Lookup(charsetName)
	if err != nil {
		return nil, err
	}
	return &LineCodec{enc: e}, nil
}

// NewDecoder returns a Decoder yielding lines from r without their line
// terminator. "\n" and "\r\n" endings are both accepted, and a final line
// without a terminator is still a line.
func (c *LineCodec) NewDecoder(r io.Reader) Decoder[string] {
	src := charset.NewReader(r, c.enc)
	return &lineDecoder{
		src:      src,
		r:        bufio.NewReaderSize(src, lineBufferSize),
		validate: c.enc == nil,
	}
}

// NewEncoder returns an Encoder writing each line followed by "\n".
func (c *LineCodec) NewEncoder(w io.Writer) Encoder[string] {
	tw := charset.NewWriter(w, c.enc)
	return &lineEncoder{w: bufio.NewWriterSize(tw, lineBufferSize), tw: tw}
}

// EstimateSize implements Codec.
func (c *LineCodec) EstimateSize(s string) int64 {
	return EstimateString(s)
}

// Equal implements Codec.
func (c *LineCodec) Equal(a, b string) bool {
	return a == b
}

type lineDecoder struct {
	src      *charset.Reader
	r        *bufio.Reader
	validate bool
	read     int64
	records  int64
}

func (d *lineDecoder) Decode() (string, error) {
	line, err := d.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	d.read += int64(len(line))
	d.records++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if d.validate && !utf8.ValidString(line) {
		return "", NewDecodeError(errInvalidUTF8, d.records, "line")
	}
	return line, nil
}

// BytesRead returns the number of input bytes consumed so far, counted in
// the source charset so it is comparable with the input size.
func (d *lineDecoder) BytesRead() int64 {
	return d.src.SourceOffset(d.read)
}

type lineEncoder struct {
	w  *bufio.Writer
	tw io.WriteCloser
}

func (e *lineEncoder) Encode(s string) error {
	if _, err := e.w.WriteString(s); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

func (e *lineEncoder) Close() error {
	return firstError(e.w.Flush(), e.tw.Close())
}

// NewLineSorter returns a Sorter of text lines in lexical order, reading and
// writing text in opts.Charset.
func NewLineSorter(opts *Options) (*Sorter[string], error) {
	var name string
	if opts != nil {
		name = opts.Charset
	}
	codec, err := NewLineCodec(name)
	if err != nil {
		return nil, &ConfigError{Field: "Charset", Value: name, Reason: err.Error()}
	}
	return New[string](codec, cmp.Compare[string], opts)
}

// SortLines sorts the lines of the file at in lexically and writes them to out.
func SortLines(ctx context.Context, in, out string, opts *Options) (int64, error) {
	s, err := NewLineSorter(opts)
	if err != nil {
		return 0, err
	}
	return s.SortFile(ctx, in, out)
}
