// Package rows provides a spillsort codec for delimited text rows, such as
// CSV or TSV files.
package rows

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/charset"
)

// Row is one record of a delimited file: its fields in order.
type Row []string

// Dialect describes the delimiter and quoting rules of a file.
type Dialect struct {
	Comma            rune // field delimiter
	Comment          rune // lines starting with it are skipped, 0 disables
	LazyQuotes       bool // allow quotes in unquoted fields
	TrimLeadingSpace bool // ignore leading white space in a field
	UseCRLF          bool // end written rows with \r\n
}

// DefaultDialect returns the RFC 4180 dialect: comma separated, double quoted.
func DefaultDialect() Dialect {
	return Dialect{Comma: ','}
}

// Codec reads and writes Rows in a Dialect and charset.
type Codec struct {
	dialect Dialect
	enc     encoding.Encoding
}

// NewCodec returns a Codec for dialect d and the named charset.
// The empty charset name selects UTF-8.
func NewCodec(d Dialect, charsetName string) (*Codec, error) {
	if d.Comma == 0 {
		d.Comma = ','
	}
	e, err := charset.Lookup(charsetName)
	if err != nil {
		return nil, err
	}
	return &Codec{dialect: d, enc: e}, nil
}

// NewDecoder implements spillsort.Codec.
func (c *Codec) NewDecoder(r io.Reader) spillsort.Decoder[Row] {
	src := charset.NewReader(r, c.enc)
	cr := csv.NewReader(src)
	cr.Comma = c.dialect.Comma
	cr.Comment = c.dialect.Comment
	cr.LazyQuotes = c.dialect.LazyQuotes
	cr.TrimLeadingSpace = c.dialect.TrimLeadingSpace
	cr.FieldsPerRecord = -1
	return &decoder{r: cr, src: src}
}

// NewEncoder implements spillsort.Codec.
func (c *Codec) NewEncoder(w io.Writer) spillsort.Encoder[Row] {
	tw := charset.NewWriter(w, c.enc)
	cw := csv.NewWriter(tw)
	cw.Comma = c.dialect.Comma
	cw.UseCRLF = c.dialect.UseCRLF
	return &encoder{w: cw, tw: tw, comma: c.dialect.Comma, comment: c.dialect.Comment, crlf: c.dialect.UseCRLF}
}

// EstimateSize implements spillsort.Codec.
func (c *Codec) EstimateSize(r Row) int64 {
	return spillsort.EstimateRow(r)
}

// Equal reports whether every field of a and b matches.
func (c *Codec) Equal(a, b Row) bool {
	return slices.Equal(a, b)
}

type decoder struct {
	r       *csv.Reader
	src     *charset.Reader
	records int64
}

func (d *decoder) Decode() (Row, error) {
	rec, err := d.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, spillsort.NewDecodeError(err, d.records+1, "row")
		}
		return nil, err
	}
	d.records++
	return Row(rec), nil
}

// BytesRead returns the input offset of the reader in source bytes.
func (d *decoder) BytesRead() int64 {
	return d.src.SourceOffset(d.r.InputOffset())
}

type encoder struct {
	w       *csv.Writer
	tw      io.WriteCloser
	comma   rune
	comment rune
	crlf    bool
}

// Encode writes r as one line. csv.Writer leaves the first field bare when
// it is empty or starts with the comment rune, and a reader would then skip
// the line, so such a field is quoted here.
func (e *encoder) Encode(r Row) error {
	if !e.quoteFirst(r) {
		return e.w.Write(r)
	}
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	first := `"` + strings.ReplaceAll(r[0], `"`, `""`) + `"`
	if len(r) == 1 {
		eol := "\n"
		if e.crlf {
			eol = "\r\n"
		}
		_, err := io.WriteString(e.tw, first+eol)
		return err
	}
	if _, err := io.WriteString(e.tw, first+string(e.comma)); err != nil {
		return err
	}
	return e.w.Write(r[1:])
}

func (e *encoder) quoteFirst(r Row) bool {
	switch {
	case len(r) == 0:
		return false
	case len(r) == 1 && r[0] == "":
		return true
	}
	return e.comment != 0 && strings.HasPrefix(r[0], string(e.comment))
}

func (e *encoder) Close() error {
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	return e.tw.Close()
}

// Compare orders rows field by field, lexically.
func Compare(a, b Row) int {
	return slices.Compare(a, b)
}

// CompareColumns returns a comparison over the given zero-based columns, in
// order of precedence. A missing column sorts before any present one.
func CompareColumns(cols ...int) spillsort.CompareFunc[Row] {
	return func(a, b Row) int {
		for _, col := range cols {
			av, aok := field(a, col)
			bv, bok := field(b, col)
			switch {
			case !aok && !bok:
				continue
			case !aok:
				return -1
			case !bok:
				return 1
			}
			if av < bv {
				return -1
			}
			if av > bv {
				return 1
			}
		}
		return 0
	}
}

func field(r Row, col int) (string, bool) {
	if col < 0 || col >= len(r) {
		return "", false
	}
	return r[col], true
}

// SortFile sorts the rows of the file at in by cmp and writes them to out,
// reading and writing text in opts.Charset.
func SortFile(ctx context.Context, in, out string, d Dialect, cmp spillsort.CompareFunc[Row], opts *spillsort.Options) (int64, error) {
	var name string
	if opts != nil {
		name = opts.Charset
	}
	codec, err := NewCodec(d, name)
	if err != nil {
		return 0, &spillsort.ConfigError{Field: "Charset", Value: name, Reason: err.Error()}
	}
	s, err := spillsort.New[Row](codec, cmp, opts)
	if err != nil {
		return 0, err
	}
	return s.SortFile(ctx, in, out)
}
