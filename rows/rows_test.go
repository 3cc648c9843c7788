package rows_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/rows"
	"github.com/lanrat/spillsort/tempfile"
)

func decodeAll(t *testing.T, c *rows.Codec, in string) []rows.Row {
	t.Helper()
	dec := c.NewDecoder(strings.NewReader(in))
	var out []rows.Row
	for {
		r, err := dec.Decode()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, r)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	c, err := rows.NewCodec(rows.DefaultDialect(), "")
	require.NoError(t, err)

	in := []rows.Row{
		{"plain", "with,comma", `with "quote"`},
		{"multi\nline"},
		{"", ""},
		{""},
		{"", "tail"},
	}
	var buf bytes.Buffer
	enc := c.NewEncoder(&buf)
	for _, r := range in {
		require.NoError(t, enc.Encode(r))
	}
	require.NoError(t, enc.Close())

	require.Equal(t, in, decodeAll(t, c, buf.String()))
}

func TestCodecDialect(t *testing.T) {
	c, err := rows.NewCodec(rows.Dialect{Comma: '\t', Comment: '#'}, "")
	require.NoError(t, err)
	got := decodeAll(t, c, "# comment\na\tb\nc\n")
	require.Equal(t, []rows.Row{{"a", "b"}, {"c"}}, got)
}

func TestCodecCommentRoundTrip(t *testing.T) {
	c, err := rows.NewCodec(rows.Dialect{Comma: ',', Comment: '#', UseCRLF: true}, "")
	require.NoError(t, err)

	in := []rows.Row{{"#hash"}, {"#a\"b", "c"}, {""}, {"x#", "#"}}
	var buf bytes.Buffer
	enc := c.NewEncoder(&buf)
	for _, r := range in {
		require.NoError(t, enc.Encode(r))
	}
	require.NoError(t, enc.Close())
	require.Equal(t, "\"#hash\"\r\n\"#a\"\"b\",c\r\n\"\"\r\nx#,#\r\n", buf.String())

	require.Equal(t, in, decodeAll(t, c, buf.String()))
}

func TestCodecBytesRead(t *testing.T) {
	c, err := rows.NewCodec(rows.DefaultDialect(), "latin1")
	require.NoError(t, err)

	// \xfc decodes to two bytes of UTF-8 but is one byte of input
	in := "\xfc,a\nb,c\n"
	dec := c.NewDecoder(strings.NewReader(in))
	counter, ok := dec.(interface{ BytesRead() int64 })
	require.True(t, ok)
	for {
		_, err := dec.Decode()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.EqualValues(t, len(in), counter.BytesRead())
}

func TestCodecDecodeError(t *testing.T) {
	c, err := rows.NewCodec(rows.DefaultDialect(), "")
	require.NoError(t, err)
	dec := c.NewDecoder(strings.NewReader("ok,row\nbad\"quote,x\n"))

	_, err = dec.Decode()
	require.NoError(t, err)
	_, err = dec.Decode()
	var derr *spillsort.DecodeError
	require.ErrorAs(t, err, &derr)
	require.EqualValues(t, 2, derr.Record)
}

func TestCodecEqual(t *testing.T) {
	c, err := rows.NewCodec(rows.DefaultDialect(), "")
	require.NoError(t, err)
	require.True(t, c.Equal(rows.Row{"a", "b"}, rows.Row{"a", "b"}))
	require.False(t, c.Equal(rows.Row{"a", "b"}, rows.Row{"a", "c"}))
	require.False(t, c.Equal(rows.Row{"a"}, rows.Row{"a", ""}))
	require.EqualValues(t, spillsort.EstimateRow([]string{"a", "b"}), c.EstimateSize(rows.Row{"a", "b"}))
}

func TestCompareColumns(t *testing.T) {
	byB := rows.CompareColumns(1, 0)
	require.Negative(t, byB(rows.Row{"z", "a"}, rows.Row{"a", "b"}))
	require.Positive(t, byB(rows.Row{"b", "x"}, rows.Row{"a", "x"}))
	require.Zero(t, byB(rows.Row{"a", "x", "1"}, rows.Row{"a", "x", "2"}))
	require.Negative(t, byB(rows.Row{"a"}, rows.Row{"a", "x"}))

	require.Negative(t, rows.Compare(rows.Row{"a"}, rows.Row{"a", "b"}))
	require.Positive(t, rows.Compare(rows.Row{"b"}, rows.Row{"a", "b"}))
}

func TestSortRowsDistinct(t *testing.T) {
	c, err := rows.NewCodec(rows.DefaultDialect(), "")
	require.NoError(t, err)
	s, err := spillsort.NewMock[rows.Row](c, rows.CompareColumns(0), &spillsort.Options{
		Distinct:   true,
		NumHeader:  1,
		EmitHeader: true,
		MaxMemory:  256,
	}, tempfile.NewMem())
	require.NoError(t, err)

	in := "id,name\n2,b\n1,a\n2,b\n1,a\n3,c\n"
	var out bytes.Buffer
	n, err := s.Sort(context.Background(), strings.NewReader(in), int64(len(in)), &out)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.Equal(t, "id,name\n1,a\n2,b\n3,c\n", out.String())
}

func TestSortRowsEmptyField(t *testing.T) {
	c, err := rows.NewCodec(rows.DefaultDialect(), "")
	require.NoError(t, err)

	for _, memory := range []int64{0, 1} {
		t.Run(fmt.Sprintf("memory=%d", memory), func(t *testing.T) {
			store := tempfile.NewMem()
			s, err := spillsort.NewMock[rows.Row](c, rows.Compare, &spillsort.Options{MaxMemory: memory}, store)
			require.NoError(t, err)

			in := "b\n\"\"\na\n"
			var out bytes.Buffer
			n, err := s.Sort(context.Background(), strings.NewReader(in), int64(len(in)), &out)
			require.NoError(t, err)
			require.EqualValues(t, 3, n)
			require.Equal(t, "\"\"\na\nb\n", out.String())
			require.Zero(t, store.Len())
		})
	}
}

func TestSortRowsDistinctFullRow(t *testing.T) {
	c, err := rows.NewCodec(rows.DefaultDialect(), "")
	require.NoError(t, err)
	s, err := spillsort.NewMock[rows.Row](c, rows.Compare, &spillsort.Options{Distinct: true}, tempfile.NewMem())
	require.NoError(t, err)

	// rows sharing a first field are kept unless every field matches
	in := "1,a\n1,b\n1,a\n"
	var out bytes.Buffer
	n, err := s.Sort(context.Background(), strings.NewReader(in), 0, &out)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Equal(t, "1,a\n1,b\n", out.String())
}

func TestSortFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("name;city\nz\xfcrich;ch\nb;x\n"), 0o644))

	d := rows.DefaultDialect()
	d.Comma = ';'
	n, err := rows.SortFile(context.Background(), in, out, d, rows.Compare, &spillsort.Options{
		NumHeader:  1,
		EmitHeader: true,
		Charset:    "latin1",
		TempDir:    dir,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "name;city\nb;x\nz\xfcrich;ch\n", string(got))
}

func TestSortFileBadCharset(t *testing.T) {
	_, err := rows.SortFile(context.Background(), "in", "out", rows.DefaultDialect(), rows.Compare, &spillsort.Options{Charset: "nope"})
	var cerr *spillsort.ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "Charset", cerr.Field)
}
