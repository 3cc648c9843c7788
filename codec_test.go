package spillsort

import (
	"bufio"
	"encoding/binary"
	"io"
)

// intCodec stores ints as varints.
type intCodec struct{}

func (intCodec) NewDecoder(r io.Reader) Decoder[int] {
	return &intDecoder{r: bufio.NewReader(r)}
}

func (intCodec) NewEncoder(w io.Writer) Encoder[int] {
	return &intEncoder{w: bufio.NewWriter(w)}
}

func (intCodec) EstimateSize(int) int64 { return 8 }

func (intCodec) Equal(a, b int) bool { return a == b }

type intDecoder struct {
	r *bufio.Reader
}

func (d *intDecoder) Decode() (int, error) {
	v, err := binary.ReadVarint(d.r)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

type intEncoder struct {
	w   *bufio.Writer
	buf [binary.MaxVarintLen64]byte
}

func (e *intEncoder) Encode(v int) error {
	n := binary.PutVarint(e.buf[:], int64(v))
	_, err := e.w.Write(e.buf[:n])
	return err
}

func (e *intEncoder) Close() error {
	return e.w.Flush()
}
