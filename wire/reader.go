package wire

import (
	"encoding/binary"

	"github.com/wippyai/fsproxy/errors"
)

// Reader is a forward-only cursor over a fixed request region.
// All multi-byte values are little-endian.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a Reader over buf. The reader never copies buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

func (r *Reader) take(n int, field string) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, errors.OutOfBounds(errors.PhaseDecode, []string{field}, r.pos, n, len(r.buf))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances past n bytes without interpreting them.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n, "padding")
	return err
}

// ReadBytes returns the next n bytes. The slice aliases the region.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n, "bytes")
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1, "u8")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU32 reads a fixed 4-byte unsigned integer.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4, "u32")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32 reads a fixed 4-byte signed integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a fixed 8-byte unsigned integer.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8, "u64")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI64 reads a fixed 8-byte signed integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}
