package wire

import (
	"encoding/binary"

	"github.com/wippyai/fsproxy/errors"
)

// DefaultResponseSize is the response region a command gets unless the
// transport asks for something else.
const DefaultResponseSize = 0x100

// Writer appends fields to a fixed-capacity response region.
type Writer struct {
	buf []byte
	cap int
}

// NewWriter creates a Writer that accepts at most capacity bytes.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity), cap: capacity}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Cap returns the region capacity.
func (w *Writer) Cap() int {
	return w.cap
}

// Reset discards everything written.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

func (w *Writer) grow(n int, field string) ([]byte, error) {
	if n < 0 || n > w.cap-len(w.buf) {
		return nil, errors.OutOfBounds(errors.PhaseEncode, []string{field}, len(w.buf), n, w.cap)
	}
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return w.buf[start:], nil
}

// WriteBytes appends data verbatim.
func (w *Writer) WriteBytes(data []byte) error {
	b, err := w.grow(len(data), "bytes")
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

// WriteZeros appends n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	_, err := w.grow(n, "zeros")
	return err
}

// WriteU8 appends a single byte.
func (w *Writer) WriteU8(v uint8) error {
	b, err := w.grow(1, "u8")
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// WriteU32 appends a fixed 4-byte unsigned integer.
func (w *Writer) WriteU32(v uint32) error {
	b, err := w.grow(4, "u32")
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// WriteI32 appends a fixed 4-byte signed integer.
func (w *Writer) WriteI32(v int32) error {
	return w.WriteU32(uint32(v))
}

// WriteU64 appends a fixed 8-byte unsigned integer.
func (w *Writer) WriteU64(v uint64) error {
	b, err := w.grow(8, "u64")
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

// WriteI64 appends a fixed 8-byte signed integer.
func (w *Writer) WriteI64(v int64) error {
	return w.WriteU64(uint64(v))
}
