package transport

import (
	"encoding/binary"
	"io"

	"github.com/wippyai/fsproxy/errors"
)

// DefaultMaxFrameSize bounds a frame unless the server or client is told
// otherwise. It fits the largest message the ipc codec accepts.
const DefaultMaxFrameSize = 4 << 20

// WriteFrame writes payload prefixed with its little-endian u32 length.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "write frame")
	}
	return nil
}

// ReadFrame reads one frame. A frame larger than limit is rejected before
// its payload is read. io.EOF is returned unwrapped when the stream ends
// cleanly between frames.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "read frame header")
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > limit {
		return nil, errors.FrameTooLarge(n, limit)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "read frame payload")
	}
	return payload, nil
}
