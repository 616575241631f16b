package wire

import (
	"bytes"
	"strings"

	"github.com/wippyai/fsproxy/errors"
)

// MaxPathSize is the encoded bound of a path attachment, terminator included.
const MaxPathSize = 0x301

// MaxPathLength is the longest path content that fits the bound.
const MaxPathLength = MaxPathSize - 1

// Path is a decoded path attachment. Its content never contains NUL and
// never exceeds MaxPathLength bytes.
type Path struct {
	raw string
}

// String returns the path content without the terminator.
func (p Path) String() string {
	return p.raw
}

// Len returns the content length in bytes.
func (p Path) Len() int {
	return len(p.raw)
}

// DecodePath decodes attachment index from buf. The content ends at the
// first NUL; bytes after it are ignored.
func DecodePath(buf []byte, index int) (Path, error) {
	if len(buf) > MaxPathSize {
		return Path{}, errors.PathTooLong(index, len(buf), MaxPathSize)
	}
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return Path{}, errors.PathUnterminated(index, MaxPathSize)
	}
	return Path{raw: string(buf[:end])}, nil
}

// EncodePath encodes s as a NUL-terminated attachment.
func EncodePath(s string) ([]byte, error) {
	if len(s) > MaxPathLength {
		return nil, errors.PathTooLong(0, len(s)+1, MaxPathSize)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, errors.InvalidData(errors.PhaseEncode, []string{"path"}, "path contains NUL")
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf, nil
}

// NewPath validates s and returns it as a Path.
func NewPath(s string) (Path, error) {
	buf, err := EncodePath(s)
	if err != nil {
		return Path{}, err
	}
	return DecodePath(buf, 0)
}

// MustPath is NewPath for constants and tests.
func MustPath(s string) Path {
	p, err := NewPath(s)
	if err != nil {
		panic(err)
	}
	return p
}
