package hostfs

import (
	stderrors "errors"
	"io"
	"os"

	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/result"
)

// File is an open host file. Access is checked against the mode it was
// opened with.
type File struct {
	file *os.File
	mode provider.OpenMode
}

var _ provider.File = (*File)(nil)

func (f *File) Read(offset int64, buf []byte) (int64, error) {
	if !f.mode.CanRead() {
		return 0, result.ErrReadNotPermitted
	}
	if offset < 0 {
		return 0, result.ErrOutOfRange
	}
	n, err := f.file.ReadAt(buf, offset)
	if err != nil && !stderrors.Is(err, io.EOF) {
		return int64(n), fail("read", f.file.Name(), err)
	}
	return int64(n), nil
}

func (f *File) Write(offset int64, data []byte, option provider.WriteOption) error {
	if !f.mode.CanWrite() {
		return result.ErrWriteNotPermitted
	}
	if offset < 0 {
		return result.ErrOutOfRange
	}
	if !f.mode.CanAppend() {
		size, err := f.GetSize()
		if err != nil {
			return err
		}
		if offset+int64(len(data)) > size {
			return result.ErrFileExtensionNoAppend
		}
	}
	if _, err := f.file.WriteAt(data, offset); err != nil {
		return fail("write", f.file.Name(), err)
	}
	if option&provider.WriteFlush != 0 {
		return f.Flush()
	}
	return nil
}

func (f *File) Flush() error {
	if !f.mode.CanWrite() {
		return nil
	}
	return fail("flush", f.file.Name(), f.file.Sync())
}

func (f *File) SetSize(size int64) error {
	if !f.mode.CanWrite() {
		return result.ErrWriteNotPermitted
	}
	if size < 0 {
		return result.ErrOutOfRange
	}
	return fail("set_size", f.file.Name(), f.file.Truncate(size))
}

func (f *File) GetSize() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, fail("get_size", f.file.Name(), err)
	}
	return info.Size(), nil
}

func (f *File) Close() error {
	return f.file.Close()
}
