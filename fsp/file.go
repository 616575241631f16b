package fsp

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/resource"
	"github.com/wippyai/fsproxy/result"
)

// File command ids.
const (
	CmdFileRead uint32 = iota
	CmdFileWrite
	CmdFileFlush
	CmdFileSetSize
	CmdFileGetSize
)

// FileService exposes an open provider.File. It keeps its own reference to
// the filesystem the file came from, so disposing the parent service does
// not close the filesystem under an open file.
type FileService struct {
	file     *resource.Ref[provider.File]
	parent   *resource.Ref[provider.FileSystem]
	commands ipc.CommandTable
	disposed atomic.Bool
}

var _ ipc.Service = (*FileService)(nil)

// NewFileService takes ownership of file and of the parent reference.
func NewFileService(file provider.File, parent *resource.Ref[provider.FileSystem]) *FileService {
	s := &FileService{
		file: resource.NewRef(file, func(f provider.File) {
			if err := f.Close(); err != nil {
				ipc.Logger().Warn("close file", zap.Error(err))
			}
		}),
		parent: parent,
	}
	s.commands = ipc.NewCommandTable(
		s.command(CmdFileRead, "Read", s.read),
		s.command(CmdFileWrite, "Write", s.write),
		s.command(CmdFileFlush, "Flush", s.flush),
		s.command(CmdFileSetSize, "SetSize", s.setSize),
		s.command(CmdFileGetSize, "GetSize", s.getSize),
	)
	return s
}

func (s *FileService) Name() string {
	return "file"
}

func (s *FileService) Commands() ipc.CommandTable {
	return s.commands
}

// Dispose closes the file and drops the filesystem reference once.
func (s *FileService) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.file.Release()
	if s.parent != nil {
		s.parent.Release()
	}
}

func (s *FileService) command(id uint32, name string, h ipc.Handler) ipc.Command {
	return ipc.Command{ID: id, Name: name, Handler: func(ctx *ipc.Context) (result.Code, error) {
		if s.disposed.Load() {
			return result.Success, errors.Disposed(s.Name())
		}
		return h(ctx)
	}}
}

// readRange decodes the shared header of Read and Write:
// u32 option, 4 bytes padding, i64 offset, i64 size.
func readRange(ctx *ipc.Context) (option uint32, offset, size int64, err error) {
	if option, err = ctx.In.ReadU32(); err != nil {
		return
	}
	if err = ctx.In.Skip(4); err != nil {
		return
	}
	if offset, err = ctx.In.ReadI64(); err != nil {
		return
	}
	size, err = ctx.In.ReadI64()
	return
}

func (s *FileService) read(ctx *ipc.Context) (result.Code, error) {
	_, offset, size, err := readRange(ctx)
	if err != nil {
		return result.Success, err
	}
	buf, err := ctx.OutBuffer(0)
	if err != nil {
		return result.Success, err
	}

	var n int64
	status := result.Success
	switch {
	case offset < 0 || size < 0:
		status = result.ErrOutOfRange
	case int64(len(buf)) < size:
		status = result.ErrInvalidSize
	default:
		var perr error
		n, perr = s.file.Target().Read(offset, buf[:size])
		status = translate(perr)
	}

	ctx.SetOutBufferLen(0, int(n))
	if err := ctx.Out.WriteI64(n); err != nil {
		return result.Success, err
	}
	return status, nil
}

func (s *FileService) write(ctx *ipc.Context) (result.Code, error) {
	option, offset, size, err := readRange(ctx)
	if err != nil {
		return result.Success, err
	}
	buf, err := ctx.Buffer(0)
	if err != nil {
		return result.Success, err
	}
	if offset < 0 || size < 0 {
		return result.ErrOutOfRange, nil
	}
	if int64(len(buf)) < size {
		return result.ErrInvalidSize, nil
	}
	return translate(s.file.Target().Write(offset, buf[:size], provider.WriteOption(option))), nil
}

func (s *FileService) flush(*ipc.Context) (result.Code, error) {
	return translate(s.file.Target().Flush()), nil
}

func (s *FileService) setSize(ctx *ipc.Context) (result.Code, error) {
	size, err := ctx.In.ReadI64()
	if err != nil {
		return result.Success, err
	}
	if size < 0 {
		return result.ErrOutOfRange, nil
	}
	return translate(s.file.Target().SetSize(size)), nil
}

func (s *FileService) getSize(ctx *ipc.Context) (result.Code, error) {
	size, perr := s.file.Target().GetSize()
	if err := ctx.Out.WriteI64(size); err != nil {
		return result.Success, err
	}
	return translate(perr), nil
}
