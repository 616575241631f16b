package fsp

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/resource"
	"github.com/wippyai/fsproxy/result"
	"github.com/wippyai/fsproxy/wire"
)

// Directory command ids.
const (
	CmdDirectoryRead uint32 = iota
	CmdDirectoryGetEntryCount
)

// DirectoryService exposes an open provider.Directory.
type DirectoryService struct {
	dir      *resource.Ref[provider.Directory]
	parent   *resource.Ref[provider.FileSystem]
	commands ipc.CommandTable
	disposed atomic.Bool
}

var _ ipc.Service = (*DirectoryService)(nil)

// NewDirectoryService takes ownership of dir and of the parent reference.
func NewDirectoryService(dir provider.Directory, parent *resource.Ref[provider.FileSystem]) *DirectoryService {
	s := &DirectoryService{
		dir: resource.NewRef(dir, func(d provider.Directory) {
			if err := d.Close(); err != nil {
				ipc.Logger().Warn("close directory", zap.Error(err))
			}
		}),
		parent: parent,
	}
	s.commands = ipc.NewCommandTable(
		s.command(CmdDirectoryRead, "Read", s.read),
		s.command(CmdDirectoryGetEntryCount, "GetEntryCount", s.getEntryCount),
	)
	return s
}

func (s *DirectoryService) Name() string {
	return "directory"
}

func (s *DirectoryService) Commands() ipc.CommandTable {
	return s.commands
}

func (s *DirectoryService) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.dir.Release()
	if s.parent != nil {
		s.parent.Release()
	}
}

func (s *DirectoryService) command(id uint32, name string, h ipc.Handler) ipc.Command {
	return ipc.Command{ID: id, Name: name, Handler: func(ctx *ipc.Context) (result.Code, error) {
		if s.disposed.Load() {
			return result.Success, errors.Disposed(s.Name())
		}
		return h(ctx)
	}}
}

// read fills output buffer 0 with as many entries as fit and returns the
// count. An exhausted listing yields zero entries.
func (s *DirectoryService) read(ctx *ipc.Context) (result.Code, error) {
	buf, err := ctx.OutBuffer(0)
	if err != nil {
		return result.Success, err
	}

	entries := make([]provider.DirectoryEntry, len(buf)/DirectoryEntrySize)
	n, perr := s.dir.Target().Read(entries)
	if perr != nil || n < 0 {
		n = 0
	}
	if n > len(entries) {
		n = len(entries)
	}

	w := wire.NewWriter(len(buf))
	for _, e := range entries[:n] {
		if err := EncodeDirectoryEntry(w, e); err != nil {
			return result.Success, err
		}
	}
	copy(buf, w.Bytes())
	ctx.SetOutBufferLen(0, w.Len())

	if err := ctx.Out.WriteI64(int64(n)); err != nil {
		return result.Success, err
	}
	return translate(perr), nil
}

func (s *DirectoryService) getEntryCount(ctx *ipc.Context) (result.Code, error) {
	count, perr := s.dir.Target().GetEntryCount()
	if err := ctx.Out.WriteI64(count); err != nil {
		return result.Success, err
	}
	return translate(perr), nil
}
