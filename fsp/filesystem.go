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

// FileSystem command ids.
const (
	CmdCreateFile uint32 = iota
	CmdDeleteFile
	CmdCreateDirectory
	CmdDeleteDirectory
	CmdDeleteDirectoryRecursively
	CmdRenameFile
	CmdRenameDirectory
	CmdGetEntryType
	CmdOpenFile
	CmdOpenDirectory
	CmdCommit
	CmdGetFreeSpaceSize
	CmdGetTotalSpaceSize
	CmdCleanDirectoryRecursively
	CmdGetFileTimeStampRaw
)

// TimeStampValid is the first byte of the block that follows the three
// timestamps in a GetFileTimeStampRaw response.
const TimeStampValid = 1

// FileSystemService exposes a provider.FileSystem to a session.
type FileSystemService struct {
	fs       *resource.Ref[provider.FileSystem]
	commands ipc.CommandTable
	disposed atomic.Bool
}

var _ ipc.Service = (*FileSystemService)(nil)

// NewFileSystemService takes ownership of fs; Dispose releases it.
func NewFileSystemService(fs *resource.Ref[provider.FileSystem]) *FileSystemService {
	s := &FileSystemService{fs: fs}
	s.commands = ipc.NewCommandTable(
		s.command(CmdCreateFile, "CreateFile", s.createFile),
		s.command(CmdDeleteFile, "DeleteFile", s.pathOp(provider.FileSystem.DeleteFile)),
		s.command(CmdCreateDirectory, "CreateDirectory", s.pathOp(provider.FileSystem.CreateDirectory)),
		s.command(CmdDeleteDirectory, "DeleteDirectory", s.pathOp(provider.FileSystem.DeleteDirectory)),
		s.command(CmdDeleteDirectoryRecursively, "DeleteDirectoryRecursively", s.pathOp(provider.FileSystem.DeleteDirectoryRecursively)),
		s.command(CmdRenameFile, "RenameFile", s.renameOp(provider.FileSystem.RenameFile)),
		s.command(CmdRenameDirectory, "RenameDirectory", s.renameOp(provider.FileSystem.RenameDirectory)),
		s.command(CmdGetEntryType, "GetEntryType", s.getEntryType),
		s.command(CmdOpenFile, "OpenFile", s.openFile),
		s.command(CmdOpenDirectory, "OpenDirectory", s.openDirectory),
		s.command(CmdCommit, "Commit", s.commit),
		s.command(CmdGetFreeSpaceSize, "GetFreeSpaceSize", s.sizeOp(provider.FileSystem.GetFreeSpaceSize)),
		s.command(CmdGetTotalSpaceSize, "GetTotalSpaceSize", s.sizeOp(provider.FileSystem.GetTotalSpaceSize)),
		s.command(CmdCleanDirectoryRecursively, "CleanDirectoryRecursively", s.pathOp(provider.FileSystem.CleanDirectoryRecursively)),
		s.command(CmdGetFileTimeStampRaw, "GetFileTimeStampRaw", s.getFileTimeStampRaw),
	)
	return s
}

// NewFileSystemRef wraps fs in a reference whose last release closes it.
func NewFileSystemRef(fs provider.FileSystem) *resource.Ref[provider.FileSystem] {
	return resource.NewRef(fs, func(fs provider.FileSystem) {
		if err := fs.Close(); err != nil {
			ipc.Logger().Warn("close filesystem", zap.Error(err))
		}
	})
}

func (s *FileSystemService) Name() string {
	return "filesystem"
}

func (s *FileSystemService) Commands() ipc.CommandTable {
	return s.commands
}

// Dispose releases the provider reference. Later calls do nothing.
func (s *FileSystemService) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.fs.Release()
}

// Disposed reports whether Dispose has run.
func (s *FileSystemService) Disposed() bool {
	return s.disposed.Load()
}

// BaseFileSystem returns the provider reference held by the service.
func (s *FileSystemService) BaseFileSystem() *resource.Ref[provider.FileSystem] {
	return s.fs
}

// command guards h against dispatch after Dispose.
func (s *FileSystemService) command(id uint32, name string, h ipc.Handler) ipc.Command {
	return ipc.Command{ID: id, Name: name, Handler: func(ctx *ipc.Context) (result.Code, error) {
		if s.disposed.Load() {
			return result.Success, errors.Disposed(s.Name())
		}
		return h(ctx)
	}}
}

func (s *FileSystemService) target() provider.FileSystem {
	return s.fs.Target()
}

func (s *FileSystemService) pathOp(op func(provider.FileSystem, string) error) ipc.Handler {
	return func(ctx *ipc.Context) (result.Code, error) {
		path, err := resolvePath(ctx, 0)
		if err != nil {
			return result.Success, err
		}
		return translate(op(s.target(), path)), nil
	}
}

func (s *FileSystemService) renameOp(op func(provider.FileSystem, string, string) error) ipc.Handler {
	return func(ctx *ipc.Context) (result.Code, error) {
		src, err := resolvePath(ctx, 0)
		if err != nil {
			return result.Success, err
		}
		dst, err := resolvePath(ctx, 1)
		if err != nil {
			return result.Success, err
		}
		return translate(op(s.target(), src, dst)), nil
	}
}

func (s *FileSystemService) sizeOp(op func(provider.FileSystem, string) (int64, error)) ipc.Handler {
	return func(ctx *ipc.Context) (result.Code, error) {
		path, err := resolvePath(ctx, 0)
		if err != nil {
			return result.Success, err
		}
		size, perr := op(s.target(), path)
		if err := ctx.Out.WriteI64(size); err != nil {
			return result.Success, err
		}
		return translate(perr), nil
	}
}

func (s *FileSystemService) createFile(ctx *ipc.Context) (result.Code, error) {
	path, err := resolvePath(ctx, 0)
	if err != nil {
		return result.Success, err
	}
	option, err := ctx.In.ReadU32()
	if err != nil {
		return result.Success, err
	}
	if err := ctx.In.Skip(4); err != nil {
		return result.Success, err
	}
	size, err := ctx.In.ReadI64()
	if err != nil {
		return result.Success, err
	}
	return translate(s.target().CreateFile(path, size, provider.CreateOption(option))), nil
}

func (s *FileSystemService) getEntryType(ctx *ipc.Context) (result.Code, error) {
	path, err := resolvePath(ctx, 0)
	if err != nil {
		return result.Success, err
	}
	typ, perr := s.target().GetEntryType(path)
	if err := ctx.Out.WriteU32(uint32(typ)); err != nil {
		return result.Success, err
	}
	return translate(perr), nil
}

func (s *FileSystemService) openFile(ctx *ipc.Context) (result.Code, error) {
	mode, err := ctx.In.ReadU32()
	if err != nil {
		return result.Success, err
	}
	path, err := resolvePath(ctx, 0)
	if err != nil {
		return result.Success, err
	}
	file, perr := s.target().OpenFile(path, provider.OpenMode(mode))
	if perr != nil {
		return translate(perr), nil
	}
	child := NewFileService(file, s.fs.Clone())
	if _, err := ctx.Publish(child); err != nil {
		child.Dispose()
		return result.Success, err
	}
	return result.Success, nil
}

func (s *FileSystemService) openDirectory(ctx *ipc.Context) (result.Code, error) {
	filter, err := ctx.In.ReadU32()
	if err != nil {
		return result.Success, err
	}
	path, err := resolvePath(ctx, 0)
	if err != nil {
		return result.Success, err
	}
	dir, perr := s.target().OpenDirectory(path, provider.DirectoryFilter(filter))
	if perr != nil {
		return translate(perr), nil
	}
	child := NewDirectoryService(dir, s.fs.Clone())
	if _, err := ctx.Publish(child); err != nil {
		child.Dispose()
		return result.Success, err
	}
	return result.Success, nil
}

func (s *FileSystemService) commit(*ipc.Context) (result.Code, error) {
	return translate(s.target().Commit()), nil
}

func (s *FileSystemService) getFileTimeStampRaw(ctx *ipc.Context) (result.Code, error) {
	path, err := resolvePath(ctx, 0)
	if err != nil {
		return result.Success, err
	}
	ts, perr := s.target().GetFileTimeStampRaw(path)
	for _, v := range [...]int64{ts.Created, ts.Modified, ts.Accessed} {
		if err := ctx.Out.WriteI64(v); err != nil {
			return result.Success, err
		}
	}
	if err := ctx.Out.WriteU8(TimeStampValid); err != nil {
		return result.Success, err
	}
	if err := ctx.Out.WriteZeros(7); err != nil {
		return result.Success, err
	}
	return translate(perr), nil
}
