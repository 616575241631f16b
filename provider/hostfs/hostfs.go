package hostfs

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/result"
)

// FS is a provider.FileSystem confined to a host directory. Client paths
// are absolute ("/save/data.bin") and resolve below the root.
type FS struct {
	root   string
	real   string
	closed atomic.Bool
}

var _ provider.FileSystem = (*FS)(nil)

// New returns a provider rooted at dir, which must be an existing directory.
func New(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProvider, errors.KindInvalidInput, err, "resolve root")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProvider, errors.KindNotFound, err, "stat root")
	}
	if !info.IsDir() {
		return nil, errors.InvalidInput(errors.PhaseProvider, abs+" is not a directory")
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProvider, errors.KindIO, err, "resolve root links")
	}
	return &FS{root: abs, real: real}, nil
}

// Root returns the host directory backing the filesystem.
func (f *FS) Root() string {
	return f.root
}

// resolve maps a client path to a host path. It rejects relative paths,
// any ".." that climbs above the root, and paths whose existing part leads
// out of the root through a symbolic link.
func (f *FS) resolve(path string) (string, error) {
	if path == "" {
		return "", result.ErrInvalidPath
	}
	if path[0] != '/' {
		return "", result.ErrInvalidPathFormat
	}
	parts := make([]string, 0, strings.Count(path, "/"))
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return "", result.ErrInvalidPath
			}
			parts = parts[:len(parts)-1]
		default:
			if strings.ContainsRune(part, '\\') {
				return "", result.ErrInvalidPathFormat
			}
			parts = append(parts, part)
		}
	}
	host := filepath.Join(append([]string{f.root}, parts...)...)
	if err := f.confine(host); err != nil {
		return "", err
	}
	return host, nil
}

// confine follows symbolic links on the longest existing prefix of host and
// requires the result to stay below the root. Dangling links are rejected.
func (f *FS) confine(host string) error {
	for p := host; ; p = filepath.Dir(p) {
		if _, err := os.Lstat(p); err != nil {
			if !stderrors.Is(err, fs.ErrNotExist) || p == f.root {
				// the operation reports its own error
				return nil
			}
			continue
		}
		real, err := filepath.EvalSymlinks(p)
		if err != nil {
			return result.ErrInvalidPath
		}
		if !f.within(real) {
			return result.ErrInvalidPath
		}
		return nil
	}
}

func (f *FS) within(real string) bool {
	rel, err := filepath.Rel(f.real, real)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (f *FS) isRoot(host string) bool {
	return host == f.root
}

// stat resolves path and requires it to exist with the given type.
func (f *FS) stat(op, path string, want provider.EntryType) (string, fs.FileInfo, error) {
	host, err := f.resolve(path)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(host)
	if err != nil {
		return "", nil, fail(op, path, err)
	}
	if entryType(info) != want {
		return "", nil, result.ErrPathNotFound
	}
	return host, info, nil
}

func entryType(info fs.FileInfo) provider.EntryType {
	if info.IsDir() {
		return provider.EntryDirectory
	}
	return provider.EntryFile
}

func (f *FS) CreateFile(path string, size int64, _ provider.CreateOption) error {
	if size < 0 {
		return result.ErrOutOfRange
	}
	host, err := f.resolve(path)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(host, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fail("create_file", path, err)
	}
	defer file.Close()
	if size > 0 {
		if err := file.Truncate(size); err != nil {
			os.Remove(host)
			return fail("create_file", path, err)
		}
	}
	return nil
}

func (f *FS) DeleteFile(path string) error {
	host, _, err := f.stat("delete_file", path, provider.EntryFile)
	if err != nil {
		return err
	}
	return fail("delete_file", path, os.Remove(host))
}

func (f *FS) CreateDirectory(path string) error {
	host, err := f.resolve(path)
	if err != nil {
		return err
	}
	return fail("create_directory", path, os.Mkdir(host, 0o755))
}

func (f *FS) DeleteDirectory(path string) error {
	host, _, err := f.stat("delete_directory", path, provider.EntryDirectory)
	if err != nil {
		return err
	}
	if f.isRoot(host) {
		return result.ErrPermissionDenied
	}
	return fail("delete_directory", path, os.Remove(host))
}

func (f *FS) DeleteDirectoryRecursively(path string) error {
	host, _, err := f.stat("delete_directory_recursively", path, provider.EntryDirectory)
	if err != nil {
		return err
	}
	if f.isRoot(host) {
		return result.ErrPermissionDenied
	}
	return fail("delete_directory_recursively", path, os.RemoveAll(host))
}

func (f *FS) CleanDirectoryRecursively(path string) error {
	host, _, err := f.stat("clean_directory_recursively", path, provider.EntryDirectory)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(host)
	if err != nil {
		return fail("clean_directory_recursively", path, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(host, e.Name())); err != nil {
			return fail("clean_directory_recursively", path, err)
		}
	}
	return nil
}

func (f *FS) RenameFile(src, dst string) error {
	return f.rename("rename_file", src, dst, provider.EntryFile)
}

func (f *FS) RenameDirectory(src, dst string) error {
	return f.rename("rename_directory", src, dst, provider.EntryDirectory)
}

func (f *FS) rename(op, src, dst string, want provider.EntryType) error {
	from, _, err := f.stat(op, src, want)
	if err != nil {
		return err
	}
	to, err := f.resolve(dst)
	if err != nil {
		return err
	}
	if f.isRoot(from) || f.isRoot(to) {
		return result.ErrPermissionDenied
	}
	if _, err := os.Lstat(to); err == nil {
		return result.ErrPathAlreadyExists
	}
	if want == provider.EntryDirectory && strings.HasPrefix(to, from+string(filepath.Separator)) {
		return result.ErrInvalidPath
	}
	return fail(op, src, os.Rename(from, to))
}

func (f *FS) GetEntryType(path string) (provider.EntryType, error) {
	host, err := f.resolve(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(host)
	if err != nil {
		return 0, fail("get_entry_type", path, err)
	}
	return entryType(info), nil
}

func (f *FS) OpenFile(path string, mode provider.OpenMode) (provider.File, error) {
	if !mode.Valid() {
		return nil, result.ErrInvalidOpenMode
	}
	host, _, err := f.stat("open_file", path, provider.EntryFile)
	if err != nil {
		return nil, err
	}
	flag := os.O_RDONLY
	switch {
	case mode.CanRead() && mode.CanWrite():
		flag = os.O_RDWR
	case mode.CanWrite():
		flag = os.O_WRONLY
	}
	file, err := os.OpenFile(host, flag, 0)
	if err != nil {
		return nil, fail("open_file", path, err)
	}
	return &File{file: file, mode: mode}, nil
}

func (f *FS) OpenDirectory(path string, filter provider.DirectoryFilter) (provider.Directory, error) {
	if filter&provider.FilterAll == 0 || filter&^(provider.FilterAll|provider.FilterNoFileSize) != 0 {
		return nil, result.ErrInvalidOpenMode
	}
	host, _, err := f.stat("open_directory", path, provider.EntryDirectory)
	if err != nil {
		return nil, err
	}
	entries, err := listDirectory(host, filter)
	if err != nil {
		return nil, fail("open_directory", path, err)
	}
	return &Directory{entries: entries}, nil
}

// Commit is a no-op: every operation reaches the host filesystem directly.
func (f *FS) Commit() error {
	return nil
}

func (f *FS) GetFreeSpaceSize(path string) (int64, error) {
	host, err := f.existing("get_free_space_size", path)
	if err != nil {
		return 0, err
	}
	free, _, err := diskSpace(host)
	if err != nil {
		return 0, fail("get_free_space_size", path, err)
	}
	return free, nil
}

func (f *FS) GetTotalSpaceSize(path string) (int64, error) {
	host, err := f.existing("get_total_space_size", path)
	if err != nil {
		return 0, err
	}
	_, total, err := diskSpace(host)
	if err != nil {
		return 0, fail("get_total_space_size", path, err)
	}
	return total, nil
}

func (f *FS) GetFileTimeStampRaw(path string) (provider.FileTimeStampRaw, error) {
	host, _, err := f.stat("get_file_time_stamp_raw", path, provider.EntryFile)
	if err != nil {
		return provider.FileTimeStampRaw{}, err
	}
	ts, err := timestamps(host)
	if err != nil {
		return provider.FileTimeStampRaw{}, fail("get_file_time_stamp_raw", path, err)
	}
	return ts, nil
}

// Close marks the filesystem closed. Open files and directories stay usable.
func (f *FS) Close() error {
	f.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (f *FS) Closed() bool {
	return f.closed.Load()
}

func (f *FS) existing(op, path string) (string, error) {
	host, err := f.resolve(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(host); err != nil {
		return "", fail(op, path, err)
	}
	return host, nil
}
