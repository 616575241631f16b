package fsp

import (
	"fmt"
	"strings"

	"github.com/wippyai/fsproxy/provider"
)

// fakeFS records every provider call and returns err (if set) from all of
// them.
type fakeFS struct {
	calls  []string
	err    error
	closed int

	entryType provider.EntryType
	space     int64
	times     provider.FileTimeStampRaw

	file *fakeFile
	dir  *fakeDir
}

func (f *fakeFS) record(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeFS) last() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeFS) CreateFile(path string, size int64, option provider.CreateOption) error {
	return f.record("CreateFile(%s,%d,%d)", path, size, option)
}

func (f *fakeFS) DeleteFile(path string) error {
	return f.record("DeleteFile(%s)", path)
}

func (f *fakeFS) CreateDirectory(path string) error {
	return f.record("CreateDirectory(%s)", path)
}

func (f *fakeFS) DeleteDirectory(path string) error {
	return f.record("DeleteDirectory(%s)", path)
}

func (f *fakeFS) DeleteDirectoryRecursively(path string) error {
	return f.record("DeleteDirectoryRecursively(%s)", path)
}

func (f *fakeFS) CleanDirectoryRecursively(path string) error {
	return f.record("CleanDirectoryRecursively(%s)", path)
}

func (f *fakeFS) RenameFile(src, dst string) error {
	return f.record("RenameFile(%s,%s)", src, dst)
}

func (f *fakeFS) RenameDirectory(src, dst string) error {
	return f.record("RenameDirectory(%s,%s)", src, dst)
}

func (f *fakeFS) GetEntryType(path string) (provider.EntryType, error) {
	return f.entryType, f.record("GetEntryType(%s)", path)
}

func (f *fakeFS) OpenFile(path string, mode provider.OpenMode) (provider.File, error) {
	if err := f.record("OpenFile(%s,%d)", path, mode); err != nil {
		return nil, err
	}
	if f.file == nil {
		f.file = &fakeFile{}
	}
	return f.file, nil
}

func (f *fakeFS) OpenDirectory(path string, filter provider.DirectoryFilter) (provider.Directory, error) {
	if err := f.record("OpenDirectory(%s,%d)", path, filter); err != nil {
		return nil, err
	}
	if f.dir == nil {
		f.dir = &fakeDir{}
	}
	return f.dir, nil
}

func (f *fakeFS) Commit() error {
	return f.record("Commit()")
}

func (f *fakeFS) GetFreeSpaceSize(path string) (int64, error) {
	return f.space, f.record("GetFreeSpaceSize(%s)", path)
}

func (f *fakeFS) GetTotalSpaceSize(path string) (int64, error) {
	return f.space * 2, f.record("GetTotalSpaceSize(%s)", path)
}

func (f *fakeFS) GetFileTimeStampRaw(path string) (provider.FileTimeStampRaw, error) {
	return f.times, f.record("GetFileTimeStampRaw(%s)", path)
}

func (f *fakeFS) Close() error {
	f.closed++
	return nil
}

// fakeFile is an in-memory file that always permits append.
type fakeFile struct {
	data    []byte
	closed  int
	flushed int
	err     error
}

func (f *fakeFile) Read(offset int64, buf []byte) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if offset >= int64(len(f.data)) {
		return 0, nil
	}
	return int64(copy(buf, f.data[offset:])), nil
}

func (f *fakeFile) Write(offset int64, data []byte, option provider.WriteOption) error {
	if f.err != nil {
		return f.err
	}
	if end := offset + int64(len(data)); end > int64(len(f.data)) {
		f.data = append(f.data, make([]byte, end-int64(len(f.data)))...)
	}
	copy(f.data[offset:], data)
	if option&provider.WriteFlush != 0 {
		f.flushed++
	}
	return nil
}

func (f *fakeFile) Flush() error {
	f.flushed++
	return f.err
}

func (f *fakeFile) SetSize(size int64) error {
	if f.err != nil {
		return f.err
	}
	if size < int64(len(f.data)) {
		f.data = f.data[:size]
	} else {
		f.data = append(f.data, make([]byte, size-int64(len(f.data)))...)
	}
	return nil
}

func (f *fakeFile) GetSize() (int64, error) {
	return int64(len(f.data)), f.err
}

func (f *fakeFile) Close() error {
	f.closed++
	return nil
}

type fakeDir struct {
	entries []provider.DirectoryEntry
	pos     int
	closed  int
}

func (d *fakeDir) Read(out []provider.DirectoryEntry) (int, error) {
	n := copy(out, d.entries[d.pos:])
	d.pos += n
	return n, nil
}

func (d *fakeDir) GetEntryCount() (int64, error) {
	return int64(len(d.entries)), nil
}

func (d *fakeDir) Close() error {
	d.closed++
	return nil
}

// pathCommands lists the commands that take a path at attachment 0, with
// the scalar data they need in front of it.
var pathCommands = []struct {
	id   uint32
	name string
	data []byte
}{
	{CmdCreateFile, "CreateFile", make([]byte, 16)},
	{CmdDeleteFile, "DeleteFile", nil},
	{CmdCreateDirectory, "CreateDirectory", nil},
	{CmdDeleteDirectory, "DeleteDirectory", nil},
	{CmdDeleteDirectoryRecursively, "DeleteDirectoryRecursively", nil},
	{CmdRenameFile, "RenameFile", nil},
	{CmdRenameDirectory, "RenameDirectory", nil},
	{CmdGetEntryType, "GetEntryType", nil},
	{CmdOpenFile, "OpenFile", []byte{1, 0, 0, 0}},
	{CmdOpenDirectory, "OpenDirectory", []byte{3, 0, 0, 0}},
	{CmdGetFreeSpaceSize, "GetFreeSpaceSize", nil},
	{CmdGetTotalSpaceSize, "GetTotalSpaceSize", nil},
	{CmdCleanDirectoryRecursively, "CleanDirectoryRecursively", nil},
	{CmdGetFileTimeStampRaw, "GetFileTimeStampRaw", nil},
}

func pathBuf(s string) []byte {
	return append([]byte(s), 0)
}

func longPath() []byte {
	return pathBuf(strings.Repeat("a", 0x301))
}

var errNoStatus = fmt.Errorf("disk on fire")
