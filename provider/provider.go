package provider

// EntryType classifies a filesystem entry.
type EntryType uint32

const (
	EntryDirectory EntryType = 0
	EntryFile      EntryType = 1
)

func (t EntryType) String() string {
	switch t {
	case EntryDirectory:
		return "directory"
	case EntryFile:
		return "file"
	default:
		return "unknown"
	}
}

// OpenMode is the access requested by OpenFile.
type OpenMode uint32

const (
	OpenRead        OpenMode = 1 << 0
	OpenWrite       OpenMode = 1 << 1
	OpenAllowAppend OpenMode = 1 << 2

	openModeAll = OpenRead | OpenWrite | OpenAllowAppend
)

// Valid reports whether m requests at least read or write and carries no
// unknown bits.
func (m OpenMode) Valid() bool {
	return m&^openModeAll == 0 && m&(OpenRead|OpenWrite) != 0
}

func (m OpenMode) CanRead() bool { return m&OpenRead != 0 }
func (m OpenMode) CanWrite() bool { return m&OpenWrite != 0 }
func (m OpenMode) CanAppend() bool { return m&OpenAllowAppend != 0 }

// CreateOption modifies CreateFile.
type CreateOption uint32

const (
	CreateBigFile CreateOption = 1 << 0
)

// DirectoryFilter selects which entries a Directory yields.
type DirectoryFilter uint32

const (
	FilterDirectories DirectoryFilter = 1 << 0
	FilterFiles       DirectoryFilter = 1 << 1
	FilterNoFileSize  DirectoryFilter = 1 << 31

	FilterAll = FilterDirectories | FilterFiles
)

// Includes reports whether entries of type t pass the filter.
func (f DirectoryFilter) Includes(t EntryType) bool {
	switch t {
	case EntryDirectory:
		return f&FilterDirectories != 0
	case EntryFile:
		return f&FilterFiles != 0
	default:
		return false
	}
}

// WriteOption modifies File.Write.
type WriteOption uint32

const (
	WriteFlush WriteOption = 1 << 0
)

// FileTimeStampRaw holds POSIX second timestamps of an entry.
type FileTimeStampRaw struct {
	Created  int64
	Modified int64
	Accessed int64
}

// DirectoryEntry is one listing record.
type DirectoryEntry struct {
	Name string
	Type EntryType
	Size int64
}

// FileSystem is the capability the proxy forwards commands to. Failures are
// reported as errors; an error that is or wraps a result.Code is sent to
// the client verbatim.
type FileSystem interface {
	CreateFile(path string, size int64, option CreateOption) error
	DeleteFile(path string) error
	CreateDirectory(path string) error
	DeleteDirectory(path string) error
	DeleteDirectoryRecursively(path string) error
	CleanDirectoryRecursively(path string) error
	RenameFile(src, dst string) error
	RenameDirectory(src, dst string) error
	GetEntryType(path string) (EntryType, error)
	OpenFile(path string, mode OpenMode) (File, error)
	OpenDirectory(path string, filter DirectoryFilter) (Directory, error)
	Commit() error
	GetFreeSpaceSize(path string) (int64, error)
	GetTotalSpaceSize(path string) (int64, error)
	GetFileTimeStampRaw(path string) (FileTimeStampRaw, error)

	// Close releases the filesystem. It is called once, by the last holder.
	Close() error
}

// File is an open file returned by FileSystem.OpenFile.
type File interface {
	// Read fills buf from offset and returns the number of bytes read.
	// Reading at or past the end returns 0 without error.
	Read(offset int64, buf []byte) (int64, error)
	Write(offset int64, data []byte, option WriteOption) error
	Flush() error
	SetSize(size int64) error
	GetSize() (int64, error)
	Close() error
}

// Directory is an open listing returned by FileSystem.OpenDirectory. Read
// continues where the previous call stopped.
type Directory interface {
	Read(entries []DirectoryEntry) (int, error)
	GetEntryCount() (int64, error)
	Close() error
}
