package hostfs

import (
	"os"

	"github.com/wippyai/fsproxy/provider"
)

// Directory is a listing captured when the directory was opened.
type Directory struct {
	entries []provider.DirectoryEntry
	pos     int
}

var _ provider.Directory = (*Directory)(nil)

func listDirectory(host string, filter provider.DirectoryFilter) ([]provider.DirectoryEntry, error) {
	dirents, err := os.ReadDir(host)
	if err != nil {
		return nil, err
	}
	entries := make([]provider.DirectoryEntry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			// removed between ReadDir and Info
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		t := entryType(info)
		if !filter.Includes(t) {
			continue
		}
		e := provider.DirectoryEntry{Name: d.Name(), Type: t}
		if t == provider.EntryFile && filter&provider.FilterNoFileSize == 0 {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (d *Directory) Read(entries []provider.DirectoryEntry) (int, error) {
	n := copy(entries, d.entries[d.pos:])
	d.pos += n
	return n, nil
}

func (d *Directory) GetEntryCount() (int64, error) {
	return int64(len(d.entries)), nil
}

func (d *Directory) Close() error {
	d.entries = nil
	return nil
}
