package fsp

import (
	"bytes"

	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/wire"
)

// DirectoryEntrySize is the encoded size of one directory entry:
// name [0x301], 3 bytes padding, type u8, 3 bytes padding, size i64.
const DirectoryEntrySize = 0x310

// EncodeDirectoryEntry appends e to w. Names longer than
// wire.MaxPathLength are cut to fit.
func EncodeDirectoryEntry(w *wire.Writer, e provider.DirectoryEntry) error {
	name := []byte(e.Name)
	if len(name) > wire.MaxPathLength {
		name = name[:wire.MaxPathLength]
	}
	if err := w.WriteBytes(name); err != nil {
		return err
	}
	if err := w.WriteZeros(wire.MaxPathSize - len(name) + 3); err != nil {
		return err
	}
	if err := w.WriteU8(uint8(e.Type)); err != nil {
		return err
	}
	if err := w.WriteZeros(3); err != nil {
		return err
	}
	return w.WriteI64(e.Size)
}

// DecodeDirectoryEntry reads one entry written by EncodeDirectoryEntry.
func DecodeDirectoryEntry(r *wire.Reader) (provider.DirectoryEntry, error) {
	name, err := r.ReadBytes(wire.MaxPathSize)
	if err != nil {
		return provider.DirectoryEntry{}, err
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if err := r.Skip(3); err != nil {
		return provider.DirectoryEntry{}, err
	}
	typ, err := r.ReadU8()
	if err != nil {
		return provider.DirectoryEntry{}, err
	}
	if err := r.Skip(3); err != nil {
		return provider.DirectoryEntry{}, err
	}
	size, err := r.ReadI64()
	if err != nil {
		return provider.DirectoryEntry{}, err
	}
	return provider.DirectoryEntry{Name: string(name), Type: provider.EntryType(typ), Size: size}, nil
}
