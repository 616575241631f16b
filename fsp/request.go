package fsp

import (
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/wire"
)

// Request builders for clients. Each returns a request addressed to object.

// PathRequest builds a command whose only inputs are path attachments.
func PathRequest(object, command uint32, paths ...string) (*ipc.Request, error) {
	req := &ipc.Request{Object: object, Command: command}
	for _, p := range paths {
		buf, err := wire.EncodePath(p)
		if err != nil {
			return nil, err
		}
		req.Buffers = append(req.Buffers, buf)
	}
	return req, nil
}

// CreateFileRequest builds CreateFile(option, size, path).
func CreateFileRequest(object uint32, path string, size int64, option provider.CreateOption) (*ipc.Request, error) {
	req, err := PathRequest(object, CmdCreateFile, path)
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(16)
	w.WriteU32(uint32(option))
	w.WriteZeros(4)
	w.WriteI64(size)
	req.Data = w.Bytes()
	return req, nil
}

// OpenFileRequest builds OpenFile(mode, path).
func OpenFileRequest(object uint32, path string, mode provider.OpenMode) (*ipc.Request, error) {
	return u32PathRequest(object, CmdOpenFile, uint32(mode), path)
}

// OpenDirectoryRequest builds OpenDirectory(filter, path).
func OpenDirectoryRequest(object uint32, path string, filter provider.DirectoryFilter) (*ipc.Request, error) {
	return u32PathRequest(object, CmdOpenDirectory, uint32(filter), path)
}

func u32PathRequest(object, command, v uint32, path string) (*ipc.Request, error) {
	req, err := PathRequest(object, command, path)
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(4)
	w.WriteU32(v)
	req.Data = w.Bytes()
	return req, nil
}

// FileReadRequest builds File.Read of size bytes at offset.
func FileReadRequest(object uint32, offset, size int64) *ipc.Request {
	capacity := size
	if capacity < 0 {
		capacity = 0
	}
	if capacity > ipc.MaxOutBufferSize {
		capacity = ipc.MaxOutBufferSize
	}
	return &ipc.Request{
		Object:     object,
		Command:    CmdFileRead,
		Data:       rangeData(0, offset, size),
		OutBuffers: []uint32{uint32(capacity)},
	}
}

// FileWriteRequest builds File.Write of data at offset.
func FileWriteRequest(object uint32, offset int64, data []byte, option provider.WriteOption) *ipc.Request {
	return &ipc.Request{
		Object:  object,
		Command: CmdFileWrite,
		Data:    rangeData(uint32(option), offset, int64(len(data))),
		Buffers: [][]byte{data},
	}
}

// FileSetSizeRequest builds File.SetSize(size).
func FileSetSizeRequest(object uint32, size int64) *ipc.Request {
	w := wire.NewWriter(8)
	w.WriteI64(size)
	return &ipc.Request{Object: object, Command: CmdFileSetSize, Data: w.Bytes()}
}

// DirectoryReadRequest builds Directory.Read with room for count entries.
func DirectoryReadRequest(object uint32, count int) *ipc.Request {
	if count < 0 {
		count = 0
	}
	if limit := ipc.MaxOutBufferSize / DirectoryEntrySize; count > limit {
		count = limit
	}
	return &ipc.Request{
		Object:     object,
		Command:    CmdDirectoryRead,
		OutBuffers: []uint32{uint32(count * DirectoryEntrySize)},
	}
}

func rangeData(option uint32, offset, size int64) []byte {
	w := wire.NewWriter(24)
	w.WriteU32(option)
	w.WriteZeros(4)
	w.WriteI64(offset)
	w.WriteI64(size)
	return w.Bytes()
}
