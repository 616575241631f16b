package fsp

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/result"
	"github.com/wippyai/fsproxy/wire"
)

func openFile(t *testing.T, fs *fakeFS) (*ipc.Session, uint32) {
	t.Helper()
	sess, _ := newSession(t, fs)
	req, _ := OpenFileRequest(sess.Root(), "/f", provider.OpenRead|provider.OpenWrite)
	resp := handle(t, sess, req)
	if resp.Status != result.Success || len(resp.Objects) != 1 {
		t.Fatalf("OpenFile = %+v", resp)
	}
	return sess, resp.Objects[0]
}

func i64(t *testing.T, data []byte) int64 {
	t.Helper()
	if len(data) != 8 {
		t.Fatalf("payload = %x, want 8 bytes", data)
	}
	return int64(binary.LittleEndian.Uint64(data))
}

func TestFileReadWrite(t *testing.T) {
	fs := &fakeFS{}
	sess, file := openFile(t, fs)

	resp := handle(t, sess, FileWriteRequest(file, 0, []byte("hello world"), provider.WriteFlush))
	if resp.Status != result.Success {
		t.Fatalf("Write = %s", resp.Status)
	}
	if fs.file.flushed != 1 {
		t.Errorf("flush option ignored")
	}

	resp = handle(t, sess, FileReadRequest(file, 6, 16))
	if resp.Status != result.Success {
		t.Fatalf("Read = %s", resp.Status)
	}
	if n := i64(t, resp.Data); n != 5 {
		t.Errorf("bytes read = %d", n)
	}
	if len(resp.OutBuffers) != 1 || string(resp.OutBuffers[0]) != "world" {
		t.Errorf("out buffer = %q", resp.OutBuffers)
	}

	resp = handle(t, sess, &ipc.Request{Object: file, Command: CmdFileGetSize})
	if n := i64(t, resp.Data); n != 11 {
		t.Errorf("GetSize = %d", n)
	}

	resp = handle(t, sess, FileSetSizeRequest(file, 4))
	if resp.Status != result.Success || len(fs.file.data) != 4 {
		t.Errorf("SetSize = %s, size %d", resp.Status, len(fs.file.data))
	}

	resp = handle(t, sess, &ipc.Request{Object: file, Command: CmdFileFlush})
	if resp.Status != result.Success || fs.file.flushed != 2 {
		t.Errorf("Flush = %s, flushed %d", resp.Status, fs.file.flushed)
	}
}

func TestFileArgumentChecks(t *testing.T) {
	fs := &fakeFS{}
	sess, file := openFile(t, fs)

	tests := []struct {
		name string
		req  *ipc.Request
		want result.Code
	}{
		{"read negative offset", FileReadRequest(file, -1, 4), result.ErrOutOfRange},
		{"read negative size", &ipc.Request{Object: file, Command: CmdFileRead, Data: rangeData(0, 0, -1), OutBuffers: []uint32{4}}, result.ErrOutOfRange},
		{"read buffer too small", &ipc.Request{Object: file, Command: CmdFileRead, Data: rangeData(0, 0, 8), OutBuffers: []uint32{4}}, result.ErrInvalidSize},
		{"read without buffer", &ipc.Request{Object: file, Command: CmdFileRead, Data: rangeData(0, 0, 8)}, result.ErrNullptrArgument},
		{"read truncated", &ipc.Request{Object: file, Command: CmdFileRead, Data: make([]byte, 12), OutBuffers: []uint32{4}}, result.ErrOutOfRange},
		{"write size beyond buffer", &ipc.Request{Object: file, Command: CmdFileWrite, Data: rangeData(0, 0, 8), Buffers: [][]byte{{1}}}, result.ErrInvalidSize},
		{"write negative offset", FileWriteRequest(file, -4, []byte{1}, 0), result.ErrOutOfRange},
		{"write without buffer", &ipc.Request{Object: file, Command: CmdFileWrite, Data: rangeData(0, 0, 1)}, result.ErrNullptrArgument},
		{"set negative size", FileSetSizeRequest(file, -1), result.ErrOutOfRange},
		{"unknown", &ipc.Request{Object: file, Command: 9}, result.ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, sess, tt.req)
			if resp.Status != tt.want {
				t.Errorf("status = %s, want %s", resp.Status, tt.want)
			}
		})
	}
	if len(fs.file.data) != 0 {
		t.Errorf("rejected writes reached the file: %q", fs.file.data)
	}
}

func TestFileProviderFailure(t *testing.T) {
	fs := &fakeFS{}
	sess, file := openFile(t, fs)
	fs.file.err = result.ErrReadNotPermitted

	resp := handle(t, sess, FileReadRequest(file, 0, 4))
	if resp.Status != result.ErrReadNotPermitted {
		t.Errorf("status = %s", resp.Status)
	}
	if n := i64(t, resp.Data); n != 0 {
		t.Errorf("bytes read = %d", n)
	}
	if len(resp.OutBuffers) != 1 || len(resp.OutBuffers[0]) != 0 {
		t.Errorf("out buffer = %q", resp.OutBuffers)
	}
}

func TestDirectoryRead(t *testing.T) {
	fs := &fakeFS{dir: &fakeDir{entries: []provider.DirectoryEntry{
		{Name: "a.bin", Type: provider.EntryFile, Size: 10},
		{Name: "b.bin", Type: provider.EntryFile, Size: 20},
		{Name: "sub", Type: provider.EntryDirectory},
	}}}
	sess, _ := newSession(t, fs)

	req, _ := OpenDirectoryRequest(sess.Root(), "/", provider.FilterAll)
	resp := handle(t, sess, req)
	if resp.Status != result.Success || len(resp.Objects) != 1 {
		t.Fatalf("OpenDirectory = %+v", resp)
	}
	dir := resp.Objects[0]

	resp = handle(t, sess, &ipc.Request{Object: dir, Command: CmdDirectoryGetEntryCount})
	if n := i64(t, resp.Data); n != 3 {
		t.Errorf("GetEntryCount = %d", n)
	}

	var names []string
	for _, wantN := range []int64{2, 1, 0} {
		resp = handle(t, sess, DirectoryReadRequest(dir, 2))
		if resp.Status != result.Success {
			t.Fatalf("Read = %s", resp.Status)
		}
		n := i64(t, resp.Data)
		if n != wantN {
			t.Fatalf("Read returned %d entries, want %d", n, wantN)
		}
		out := resp.OutBuffers[0]
		if len(out) != int(n)*DirectoryEntrySize {
			t.Fatalf("out buffer = %d bytes", len(out))
		}
		r := wire.NewReader(out)
		for i := int64(0); i < n; i++ {
			e, err := DecodeDirectoryEntry(r)
			if err != nil {
				t.Fatal(err)
			}
			names = append(names, e.Name)
		}
	}
	if strings.Join(names, ",") != "a.bin,b.bin,sub" {
		t.Errorf("names = %v", names)
	}

	resp = handle(t, sess, &ipc.Request{Object: dir, Command: CmdDirectoryRead})
	if resp.Status != result.ErrNullptrArgument {
		t.Errorf("Read without buffer = %s", resp.Status)
	}
}

func TestDirectoryEntryLayout(t *testing.T) {
	w := wire.NewWriter(DirectoryEntrySize)
	e := provider.DirectoryEntry{Name: "save.dat", Type: provider.EntryFile, Size: 0x1122334455}
	if err := EncodeDirectoryEntry(w, e); err != nil {
		t.Fatal(err)
	}

	buf := w.Bytes()
	if len(buf) != DirectoryEntrySize {
		t.Fatalf("entry = %d bytes", len(buf))
	}
	if !bytes.HasPrefix(buf, []byte("save.dat\x00")) {
		t.Errorf("name = %q", buf[:16])
	}
	if buf[0x304] != 1 {
		t.Errorf("type byte = %d", buf[0x304])
	}
	if got := binary.LittleEndian.Uint64(buf[0x308:]); got != 0x1122334455 {
		t.Errorf("size = %#x", got)
	}

	got, err := DecodeDirectoryEntry(wire.NewReader(buf))
	if err != nil || got != e {
		t.Errorf("decode = %+v, %v", got, err)
	}

	long := provider.DirectoryEntry{Name: strings.Repeat("n", 0x400)}
	w = wire.NewWriter(DirectoryEntrySize)
	if err := EncodeDirectoryEntry(w, long); err != nil {
		t.Fatalf("long name: %v", err)
	}
	got, _ = DecodeDirectoryEntry(wire.NewReader(w.Bytes()))
	if len(got.Name) != wire.MaxPathLength {
		t.Errorf("long name decoded to %d bytes", len(got.Name))
	}
}

func TestChildServicesDisposeOnce(t *testing.T) {
	fs := &fakeFS{}
	ref := NewFileSystemRef(fs)

	file := &fakeFile{}
	fsvc := NewFileService(file, ref.Clone())
	fsvc.Dispose()
	fsvc.Dispose()
	if file.closed != 1 {
		t.Errorf("file closed %d times", file.closed)
	}

	dir := &fakeDir{}
	dsvc := NewDirectoryService(dir, ref.Clone())
	dsvc.Dispose()
	dsvc.Dispose()
	if dir.closed != 1 {
		t.Errorf("directory closed %d times", dir.closed)
	}

	if ref.Count() != 1 || fs.closed != 0 {
		t.Errorf("references = %d, closed = %d", ref.Count(), fs.closed)
	}
	ref.Release()
	if fs.closed != 1 {
		t.Errorf("closed = %d", fs.closed)
	}
}
