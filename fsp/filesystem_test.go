package fsp

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/result"
)

func newSession(t *testing.T, fs *fakeFS) (*ipc.Session, *FileSystemService) {
	t.Helper()
	svc := NewFileSystemService(NewFileSystemRef(fs))
	sess, err := ipc.NewSession(svc)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess, svc
}

func handle(t *testing.T, sess *ipc.Session, req *ipc.Request) *ipc.Response {
	t.Helper()
	resp, err := sess.Handle(req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	return resp
}

func buffersFor(id uint32, first []byte) [][]byte {
	if id == CmdRenameFile || id == CmdRenameDirectory {
		return [][]byte{first, pathBuf("/dst")}
	}
	return [][]byte{first}
}

func TestUnknownCommand(t *testing.T) {
	fs := &fakeFS{}
	sess, _ := newSession(t, fs)

	for _, id := range []uint32{15, 99, 0xFFFF, 0x7FFFFFFF} {
		resp := handle(t, sess, &ipc.Request{
			Object:  sess.Root(),
			Command: id,
			Data:    make([]byte, 16),
			Buffers: [][]byte{pathBuf("/a")},
		})
		if resp.Status != result.ErrUnknownCommand {
			t.Errorf("command %d: status %s", id, resp.Status)
		}
		if len(resp.Data) != 0 || len(resp.Objects) != 0 {
			t.Errorf("command %d: response carries payload %+v", id, resp)
		}
	}
	if len(fs.calls) != 0 {
		t.Errorf("provider called: %v", fs.calls)
	}
}

func TestMalformedPathNeverReachesProvider(t *testing.T) {
	tests := []struct {
		name string
		buf  func(id uint32) [][]byte
		want result.Code
	}{
		{"too long", func(id uint32) [][]byte { return buffersFor(id, longPath()) }, result.ErrTooLongPath},
		{"unterminated", func(id uint32) [][]byte { return buffersFor(id, []byte("/abc")) }, result.ErrInvalidPathFormat},
		{"missing", func(uint32) [][]byte { return nil }, result.ErrNullptrArgument},
	}

	for _, tt := range tests {
		for _, cmd := range pathCommands {
			t.Run(tt.name+"/"+cmd.name, func(t *testing.T) {
				fs := &fakeFS{}
				sess, _ := newSession(t, fs)

				resp := handle(t, sess, &ipc.Request{
					Object:  sess.Root(),
					Command: cmd.id,
					Data:    cmd.data,
					Buffers: tt.buf(cmd.id),
				})
				if resp.Status != tt.want {
					t.Errorf("status = %s, want %s", resp.Status, tt.want)
				}
				if len(resp.Data) != 0 || len(resp.Objects) != 0 {
					t.Errorf("response carries payload %+v", resp)
				}
				if len(fs.calls) != 0 {
					t.Errorf("provider called: %v", fs.calls)
				}
			})
		}
	}
}

func TestRenameDestinationMalformed(t *testing.T) {
	for _, id := range []uint32{CmdRenameFile, CmdRenameDirectory} {
		fs := &fakeFS{}
		sess, _ := newSession(t, fs)

		resp := handle(t, sess, &ipc.Request{
			Object:  sess.Root(),
			Command: id,
			Buffers: [][]byte{pathBuf("/src"), longPath()},
		})
		if resp.Status != result.ErrTooLongPath {
			t.Errorf("command %d: status %s", id, resp.Status)
		}

		resp = handle(t, sess, &ipc.Request{
			Object:  sess.Root(),
			Command: id,
			Buffers: [][]byte{pathBuf("/src")},
		})
		if resp.Status != result.ErrNullptrArgument {
			t.Errorf("command %d without destination: status %s", id, resp.Status)
		}
		if len(fs.calls) != 0 {
			t.Errorf("provider called: %v", fs.calls)
		}
	}
}

func TestCreateFileDecode(t *testing.T) {
	fs := &fakeFS{}
	sess, _ := newSession(t, fs)

	data := make([]byte, 0, 16)
	data = binary.LittleEndian.AppendUint32(data, 0)
	data = append(data, 0xDE, 0xAD, 0xBE, 0xEF)
	data = binary.LittleEndian.AppendUint64(data, 4096)

	resp := handle(t, sess, &ipc.Request{
		Object:  sess.Root(),
		Command: CmdCreateFile,
		Data:    data,
		Buffers: [][]byte{pathBuf("/a/b")},
	})
	if resp.Status != result.Success {
		t.Fatalf("status = %s", resp.Status)
	}
	if got := fs.last(); got != "CreateFile(/a/b,4096,0)" {
		t.Errorf("provider call = %q", got)
	}

	req, _ := CreateFileRequest(sess.Root(), "/big", 1<<33, provider.CreateBigFile)
	handle(t, sess, req)
	if got := fs.last(); got != "CreateFile(/big,8589934592,1)" {
		t.Errorf("provider call = %q", got)
	}
}

func TestTruncatedHeader(t *testing.T) {
	tests := []struct {
		id   uint32
		data []byte
	}{
		{CmdCreateFile, make([]byte, 4)},
		{CmdCreateFile, make([]byte, 15)},
		{CmdOpenFile, make([]byte, 3)},
		{CmdOpenDirectory, nil},
	}

	for _, tt := range tests {
		fs := &fakeFS{}
		sess, _ := newSession(t, fs)
		resp := handle(t, sess, &ipc.Request{
			Object:  sess.Root(),
			Command: tt.id,
			Data:    tt.data,
			Buffers: [][]byte{pathBuf("/a")},
		})
		if resp.Status != result.ErrOutOfRange {
			t.Errorf("command %d with %d bytes: status %s", tt.id, len(tt.data), resp.Status)
		}
		if len(fs.calls) != 0 || len(resp.Objects) != 0 {
			t.Errorf("command %d: calls %v objects %v", tt.id, fs.calls, resp.Objects)
		}
	}
}

func TestProviderCalls(t *testing.T) {
	fs := &fakeFS{}
	sess, _ := newSession(t, fs)

	want := map[uint32]string{
		CmdCreateFile:                 "CreateFile(/p,0,0)",
		CmdDeleteFile:                 "DeleteFile(/p)",
		CmdCreateDirectory:            "CreateDirectory(/p)",
		CmdDeleteDirectory:            "DeleteDirectory(/p)",
		CmdDeleteDirectoryRecursively: "DeleteDirectoryRecursively(/p)",
		CmdRenameFile:                 "RenameFile(/p,/dst)",
		CmdRenameDirectory:            "RenameDirectory(/p,/dst)",
		CmdGetEntryType:               "GetEntryType(/p)",
		CmdOpenFile:                   "OpenFile(/p,1)",
		CmdOpenDirectory:              "OpenDirectory(/p,3)",
		CmdGetFreeSpaceSize:           "GetFreeSpaceSize(/p)",
		CmdGetTotalSpaceSize:          "GetTotalSpaceSize(/p)",
		CmdCleanDirectoryRecursively:  "CleanDirectoryRecursively(/p)",
		CmdGetFileTimeStampRaw:        "GetFileTimeStampRaw(/p)",
	}

	for _, cmd := range pathCommands {
		resp := handle(t, sess, &ipc.Request{
			Object:  sess.Root(),
			Command: cmd.id,
			Data:    cmd.data,
			Buffers: buffersFor(cmd.id, pathBuf("/p")),
		})
		if resp.Status != result.Success {
			t.Errorf("%s: status %s", cmd.name, resp.Status)
		}
		if got := fs.last(); got != want[cmd.id] {
			t.Errorf("%s: provider call %q, want %q", cmd.name, got, want[cmd.id])
		}
	}

	resp := handle(t, sess, &ipc.Request{Object: sess.Root(), Command: CmdCommit})
	if resp.Status != result.Success || fs.last() != "Commit()" {
		t.Errorf("Commit: status %s call %q", resp.Status, fs.last())
	}
}

func TestProviderStatusPassThrough(t *testing.T) {
	raw := result.Make(result.ModuleFS, 1234)

	tests := []struct {
		name string
		err  error
		want result.Code
	}{
		{"code", raw, raw},
		{"wrapped code", fmt.Errorf("deleting: %w", result.ErrPathNotFound), result.ErrPathNotFound},
		{"foreign module", result.Make(300, 7), result.Make(300, 7)},
		{"no status", errNoStatus, result.ErrUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeFS{err: tt.err}
			sess, _ := newSession(t, fs)

			for _, cmd := range pathCommands {
				resp := handle(t, sess, &ipc.Request{
					Object:  sess.Root(),
					Command: cmd.id,
					Data:    cmd.data,
					Buffers: buffersFor(cmd.id, pathBuf("/p")),
				})
				if resp.Status != tt.want {
					t.Errorf("%s: status %s, want %s", cmd.name, resp.Status, tt.want)
				}
				if len(resp.Objects) != 0 {
					t.Errorf("%s: published %v on failure", cmd.name, resp.Objects)
				}
			}
			resp := handle(t, sess, &ipc.Request{Object: sess.Root(), Command: CmdCommit})
			if resp.Status != tt.want {
				t.Errorf("Commit: status %s", resp.Status)
			}
			if sess.Objects() != 1 {
				t.Errorf("session holds %d objects", sess.Objects())
			}
		})
	}
}

func TestPayloads(t *testing.T) {
	fs := &fakeFS{
		entryType: provider.EntryFile,
		space:     1 << 40,
		times:     provider.FileTimeStampRaw{Created: 100, Modified: 200, Accessed: 300},
	}
	sess, _ := newSession(t, fs)

	req, _ := PathRequest(sess.Root(), CmdGetEntryType, "/f")
	resp := handle(t, sess, req)
	if !bytes.Equal(resp.Data, []byte{1, 0, 0, 0}) {
		t.Errorf("GetEntryType payload = %x", resp.Data)
	}

	req, _ = PathRequest(sess.Root(), CmdGetFreeSpaceSize, "/")
	resp = handle(t, sess, req)
	if len(resp.Data) != 8 || int64(binary.LittleEndian.Uint64(resp.Data)) != 1<<40 {
		t.Errorf("GetFreeSpaceSize payload = %x", resp.Data)
	}

	req, _ = PathRequest(sess.Root(), CmdGetTotalSpaceSize, "/")
	resp = handle(t, sess, req)
	if len(resp.Data) != 8 || int64(binary.LittleEndian.Uint64(resp.Data)) != 1<<41 {
		t.Errorf("GetTotalSpaceSize payload = %x", resp.Data)
	}

	req, _ = PathRequest(sess.Root(), CmdGetFileTimeStampRaw, "/f")
	resp = handle(t, sess, req)
	want := make([]byte, 0, 32)
	want = binary.LittleEndian.AppendUint64(want, 100)
	want = binary.LittleEndian.AppendUint64(want, 200)
	want = binary.LittleEndian.AppendUint64(want, 300)
	want = append(want, 1, 0, 0, 0, 0, 0, 0, 0)
	if !bytes.Equal(resp.Data, want) {
		t.Errorf("GetFileTimeStampRaw payload = %x, want %x", resp.Data, want)
	}
}

func TestPayloadWrittenOnFailure(t *testing.T) {
	fs := &fakeFS{err: result.ErrPathNotFound}
	sess, _ := newSession(t, fs)

	sizes := map[uint32]int{
		CmdGetEntryType:        4,
		CmdGetFreeSpaceSize:    8,
		CmdGetTotalSpaceSize:   8,
		CmdGetFileTimeStampRaw: 32,
		CmdDeleteFile:          0,
	}
	for id, size := range sizes {
		req, _ := PathRequest(sess.Root(), id, "/missing")
		resp := handle(t, sess, req)
		if resp.Status != result.ErrPathNotFound {
			t.Errorf("command %d: status %s", id, resp.Status)
		}
		if len(resp.Data) != size {
			t.Errorf("command %d: payload %d bytes, want %d", id, len(resp.Data), size)
		}
	}
}

func TestOpenFilePublishesChild(t *testing.T) {
	fs := &fakeFS{}
	sess, svc := newSession(t, fs)

	req, _ := OpenFileRequest(sess.Root(), "/f", provider.OpenRead)
	resp := handle(t, sess, req)
	if resp.Status != result.Success {
		t.Fatalf("status = %s", resp.Status)
	}
	if len(resp.Objects) != 1 {
		t.Fatalf("objects = %v", resp.Objects)
	}
	if len(resp.Data) != 0 {
		t.Errorf("payload = %x", resp.Data)
	}
	if sess.Objects() != 2 {
		t.Errorf("session objects = %d", sess.Objects())
	}
	if svc.BaseFileSystem().Count() != 2 {
		t.Errorf("filesystem references = %d, want 2", svc.BaseFileSystem().Count())
	}

	// parent first: the open file keeps the filesystem alive
	if err := sess.CloseObject(sess.Root()); err != nil {
		t.Fatal(err)
	}
	if fs.closed != 0 {
		t.Fatal("filesystem closed while a file is open")
	}

	resp = handle(t, sess, FileSetSizeRequest(resp.Objects[0], 3))
	if resp.Status != result.Success {
		t.Errorf("child unusable after parent disposal: %s", resp.Status)
	}

	if err := sess.CloseObject(2); err != nil {
		t.Fatal(err)
	}
	if fs.closed != 1 || fs.file.closed != 1 {
		t.Errorf("fs closed %d, file closed %d", fs.closed, fs.file.closed)
	}
}

func TestChildDisposalLeavesParent(t *testing.T) {
	fs := &fakeFS{}
	sess, svc := newSession(t, fs)

	req, _ := OpenDirectoryRequest(sess.Root(), "/d", provider.FilterAll)
	resp := handle(t, sess, req)
	if resp.Status != result.Success || len(resp.Objects) != 1 {
		t.Fatalf("resp = %+v", resp)
	}

	sess.CloseObject(resp.Objects[0])
	if fs.dir.closed != 1 {
		t.Errorf("directory closed %d times", fs.dir.closed)
	}
	if fs.closed != 0 {
		t.Fatal("closing a child closed the filesystem")
	}
	if svc.BaseFileSystem().Count() != 1 {
		t.Errorf("references = %d", svc.BaseFileSystem().Count())
	}

	resp = handle(t, sess, &ipc.Request{Object: sess.Root(), Command: CmdCommit})
	if resp.Status != result.Success {
		t.Errorf("parent unusable: %s", resp.Status)
	}

	sess.Close()
	if fs.closed != 1 {
		t.Errorf("filesystem closed %d times", fs.closed)
	}
}

func TestSharedProviderAcrossServices(t *testing.T) {
	fs := &fakeFS{}
	ref := NewFileSystemRef(fs)
	a := NewFileSystemService(ref.Clone())
	b := NewFileSystemService(ref)

	a.Dispose()
	if fs.closed != 0 {
		t.Fatal("closed while a sibling holds a reference")
	}
	b.Dispose()
	if fs.closed != 1 {
		t.Fatalf("closed %d times", fs.closed)
	}
}

func TestDisposeTwice(t *testing.T) {
	fs := &fakeFS{}
	svc := NewFileSystemService(NewFileSystemRef(fs))

	svc.Dispose()
	svc.Dispose()

	if !svc.Disposed() {
		t.Error("Disposed() = false")
	}
	if fs.closed != 1 {
		t.Errorf("filesystem closed %d times", fs.closed)
	}
}

func TestDispatchAfterDispose(t *testing.T) {
	fs := &fakeFS{}
	svc := NewFileSystemService(NewFileSystemRef(fs))
	svc.Dispose()

	req, _ := PathRequest(0, CmdDeleteFile, "/a")
	_, err := ipc.Dispatch(svc, ipc.NewContext(req, 64, nil))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLifecycle, Kind: errors.KindDisposed}) {
		t.Fatalf("expected lifecycle error, got %v", err)
	}
	if len(fs.calls) != 0 {
		t.Errorf("provider called: %v", fs.calls)
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want result.Code
	}{
		{"nil", nil, result.Success},
		{"code", result.ErrTargetLocked, result.ErrTargetLocked},
		{"wrapped", fmt.Errorf("x: %w", result.ErrDirectoryNotEmpty), result.ErrDirectoryNotEmpty},
		{"structured", errors.New(errors.PhaseProvider, errors.KindIO).Code(result.ErrPermissionDenied).Build(), result.ErrPermissionDenied},
		{"no status", errNoStatus, result.ErrUnexpected},
		{"success as error", result.Success, result.ErrUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate(tt.err); got != tt.want {
				t.Errorf("translate(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestCommandTable(t *testing.T) {
	svc := NewFileSystemService(NewFileSystemRef(&fakeFS{}))
	names := []string{
		"CreateFile", "DeleteFile", "CreateDirectory", "DeleteDirectory",
		"DeleteDirectoryRecursively", "RenameFile", "RenameDirectory",
		"GetEntryType", "OpenFile", "OpenDirectory", "Commit",
		"GetFreeSpaceSize", "GetTotalSpaceSize", "CleanDirectoryRecursively",
		"GetFileTimeStampRaw",
	}

	cmds := svc.Commands().All()
	if len(cmds) != len(names) {
		t.Fatalf("%d commands, want %d", len(cmds), len(names))
	}
	for i, c := range cmds {
		if c.ID != uint32(i) || c.Name != names[i] {
			t.Errorf("command %d = %d %s, want %s", i, c.ID, c.Name, names[i])
		}
	}
}
