// Package fsp serves a provider.FileSystem over an ipc session.
//
// FileSystemService is the root object of a session. Its fifteen commands
// (ids 0 to 14) decode path attachments and fixed-width arguments, call
// one provider method, and report the outcome as the response status:
//
//	fs, _ := hostfs.New(dir)
//	svc := fsp.NewFileSystemService(fsp.NewFileSystemRef(fs))
//	sess, _ := ipc.NewSession(svc)
//
//	req, _ := fsp.CreateFileRequest(sess.Root(), "/save.bin", 4096, 0)
//	resp, _ := sess.Handle(req)
//
// Paths travel as NUL-terminated attachments of at most 0x301 bytes. A
// malformed path, a truncated header or an unknown command id is rejected
// before the provider is called; the response then carries only the status.
//
// Provider failures are passed through verbatim. Commands with a payload
// (GetEntryType, GetFreeSpaceSize, GetTotalSpaceSize, GetFileTimeStampRaw)
// write it even on failure; clients must check the status first.
//
// OpenFile and OpenDirectory publish a FileService or DirectoryService.
// Children hold their own reference to the filesystem, which is closed when
// the last service using it is disposed.
package fsp
