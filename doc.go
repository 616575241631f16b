// Package fsproxy serves a filesystem to remote clients through a
// session-scoped command protocol.
//
// A client talks to objects. Each session starts with one object, the
// filesystem service, and opening a file or directory publishes a new
// object the client addresses by handle. Every command is a numeric id
// plus a small little-endian request region, optional input buffers
// (paths, file data), and optional output buffers (read data, directory
// entries). Every response carries a status code in the Horizon result
// space, an encoded payload, and the handles of objects it published.
//
// # Architecture Overview
//
//	fsproxy/
//	├── wire/               Binary cursor codec and bounded path decoding
//	├── result/             Status codes (module/description packing)
//	├── errors/             Structured error types with wire status
//	├── resource/           Handle table and shared-ownership references
//	├── provider/           FileSystem, File and Directory interfaces
//	│   └── hostfs/         Provider confined to a host directory
//	├── ipc/                Sessions, command tables, request contexts, message codec
//	├── fsp/                FileSystem, File and Directory services
//	├── transport/          Length-prefixed frames over stream connections
//	├── guest/              wazero host module for WebAssembly clients
//	├── metrics/            Prometheus session observer
//	├── config/             YAML and environment configuration
//	└── cmd/fsproxy/        serve, call, console and run commands
//
// # Quick Start
//
// Serve a directory in-process:
//
//	fs, err := hostfs.New("/srv/saves")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sess, err := ipc.NewSession(fsp.NewFileSystemService(fsp.NewFileSystemRef(fs)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	req, _ := fsp.CreateFileRequest(sess.Root(), "/slot1.bin", 0x4000, 0)
//	resp, err := sess.Handle(req)
//	fmt.Println(resp.Status) // 2000-0000
//
// Or over the network with transport.Server and transport.Client.
//
// # Status Codes
//
// Malformed requests (a truncated region, a missing or over-long path, an
// unknown command id) are rejected with a protocol status before the
// provider sees them, and the response carries no payload. Provider
// failures pass through unchanged; errors without a status become
// result.ErrUnexpected.
//
// # Thread Safety
//
// A Session handles one command at a time and may be shared between
// goroutines. Services hold counted references to their provider, so a
// filesystem stays open until the last service using it is disposed.
package fsproxy
