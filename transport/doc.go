// Package transport carries ipc requests over stream connections.
//
// Every message travels in a frame: a little-endian u32 length followed by
// that many bytes holding an ipc-encoded Request or Response. A Server
// gives each accepted connection its own ipc.Session, answers frames in
// order and disposes the session when the connection ends. Client is the
// matching synchronous caller.
package transport
