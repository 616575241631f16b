// Package ipc is the session runtime that services run in.
//
// A Session owns an object table. Its root service is published first and
// gets handle 1; services publish children through the Context they are
// dispatched with, and the client addresses every later request to one of
// those handles:
//
//	sess, err := ipc.NewSession(root, ipc.WithObserver(obs))
//	resp, err := sess.Handle(&ipc.Request{
//		Object:  sess.Root(),
//		Command: 8,
//		Data:    mode,
//		Buffers: [][]byte{path},
//	})
//	file := resp.Objects[0]
//
// # Commands
//
// A Service exposes a CommandTable. Dispatch looks up the request's command
// id by exact match and runs its Handler against a Context holding a read
// cursor over the request data, a write cursor over the response data, the
// attachments, and the publication port.
//
// A handler returns the wire status, or an error to abort. Errors carrying
// a status (protocol failures such as a malformed path) become that status
// with an empty payload and no published objects. Errors without one are
// contract violations and are returned to the caller of Session.Handle.
//
// # Objects
//
// Removing an object from the table disposes its service. The reserved
// command CloseCommand removes the addressed object; Session.Close removes
// all of them, newest first.
//
// # Messages
//
// MarshalRequest and MarshalResponse give transports a flat little-endian
// encoding of requests and responses.
package ipc
