// Package guest serves an ipc session to WebAssembly modules through
// wazero.
//
// Host registers the "fsproxy" import module. Guests place an encoded
// ipc request in their linear memory, call fsproxy.call with its location
// and a response buffer, and decode the response written back. Runner
// wraps a wazero runtime with WASI preview1 and the host module for
// running complete guest programs.
package guest
