// Package metrics exports session activity as Prometheus collectors.
//
// A Metrics value is an ipc.Observer; pass it to ipc.WithObserver for every
// session that should be counted. Collectors are registered on a
// caller-supplied registry so tests and embedders can keep them isolated.
package metrics
