// Package result defines the numeric status space carried on the wire.
//
// A Code packs a module and a description. Providers return Codes (they
// implement error) and the dispatcher passes them through unchanged;
// the proxy only raises its own codes for malformed requests.
package result
