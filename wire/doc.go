// Package wire provides the fixed-layout binary cursors used by command handlers.
//
// A Reader walks the request region and a Writer fills the response region.
// Both only move forward; the one place a handler skips bytes is padding that
// the command layout reserves. Running off either region is an error carrying
// the cursor position, never a silent truncation:
//
//	r := wire.NewReader(req.Data)
//	option, err := r.ReadU32()
//	err = r.Skip(4)
//	size, err := r.ReadI64()
//
// Path attachments are decoded separately with DecodePath, which enforces the
// MaxPathSize bound and the NUL terminator.
package wire
