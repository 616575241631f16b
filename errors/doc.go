// Package errors provides structured error types for the filesystem proxy.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Protocol errors (decode and dispatch phases) also carry the wire status that the
// dispatcher writes in place of a provider result.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//		Path("CreateFile", "size").
//		Code(result.ErrOutOfRange).
//		Detail("request region ends at %d", 4).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.PathTooLong(0, 0x400, 0x301)
//	err := errors.UnknownCommand("IFileSystem", 99)
//
// All errors implement the standard error interface and support errors.Is/As.
// errors.Code extracts the wire status from any error chain.
package errors
