package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wippyai/fsproxy/result"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode    Phase = "decode"    // request region to Go values
	PhaseEncode    Phase = "encode"    // Go values to response region
	PhaseDispatch  Phase = "dispatch"  // command and object routing
	PhaseLifecycle Phase = "lifecycle" // service disposal state
	PhaseProvider  Phase = "provider"  // underlying filesystem
	PhaseTransport Phase = "transport" // framing and connections
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseHost      Phase = "host"      // wasm host module
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidData       Kind = "invalid_data"
	KindPathTooLong       Kind = "path_too_long"
	KindPathUnterminated  Kind = "path_unterminated"
	KindAttachmentMissing Kind = "attachment_missing"
	KindUnknownCommand    Kind = "unknown_command"
	KindUnknownObject     Kind = "unknown_object"
	KindDisposed          Kind = "disposed"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindFrameTooLarge     Kind = "frame_too_large"
	KindLimitExceeded     Kind = "limit_exceeded"
	KindUnsupported       Kind = "unsupported"
	KindIO                Kind = "io"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	// Code is the wire status reported for this error, if any.
	Code result.Code
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Code != result.Success {
		b.WriteString(" (status ")
		b.WriteString(e.Code.String())
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Code sets the wire status
func (b *Builder) Code(c result.Code) *Builder {
	b.err.Code = c
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Code returns the wire status carried by err. A structured error with a
// Code wins over a bare result.Code further down the chain.
func Code(err error) (result.Code, bool) {
	if err == nil {
		return result.Success, false
	}
	var e *Error
	if errors.As(err, &e) && e.Code != result.Success {
		return e.Code, true
	}
	var c result.Code
	if errors.As(err, &c) {
		return c, true
	}
	return result.Success, false
}

// IsProtocol reports whether err was raised while decoding or routing a
// request, before any provider call.
func IsProtocol(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Phase == PhaseDecode || e.Phase == PhaseDispatch
}

// Convenience constructors for common error patterns

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, offset, want, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("%d bytes at offset %d exceed region of %d", want, offset, length),
		Value:  offset,
		Code:   result.ErrOutOfRange,
	}
}

// PathTooLong creates an oversized path attachment error
func PathTooLong(index, size, limit int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindPathTooLong,
		Path:   []string{fmt.Sprintf("buffer[%d]", index)},
		Detail: fmt.Sprintf("path buffer of %d bytes exceeds %d", size, limit),
		Value:  size,
		Code:   result.ErrTooLongPath,
	}
}

// PathUnterminated creates a missing terminator error
func PathUnterminated(index, limit int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindPathUnterminated,
		Path:   []string{fmt.Sprintf("buffer[%d]", index)},
		Detail: fmt.Sprintf("no NUL terminator within %d bytes", limit),
		Code:   result.ErrInvalidPathFormat,
	}
}

// AttachmentMissing creates an absent buffer error
func AttachmentMissing(index, count int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindAttachmentMissing,
		Path:   []string{fmt.Sprintf("buffer[%d]", index)},
		Detail: fmt.Sprintf("request carries %d buffers", count),
		Value:  index,
		Code:   result.ErrNullptrArgument,
	}
}

// UnknownCommand creates an unknown command id error
func UnknownCommand(service string, id uint32) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindUnknownCommand,
		Path:   []string{service},
		Detail: fmt.Sprintf("command %d is not implemented", id),
		Value:  id,
		Code:   result.ErrUnknownCommand,
	}
}

// UnknownObject creates an invalid object handle error
func UnknownObject(handle uint32) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindUnknownObject,
		Detail: fmt.Sprintf("object handle %d is not published", handle),
		Value:  handle,
		Code:   result.ErrInvalidHandle,
	}
}

// Disposed creates a dispatch-after-dispose error
func Disposed(service string) *Error {
	return &Error{
		Phase:  PhaseLifecycle,
		Kind:   KindDisposed,
		Path:   []string{service},
		Detail: "service already disposed",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// FrameTooLarge creates an oversized frame error
func FrameTooLarge(size, limit uint32) *Error {
	return &Error{
		Phase:  PhaseTransport,
		Kind:   KindFrameTooLarge,
		Detail: fmt.Sprintf("frame of %d bytes exceeds %d", size, limit),
		Value:  size,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
