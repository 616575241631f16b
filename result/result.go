package result

import "fmt"

// Code is a wire status. The low 9 bits hold the module, the next 13 bits
// the description. Zero is success; every other value is a failure owned
// by whichever module raised it.
type Code uint32

const (
	moduleBits      = 9
	descriptionBits = 13
	moduleMask      = 1<<moduleBits - 1
	descriptionMask = 1<<descriptionBits - 1
)

// Modules that raise the codes below.
const (
	ModuleKernel = 1
	ModuleFS     = 2
	ModuleSF     = 10
)

// Success is the only code for which IsSuccess reports true.
const Success Code = 0

// Make packs a module and description into a Code.
func Make(module, description uint32) Code {
	return Code(module&moduleMask | (description&descriptionMask)<<moduleBits)
}

// Module returns the raising module.
func (c Code) Module() uint32 { return uint32(c) & moduleMask }

// Description returns the module-specific description.
func (c Code) Description() uint32 { return uint32(c) >> moduleBits & descriptionMask }

// IsSuccess reports whether c is Success.
func (c Code) IsSuccess() bool { return c == Success }

// IsFailure reports whether c is any code other than Success.
func (c Code) IsFailure() bool { return c != Success }

// Value returns the raw numeric representation.
func (c Code) Value() uint32 { return uint32(c) }

// String renders the code as 2MMM-DDDD, the form error reports use.
func (c Code) String() string {
	return fmt.Sprintf("%04d-%04d", 2000+c.Module(), c.Description())
}

// Error implements error so providers can return a Code directly.
func (c Code) Error() string {
	if name, ok := names[c]; ok {
		return fmt.Sprintf("%s (%s)", name, c.String())
	}
	return "result " + c.String()
}

// Protocol codes raised by the proxy itself.
var (
	ErrOutOfHandles      = Make(ModuleKernel, 105)
	ErrInvalidHandle     = Make(ModuleKernel, 114)
	ErrUnknownCommand    = Make(ModuleSF, 221)
	ErrUnexpected        = Make(ModuleFS, 5000)
	ErrInvalidPath       = Make(ModuleFS, 6001)
	ErrTooLongPath       = Make(ModuleFS, 6003)
	ErrInvalidPathFormat = Make(ModuleFS, 6005)
	ErrInvalidSize       = Make(ModuleFS, 6062)
	ErrNullptrArgument   = Make(ModuleFS, 6063)
	ErrOutOfRange        = Make(ModuleFS, 6065)
)

// Filesystem codes raised by providers.
var (
	ErrPathNotFound          = Make(ModuleFS, 1)
	ErrPathAlreadyExists     = Make(ModuleFS, 2)
	ErrTargetLocked          = Make(ModuleFS, 7)
	ErrDirectoryNotEmpty     = Make(ModuleFS, 8)
	ErrUsableSpaceNotEnough  = Make(ModuleFS, 30)
	ErrNotImplemented        = Make(ModuleFS, 3001)
	ErrInvalidOpenMode       = Make(ModuleFS, 6072)
	ErrFileExtensionNoAppend = Make(ModuleFS, 6201)
	ErrReadNotPermitted      = Make(ModuleFS, 6202)
	ErrWriteNotPermitted     = Make(ModuleFS, 6203)
	ErrUnsupportedOperation  = Make(ModuleFS, 6300)
	ErrPermissionDenied      = Make(ModuleFS, 6400)
)

var names = map[Code]string{
	ErrOutOfHandles:          "out of handles",
	ErrInvalidHandle:         "invalid handle",
	ErrUnknownCommand:        "unknown command",
	ErrUnexpected:            "unexpected failure",
	ErrInvalidPath:           "invalid path",
	ErrTooLongPath:           "too long path",
	ErrInvalidPathFormat:     "invalid path format",
	ErrInvalidSize:           "invalid size",
	ErrNullptrArgument:       "null argument",
	ErrOutOfRange:            "out of range",
	ErrPathNotFound:          "path not found",
	ErrPathAlreadyExists:     "path already exists",
	ErrTargetLocked:          "target locked",
	ErrDirectoryNotEmpty:     "directory not empty",
	ErrUsableSpaceNotEnough:  "usable space not enough",
	ErrNotImplemented:        "not implemented",
	ErrInvalidOpenMode:       "invalid open mode",
	ErrFileExtensionNoAppend: "file extension without append",
	ErrReadNotPermitted:      "read not permitted",
	ErrWriteNotPermitted:     "write not permitted",
	ErrUnsupportedOperation:  "unsupported operation",
	ErrPermissionDenied:      "permission denied",
}
