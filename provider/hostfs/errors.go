package hostfs

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/result"
)

// fail wraps an OS error with the status a client should see.
func fail(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return errors.New(errors.PhaseProvider, errors.KindIO).
		Path(op).
		Value(path).
		Cause(err).
		Code(mapOSError(err)).
		Detail("%s %q", op, path).
		Build()
}

func mapOSError(err error) result.Code {
	if err == nil {
		return result.Success
	}
	var errno syscall.Errno
	if stderrors.As(err, &errno) {
		return mapErrno(errno)
	}
	switch {
	case os.IsNotExist(err):
		return result.ErrPathNotFound
	case os.IsExist(err):
		return result.ErrPathAlreadyExists
	case os.IsPermission(err):
		return result.ErrPermissionDenied
	}
	return result.ErrUnexpected
}

func mapErrno(errno syscall.Errno) result.Code {
	switch errno {
	case syscall.ENOENT, syscall.ENOTDIR:
		return result.ErrPathNotFound
	case syscall.EEXIST:
		return result.ErrPathAlreadyExists
	case syscall.ENOTEMPTY:
		return result.ErrDirectoryNotEmpty
	case syscall.EACCES, syscall.EPERM, syscall.EROFS:
		return result.ErrPermissionDenied
	case syscall.ENOSPC, syscall.EDQUOT, syscall.EFBIG:
		return result.ErrUsableSpaceNotEnough
	case syscall.EBUSY, syscall.ETXTBSY:
		return result.ErrTargetLocked
	case syscall.ENAMETOOLONG:
		return result.ErrTooLongPath
	case syscall.EINVAL, syscall.ELOOP:
		return result.ErrInvalidPath
	case syscall.EXDEV:
		return result.ErrUnsupportedOperation
	case syscall.EISDIR:
		return result.ErrPathNotFound
	default:
		return result.ErrUnexpected
	}
}
