package fsp

import (
	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/result"
	"github.com/wippyai/fsproxy/wire"
)

// translate turns a provider outcome into the wire status. A status carried
// by err is passed through unchanged. An error that carries none, or
// carries Success, becomes ErrUnexpected so a failure is never reported as
// success.
func translate(err error) result.Code {
	if err == nil {
		return result.Success
	}
	if code, ok := errors.Code(err); ok && code.IsFailure() {
		return code
	}
	ipc.Logger().Warn("provider error without status", zap.Error(err))
	return result.ErrUnexpected
}

// resolvePath decodes path attachment index of the request. Failures are
// protocol errors and must be returned before the provider is touched.
func resolvePath(ctx *ipc.Context, index int) (string, error) {
	buf, err := ctx.Buffer(index)
	if err != nil {
		return "", err
	}
	p, err := wire.DecodePath(buf, index)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}
