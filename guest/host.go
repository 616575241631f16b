package guest

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/ipc"
)

// ModuleName is the import module guests link against.
const ModuleName = "fsproxy"

// Negative results of the call export.
const (
	ErrMemory           int32 = -1 // request or response range outside guest memory
	ErrMalformed        int32 = -2 // request bytes do not decode
	ErrSession          int32 = -3 // session closed or handler contract broken
	ErrResponseTooLarge int32 = -4 // encoded response exceeds respCap
)

// Host exposes one ipc session to WebAssembly guests.
//
// Exports:
//
//	call(reqPtr, reqLen, respPtr, respCap i32) -> i32
//	close(handle i32) -> i32
//
// call decodes an ipc request from guest memory, handles it, and writes the
// encoded response at respPtr, returning its length or one of the negative
// Err values. When the response cannot be delivered, objects it published
// are closed again. close releases a published object and returns the status
// value, zero on success.
type Host struct {
	session *ipc.Session
	log     *zap.Logger
}

// NewHost binds a host module to session.
func NewHost(session *ipc.Session) *Host {
	return &Host{
		session: session,
		log:     Logger().With(zap.String("session", session.ID())),
	}
}

// Session returns the bound session.
func (h *Host) Session() *ipc.Session {
	return h.session
}

// Instantiate registers the fsproxy module in r.
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	i32 := api.ValueTypeI32

	builder := r.NewHostModuleBuilder(ModuleName)

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.call), []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}).
		WithParameterNames("req_ptr", "req_len", "resp_ptr", "resp_cap").
		Export("call")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.close), []api.ValueType{i32}, []api.ValueType{i32}).
		WithParameterNames("handle").
		Export("close")

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate host module")
	}
	return mod, nil
}

func (h *Host) call(_ context.Context, m api.Module, stack []uint64) {
	reqPtr := api.DecodeU32(stack[0])
	reqLen := api.DecodeU32(stack[1])
	respPtr := api.DecodeU32(stack[2])
	respCap := api.DecodeU32(stack[3])
	stack[0] = api.EncodeI32(h.handle(m.Memory(), reqPtr, reqLen, respPtr, respCap))
}

func (h *Host) handle(mem api.Memory, reqPtr, reqLen, respPtr, respCap uint32) int32 {
	if mem == nil {
		return ErrMemory
	}
	raw, ok := mem.Read(reqPtr, reqLen)
	if !ok {
		h.log.Debug("request outside memory", zap.Uint32("ptr", reqPtr), zap.Uint32("len", reqLen))
		return ErrMemory
	}
	req, err := ipc.UnmarshalRequest(raw)
	if err != nil {
		h.log.Debug("malformed request", zap.Error(err))
		return ErrMalformed
	}
	resp, err := h.session.Handle(req)
	if err != nil {
		h.log.Warn("request failed", zap.Error(err))
		return ErrSession
	}
	out, err := ipc.MarshalResponse(resp)
	if err != nil {
		h.log.Warn("encode response", zap.Error(err))
		h.discard(resp)
		return ErrSession
	}
	if uint32(len(out)) > respCap || len(out) > math.MaxInt32 {
		h.log.Debug("response too large", zap.Int("size", len(out)), zap.Uint32("cap", respCap))
		h.discard(resp)
		return ErrResponseTooLarge
	}
	if !mem.Write(respPtr, out) {
		h.discard(resp)
		return ErrMemory
	}
	return int32(len(out))
}

// discard closes the objects of a response the guest never received.
func (h *Host) discard(resp *ipc.Response) {
	for _, obj := range resp.Objects {
		h.session.CloseObject(obj)
	}
}

func (h *Host) close(_ context.Context, _ api.Module, stack []uint64) {
	handle := api.DecodeU32(stack[0])
	var status uint32
	if err := h.session.CloseObject(handle); err != nil {
		code, ok := errors.Code(err)
		if !ok {
			stack[0] = api.EncodeI32(ErrSession)
			return
		}
		status = code.Value()
	}
	stack[0] = api.EncodeU32(status)
}
