package guest

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/errors"
)

// Config configures a Runner.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the
	// wazero default.
	MemoryLimitPages uint32
	Args             []string
	Stdout           io.Writer
	Stderr           io.Writer
}

// Runner hosts guest modules linked against one Host.
type Runner struct {
	runtime wazero.Runtime
	host    *Host
	cfg     Config
}

// NewRunner creates a wazero runtime with WASI preview1 and the fsproxy
// host module.
func NewRunner(ctx context.Context, host *Host, cfg *Config) (*Runner, error) {
	r := &Runner{host: host}
	if cfg != nil {
		r.cfg = *cfg
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if r.cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(r.cfg.MemoryLimitPages)
	}
	r.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r.runtime); err != nil {
		r.runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate wasi")
	}
	if _, err := host.Instantiate(ctx, r.runtime); err != nil {
		r.runtime.Close(ctx)
		return nil, err
	}
	return r, nil
}

// Instantiate compiles and instantiates wasm, running _start if exported.
// A WASI exit with status zero is not an error.
func (r *Runner) Instantiate(ctx context.Context, name string, wasm []byte) (api.Module, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "compile guest")
	}

	modCfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_start")
	if len(r.cfg.Args) > 0 {
		modCfg = modCfg.WithArgs(r.cfg.Args...)
	}
	if r.cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(r.cfg.Stdout)
	}
	if r.cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(r.cfg.Stderr)
	}

	mod, err := r.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		var exit *sys.ExitError
		if stderrors.As(err, &exit) && exit.ExitCode() == 0 {
			return mod, nil
		}
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "run guest")
	}
	Logger().Debug("guest instantiated", zap.String("module", name))
	return mod, nil
}

// Run executes wasm to completion and closes its instance.
func (r *Runner) Run(ctx context.Context, wasm []byte) error {
	mod, err := r.Instantiate(ctx, "guest", wasm)
	if err != nil {
		return err
	}
	if mod != nil {
		return mod.Close(ctx)
	}
	return nil
}

// Close releases the runtime. The session stays open.
func (r *Runner) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}
