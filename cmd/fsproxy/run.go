package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/guest"
)

func runGuest(args []string) error {
	var common commonFlags
	var memoryPages uint32

	flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
	common.add(flagSet)
	flagSet.Uint32Var(&memoryPages, "memory-pages", 0, "guest memory limit in 64KiB pages (0 = default)")
	if err := parseFlags(flagSet, "run [flags] <module.wasm> [guest args...]", args); err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return &exitError{code: 2, msg: "missing wasm module"}
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	wasm, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}

	shared, err := openFileSystem(cfg)
	if err != nil {
		return err
	}
	defer shared.Release()

	sess, err := newLocalSession(cfg, shared)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner, err := guest.NewRunner(ctx, guest.NewHost(sess), &guest.Config{
		MemoryLimitPages: memoryPages,
		Args:             rest,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
	})
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	log.Debug("running guest", zap.String("module", rest[0]), zap.String("root", cfg.Storage.Root))
	return runner.Run(ctx, wasm)
}
