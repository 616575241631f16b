package main

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/config"
	"github.com/wippyai/fsproxy/fsp"
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/metrics"
	"github.com/wippyai/fsproxy/transport"
)

func runServe(args []string) error {
	var common commonFlags
	var listen, metricsListen string

	flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	common.add(flagSet)
	flagSet.StringVar(&listen, "listen", "", "transport listen address (overrides server.listen)")
	flagSet.StringVar(&metricsListen, "metrics", "", "metrics listen address (overrides metrics.listen)")
	if err := parseFlags(flagSet, "serve [flags]", args); err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if metricsListen != "" {
		cfg.Metrics.Listen = metricsListen
	}

	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, log)
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	shared, err := openFileSystem(cfg)
	if err != nil {
		return err
	}
	defer shared.Release()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if cfg.Metrics.Listen != "" {
		stopMetrics, err := serveMetrics(cfg, reg, log)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	ln, err := net.Listen(cfg.Server.Network, cfg.Server.Listen)
	if err != nil {
		return err
	}

	factory := func() (*ipc.Session, error) {
		return ipc.NewSession(fsp.NewFileSystemService(shared.Clone()), sessionOptions(cfg, m)...)
	}
	srv := transport.NewServer(factory,
		transport.WithMaxFrameSize(cfg.Server.MaxFrameSize),
		transport.WithIdleTimeout(cfg.Server.IdleTimeout),
		transport.WithLogger(log.Named("transport")),
	)

	log.Info("serving directory",
		zap.String("root", cfg.Storage.Root),
		zap.String("network", cfg.Server.Network),
		zap.String("listen", cfg.Server.Listen))
	err = srv.Serve(ctx, ln)
	log.Info("server stopped")
	return err
}

func serveMetrics(cfg *config.Config, reg *prometheus.Registry, log *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", cfg.Metrics.Listen)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("metrics listening", zap.Stringer("addr", ln.Addr()), zap.String("path", cfg.Metrics.Path))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}
