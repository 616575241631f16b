// Command fsproxy serves a host directory through the session-scoped
// filesystem protocol and offers clients for it.
package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/config"
	"github.com/wippyai/fsproxy/fsp"
	"github.com/wippyai/fsproxy/guest"
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/provider/hostfs"
	"github.com/wippyai/fsproxy/resource"
)

type subcommand struct {
	name    string
	summary string
	run     func(args []string) error
}

var subcommands = []subcommand{
	{"serve", "serve a directory over the stream transport", runServe},
	{"call", "send one command to a running server", runCall},
	{"console", "interactive session over a local directory", runConsole},
	{"run", "run a wasm guest linked against the fsproxy host module", runGuest},
}

// exitError carries a process exit code.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := run(os.Args[1:]); err != nil {
		var exit *exitError
		if stderrors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.msg)
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}
	for _, sc := range subcommands {
		if sc.name == args[0] {
			return sc.run(args[1:])
		}
	}
	printUsage()
	return &exitError{code: 2, msg: "unknown command: " + args[0]}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: fsproxy <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, sc := range subcommands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", sc.name, sc.summary)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, `Run "fsproxy <command> --help" for command flags.`)
}

// commonFlags are shared by every subcommand that loads configuration.
type commonFlags struct {
	configPath string
	root       string
	logLevel   string
}

func (f *commonFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&f.configPath, "config", "c", os.Getenv(config.EnvConfigPath), "path to a YAML config file")
	flagSet.StringVar(&f.root, "root", "", "directory to serve (overrides storage.root)")
	flagSet.StringVar(&f.logLevel, "log-level", "", "log level (overrides log.level)")
}

func (f *commonFlags) load() (*config.Config, error) {
	cfg, err := config.LoadFile(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.root != "" {
		cfg.Storage.Root = f.root
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseFlags returns errHelp after printing usage for --help.
func parseFlags(flagSet *pflag.FlagSet, usage string, args []string) error {
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fsproxy %s\n\n", usage)
		flagSet.PrintDefaults()
	}
	return flagSet.Parse(args)
}

func isHelp(err error) bool {
	return stderrors.Is(err, pflag.ErrHelp)
}

func setupLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := cfg.Log.Build()
	if err != nil {
		return nil, err
	}
	ipc.SetLogger(log.Named("ipc"))
	guest.SetLogger(log.Named("guest"))
	return log, nil
}

func openFileSystem(cfg *config.Config) (*resource.Ref[provider.FileSystem], error) {
	fs, err := hostfs.New(cfg.Storage.Root)
	if err != nil {
		return nil, err
	}
	return fsp.NewFileSystemRef(fs), nil
}

func sessionOptions(cfg *config.Config, observer ipc.Observer) []ipc.SessionOption {
	return []ipc.SessionOption{
		ipc.WithObjectLimit(cfg.Session.ObjectLimit),
		ipc.WithResponseSize(cfg.Session.ResponseSize),
		ipc.WithObserver(observer),
	}
}

// newLocalSession opens a session over a private reference to shared.
func newLocalSession(cfg *config.Config, shared *resource.Ref[provider.FileSystem]) (*ipc.Session, error) {
	return ipc.NewSession(fsp.NewFileSystemService(shared.Clone()), sessionOptions(cfg, nil)...)
}
