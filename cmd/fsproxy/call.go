package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/wippyai/fsproxy/config"
	"github.com/wippyai/fsproxy/transport"
)

func runCall(args []string) error {
	var configPath, network, addr string
	var timeout time.Duration
	var list bool

	flagSet := pflag.NewFlagSet("call", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", os.Getenv(config.EnvConfigPath), "path to a YAML config file")
	flagSet.StringVar(&network, "network", "", "server network (overrides server.network)")
	flagSet.StringVar(&addr, "addr", "", "server address (overrides server.listen)")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	flagSet.BoolVarP(&list, "list", "l", false, "list commands and exit")
	if err := parseFlags(flagSet, "call [flags] <command> [args...]", args); err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}

	if list {
		for _, c := range commands {
			fmt.Println(c.signature())
		}
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return &exitError{code: 2, msg: "missing command"}
	}
	cmd, ok := lookupCommand(rest[0])
	if !ok {
		return &exitError{code: 2, msg: "unknown command: " + rest[0]}
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if network == "" {
		network = cfg.Server.Network
	}
	if addr == "" {
		addr = cfg.Server.Listen
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := transport.Dial(ctx, network, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	out, status, err := cmd.execute(ctx, client, transport.RootObject, rest[1:])
	if err != nil {
		return err
	}
	if status.IsFailure() {
		return &exitError{code: 3, msg: out}
	}
	fmt.Println(out)
	return nil
}
