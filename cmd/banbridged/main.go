// Command banbridged runs the custodial bridge core as a standalone
// process: it loads configuration, sets up logging, wires the bridge, and
// runs the chain scanner until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bananocoin/wban-bridge/bridge"
	"github.com/bananocoin/wban-bridge/build"
	"github.com/bananocoin/wban-bridge/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	root := build.NewRotatingLogWriter()
	if err := root.InitLogRotator(cfg.LogFile(), cfg.MaxLogRolls); err != nil {
		return fmt.Errorf("init log rotator: %w", err)
	}
	bridge.SetupLoggers(root)
	for _, subsystem := range []string{"BRDG", "LDGR", "LOCK", "QUEU", "SCAN", "CLAM", "OPER"} {
		root.SetLogLevel(subsystem, cfg.LogLevel)
	}

	native, evm, blacklist, err := newChainClients(cfg)
	if err != nil {
		return fmt.Errorf("build chain clients: %w", err)
	}

	b, err := bridge.New(cfg, native, evm, blacklist, prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("build bridge: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b.Run(ctx)
	return nil
}
