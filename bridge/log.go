package bridge

import (
	"github.com/decred/slog"

	"github.com/bananocoin/wban-bridge/build"
	"github.com/bananocoin/wban-bridge/chainscan"
	"github.com/bananocoin/wban-bridge/claim"
	"github.com/bananocoin/wban-bridge/ledger"
	"github.com/bananocoin/wban-bridge/lock"
	"github.com/bananocoin/wban-bridge/ops"
	"github.com/bananocoin/wban-bridge/queue"
)

// replaceableLogger lets a package-level logger be declared before the
// root log writer exists, and swapped in place once SetupLoggers runs.
type replaceableLogger struct {
	slog.Logger
	subsystem string
}

var (
	pkgLoggers []*replaceableLogger

	addPkgLogger = func(subsystem string) *replaceableLogger {
		l := &replaceableLogger{
			Logger:    build.NewSubLogger(subsystem, nil),
			subsystem: subsystem,
		}
		pkgLoggers = append(pkgLoggers, l)
		return l
	}

	brdgLog = addPkgLogger("BRDG")
)

// SetupLoggers initializes every package-level logger in the bridge module
// against root, the process's single rotating log writer.
func SetupLoggers(root *build.RotatingLogWriter) {
	for _, l := range pkgLoggers {
		l.Logger = build.NewSubLogger(l.subsystem, root.GenSubLogger)
		SetSubLogger(root, l.subsystem, l.Logger)
	}

	AddSubLogger(root, "LDGR", ledger.UseLogger)
	AddSubLogger(root, "LOCK", lock.UseLogger)
	AddSubLogger(root, "QUEU", queue.UseLogger)
	AddSubLogger(root, "SCAN", chainscan.UseLogger)
	AddSubLogger(root, "CLAM", claim.UseLogger)
	AddSubLogger(root, "OPER", ops.UseLogger)
}

// AddSubLogger creates and registers the logger of a single subsystem.
func AddSubLogger(root *build.RotatingLogWriter, subsystem string, useLoggers ...func(slog.Logger)) {
	logger := build.NewSubLogger(subsystem, root.GenSubLogger)
	SetSubLogger(root, subsystem, logger, useLoggers...)
}

// SetSubLogger registers the logger of a subsystem and hands it to every
// UseLogger callback supplied.
func SetSubLogger(root *build.RotatingLogWriter, subsystem string, logger slog.Logger, useLoggers ...func(slog.Logger)) {
	root.RegisterSubLogger(subsystem, logger)
	for _, useLogger := range useLoggers {
		useLogger(logger)
	}
}
