package lock

import "github.com/decred/slog"

// log is the package-level logger for the lock subsystem, replaced once
// UseLogger is called by the root logger setup.
var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}
