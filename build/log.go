// Package build provides the logging primitives shared by every subsystem
// of the bridge: a rotating log writer and a per-subsystem slog.Logger
// factory, so packages can declare a logger before the root writer exists
// and have it backfilled once the process has parsed its configuration.
package build

import (
	"fmt"
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// LogType describes how a RotatingLogWriter emits log lines in addition to
// rotating them to disk.
type LogType int

const (
	// LogTypeNone disables the additional output target.
	LogTypeNone LogType = iota

	// LogTypeStdOut additionally writes log lines to stdout.
	LogTypeStdOut
)

// LogWriter is an io.Writer that forwards to the rotator and, depending on
// the build tag in effect, an additional sink (stdout by default, a plain
// file under the filelog build tag).
type LogWriter struct {
	Rotator *rotator.Rotator
}

// RotatingLogWriter wraps a rotating log file and gives each subsystem its
// own slog.Logger, all sharing the same backend and level.
type RotatingLogWriter struct {
	logWriter  *LogWriter
	backend    slog.Backend
	subLoggers map[string]slog.Logger
}

// NewRotatingLogWriter returns a RotatingLogWriter with no rotator attached;
// callers must call InitLogRotator before any logger produced from it emits
// output.
func NewRotatingLogWriter() *RotatingLogWriter {
	logWriter := &LogWriter{}
	return &RotatingLogWriter{
		logWriter:  logWriter,
		backend:    slog.NewBackend(logWriter),
		subLoggers: make(map[string]slog.Logger),
	}
}

// InitLogRotator initializes the log rotator to write to logFile and create
// roll files in the same directory. It must be called before the log
// rotator is otherwise used, and is safe to call before or after
// NewSubLogger.
func (r *RotatingLogWriter) InitLogRotator(logFile string, maxRolls int) error {
	logDir, _ := splitDir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	rot, err := rotator.New(logFile, 10*1024, false, maxRolls)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	r.logWriter.Rotator = rot
	return nil
}

// GenSubLogger creates a new sublogger. It always uses the same backend
// with the root logger as the sublogger, but could add filters or color
// coding in the future.
func (r *RotatingLogWriter) GenSubLogger(tag string) slog.Logger {
	return r.backend.Logger(tag)
}

// RegisterSubLogger saves a logger so that its level can be set manually
// later, for example by an RPC call or config directive.
func (r *RotatingLogWriter) RegisterSubLogger(subsystem string, logger slog.Logger) {
	r.subLoggers[subsystem] = logger
}

// SetLogLevel sets the log level for the given subsystem tag. Unknown
// subsystems are a no-op, matching how the teacher's equivalent tolerates
// unregistered tags during early bring-up.
func (r *RotatingLogWriter) SetLogLevel(subsystem string, level string) {
	logger, ok := r.subLoggers[subsystem]
	if !ok {
		return
	}
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		return
	}
	logger.SetLevel(lvl)
}

// NewSubLogger returns a new logger for the given subsystem. If rootWriter
// is nil, a disabled placeholder logger is returned; callers are expected
// to replace it once SetupLoggers has run.
func NewSubLogger(subsystem string, rootWriter func(string) slog.Logger) slog.Logger {
	if rootWriter == nil {
		return slog.Disabled
	}
	return rootWriter(subsystem)
}

func splitDir(path string) (dir string, file string) {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i], path[i+1:]
		}
	}
	return ".", path
}
