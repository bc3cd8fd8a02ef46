//go:build !filelog
// +build !filelog

package build

import "os"

// LoggingType names the additional output target. Under the filelog build
// tag, Write sends lines to a plain file instead.
const LoggingType = LogTypeStdOut

// Write implements io.Writer, echoing to stdout in addition to rotating.
func (w *LogWriter) Write(b []byte) (int, error) {
	os.Stdout.Write(b)
	return w.Rotator.Write(b)
}
