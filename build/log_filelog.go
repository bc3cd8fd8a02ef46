//go:build filelog
// +build filelog

package build

import "os"

var logf *os.File

// LoggingType keeps the same value as in the default build; under this tag
// the redirection to a plain file is done by Write below.
const LoggingType = LogTypeStdOut

// Write implements io.Writer, writing only to the plain banbridge.log file;
// the rotator is not used.
func (w *LogWriter) Write(b []byte) (int, error) {
	return logf.Write(b)
}

func init() {
	var err error
	logf, err = os.Create("banbridge.log")
	if err != nil {
		panic(err)
	}
}
