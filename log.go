package voilibgov

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/voinetwork/voilibgov/namehash"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	log = backendLog.Logger("VLGV")
)

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		return
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		return
	}

	logRotator = r
}

// UseLogger replaces the package logger. Useful for callers that already run
// an slog backend and want this library's output routed through it.
func UseLogger(logger slog.Logger) {
	log = logger
}

// SetLogLevels sets the log level for the package logger from its string
// representation, e.g. "info" or "debug". Unrecognized levels are ignored.
func SetLogLevels(logLevel string) {
	level, ok := slog.LevelFromString(logLevel)
	if !ok {
		return
	}
	log.SetLevel(level)
}

// logRawPayload records a failed decode or ambiguous confirmation with full
// call context for diagnosis. The user-facing message stays neutral; this is
// the diagnostic trail.
func logRawPayload(method string, args []interface{}, raw interface{}, err error) {
	log.Errorf("%s: %v (args=%v raw=%v)", method, err, args, raw)
}

func logNode(n namehash.Node) string {
	return n.String()[:8]
}
