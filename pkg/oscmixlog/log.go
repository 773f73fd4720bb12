// Package oscmixlog sets up the charmbracelet/log logger the rest of
// the bridge uses, per spec.md §7's error taxonomy: Transport and
// Frame errors are warnings, Fatal errors are logged at Error level
// immediately before the process exits non-zero.
package oscmixlog

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/gherlein/oscmix/pkg/sysex"
)

// New builds the process logger. debug enables Debug-level output
// (spec.md §6's -d flag); otherwise the logger stays at Info.
func New(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "oscmix",
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// Transport logs a Transport-class error (spec.md §7): MIDI or socket
// read/write failure, recovered locally, never fatal during steady
// state.
func Transport(logger *log.Logger, err error, context string) {
	logger.Warn("transport error", "context", context, "err", err)
}

// Frame logs a Frame-class error: SysEx framing/codec failure. The
// frame is dropped and the decoder resyncs.
func Frame(logger *log.Logger, outcome sysex.Outcome) {
	logger.Warn("frame error", "outcome", outcome.String())
}

// Protocol logs a Protocol-class error: malformed OSC, unknown
// address, bad argument type or out-of-range value.
func Protocol(logger *log.Logger, code int, message string) {
	logger.Warn("protocol error", "code", code, "message", message)
}

// Semantic logs a Semantic-class error: an operation requested a
// capability the channel does not have.
func Semantic(logger *log.Logger, message string) {
	logger.Warn("semantic error", "message", message)
}

// Fatal logs a Fatal-class error and returns; the caller is
// responsible for best-effort cleanup and os.Exit(1) (spec.md §7).
func Fatal(logger *log.Logger, err error, context string) {
	logger.Error("fatal error", "context", context, "err", err)
}
