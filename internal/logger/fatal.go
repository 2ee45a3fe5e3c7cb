package logger

import (
	"log/slog"
	"os"
)

// FatalWithLogger logs at error level and exits. os.Exit skips deferred
// calls, so cleanup runs first to flush and close the log file.
func FatalWithLogger(logger *slog.Logger, cleanup func(), msg string, args ...any) {
	logger.Error(msg, args...)
	if cleanup != nil {
		cleanup()
	}
	os.Exit(1)
}
