// Package log holds the process-wide structured logger.
package log

import (
	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
)

// Logger discards everything until Setup points it at a file. The TUI owns
// the terminal, so nothing is ever written to stdout or stderr.
var Logger = zap.NewNop()

// Setup replaces Logger with one appending JSON lines to path
func Setup(path, level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.Sampling = nil

	logger, err := cfg.Build()
	if err != nil {
		return errors.Wrapf(err, "build logger for %s", path)
	}
	Logger = logger.Named("docgrip")
	return nil
}

// Sync flushes buffered entries
func Sync() {
	_ = Logger.Sync()
}
