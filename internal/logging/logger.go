// Package logging wraps zap for the QoS controller's structured logging.
//
// It mirrors the teacher-repo convention of a safe-by-default package-level
// logger: usable before Initialize runs (as a no-op), swapped for a real
// sink once the CLI parses flags.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the package-level sugared logger. Safe to use before
// Initialize: it starts as a no-op so construction-time logging from
// package init() functions never panics.
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. jsonOutput selects structured JSON
// (for log aggregation) over the human-readable console encoder (for local
// foreground runs). verbosity follows the CLI's repeated -v flag.
func Initialize(jsonOutput bool, verbosity int) error {
	level := VerbosityToLevel(verbosity)

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		zapLogger, err := cfg.Build()
		if err != nil {
			return err
		}
		Logger = zapLogger.Sugar()
		return nil
	}

	zapLogger := zap.New(
		zapcore.NewCore(newConsoleEncoder(), zapcore.AddSync(os.Stdout), level),
	)
	Logger = zapLogger.Sugar()
	return nil
}

// Named returns a child logger tagged with the given component name, the
// way the teacher's worker pool names its logger "pulse".
func Named(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// Sync flushes any buffered log entries. Errors are frequently EINVAL on
// stdout/stderr and are safe to ignore; callers may still want to observe
// them.
func Sync() error {
	if Logger == nil {
		return nil
	}
	return Logger.Sync()
}
