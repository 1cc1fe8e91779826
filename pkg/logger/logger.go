// Package logger owns the process-wide zap logger. Modules obtain a named
// child through WithModule so ingestion, registry and feed entries stay
// distinguishable in one stream.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init replaces the global logger with a production configuration at the
// given level. Unknown level strings fall back to info rather than failing
// startup.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	global = built
	mu.Unlock()
	return nil
}

// Logger returns the current global logger. Before Init it is a no-op logger,
// so early callers never hit a nil.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// WithModule returns a child logger tagged with the owning module name.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// Sync flushes buffered entries, called once on shutdown.
func Sync() error {
	return Logger().Sync()
}
