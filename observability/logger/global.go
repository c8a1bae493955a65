package logger

import (
	"context"
	"sync"
	"sync/atomic"
)

// The global logger backs the package-level logging functions. Until
// SetGlobal runs, a debug-level pretty logger stands in, so early code and
// tests can log without any setup.
//
//nolint:gochecknoglobals // process-wide logger singleton
var (
	global   atomic.Value
	setOnce  sync.Once
	initOnce sync.Once
)

// SetGlobal installs the configured logger as the process-wide default.
// Call it once during startup; a second call or a broken config panics,
// since a service without logging must not come up.
func SetGlobal(cfg Config) {
	installed := false

	setOnce.Do(func() {
		// block the lazy default from racing in after us
		initOnce.Do(func() {})

		l, err := newLogger(cfg)
		if err != nil {
			panic("[logger]: failed to initialize global logger: " + err.Error())
		}
		global.Store(l)
		installed = true
	})

	if !installed {
		panic("[logger]: SetGlobal can only be called once")
	}
}

func getGlobal() Logger {
	if v := global.Load(); v != nil {
		return v.(Logger) //nolint:errcheck // only Loggers are stored
	}

	initOnce.Do(func() {
		l, err := newLogger(Config{Level: levelDebug, Encoding: encPretty})
		if err != nil {
			panic("[logger]: failed to initialize default logger: " + err.Error())
		}
		global.Store(l)
	})
	return global.Load().(Logger) //nolint:errcheck // only Loggers are stored
}

// Package-level shortcuts onto the global logger.

func Debug(msg any) { getGlobal().Debug(msg) }
func Info(msg any)  { getGlobal().Info(msg) }
func Warn(msg any)  { getGlobal().Warn(msg) }
func Error(msg any) { getGlobal().Error(msg) }
func Fatal(msg any) { getGlobal().Fatal(msg) }

func Debugf(format string, args ...any) { getGlobal().Debugf(format, args...) }
func Infof(format string, args ...any)  { getGlobal().Infof(format, args...) }
func Warnf(format string, args ...any)  { getGlobal().Warnf(format, args...) }
func Errorf(format string, args ...any) { getGlobal().Errorf(format, args...) }
func Fatalf(format string, args ...any) { getGlobal().Fatalf(format, args...) }

func Warnx(err error)  { getGlobal().Warnx(err) }
func Errorx(err error) { getGlobal().Errorx(err) }
func Fatalx(err error) { getGlobal().Fatalx(err) }

// With returns the global logger enriched with key-value pairs.
func With(keysAndValues ...any) Logger {
	return getGlobal().With(keysAndValues...)
}

// WithContext returns the global logger enriched with the request
// metadata carried by ctx.
func WithContext(ctx context.Context) Logger {
	return getGlobal().WithContext(ctx)
}

// Named returns the global logger scoped under name.
func Named(name string) Logger {
	return getGlobal().Named(name)
}

// Sync flushes the global logger's buffers.
func Sync() error {
	return getGlobal().Sync()
}
