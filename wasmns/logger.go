package wasmns

import (
	"sync"

	"go.uber.org/zap"
)

var (
	pkgLogger  *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the wasmns package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if pkgLogger == nil {
			pkgLogger = zap.NewNop()
		}
	})
	return pkgLogger
}

// SetLogger configures the wasmns package's logger.
// This must be called before any module operations.
func SetLogger(l *zap.Logger) {
	pkgLogger = l
}

func logger() *zap.Logger { return Logger() }

func nameField(name string) zap.Field { return zap.String("module", name) }
