package proxy

import (
	"sync"

	"go.uber.org/zap"
)

var (
	pkgLogger  *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the proxy package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if pkgLogger == nil {
			pkgLogger = zap.NewNop()
		}
	})
	return pkgLogger
}

// SetLogger configures the proxy package's logger.
// This must be called before any proxy operations.
func SetLogger(l *zap.Logger) {
	pkgLogger = l
}

func logger() *zap.Logger { return Logger() }

func typeField(name string) zap.Field { return zap.String("type", name) }
func attrField(name string) zap.Field { return zap.String("attr", name) }
func funcField(name string) zap.Field { return zap.String("func", name) }
