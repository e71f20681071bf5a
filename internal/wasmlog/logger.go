// Package wasmlog provides the package-level logger shared by the decoder, validator
// and reset pass. It defaults to a no-op logger so embedding a module into a host never
// produces unwanted output unless the host opts in via SetLogger.
package wasmlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns this package's logger instance. It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures this package's logger. Call before decoding if the host wants
// diagnostics surfaced through zap rather than discarded.
func SetLogger(l *zap.Logger) {
	logger = l
}
