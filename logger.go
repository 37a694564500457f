package sirius

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package logger. It is a no-op logger unless SetLogger
// installed another one. Only cold paths log, such as compiling the
// reflection plan for a new type.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger replaces the package logger. A nil logger restores the no-op
// default.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
