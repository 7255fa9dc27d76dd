package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger used by the pipeline, store and
// HTTP layers. It defaults to log.Printf and may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

var debugEnabled atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// EnableDebug toggles Debugf output.
func EnableDebug(on bool) {
	debugEnabled.Store(on)
}

// DebugEnabled reports whether Debugf forwards to Logf.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf forwards to Logf with a "[debug] " prefix when debug output is on.
func Debugf(format string, v ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	Logf("[debug] "+format, v...)
}
