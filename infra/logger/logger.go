package logger

import corelogger "github.com/kilianp07/trajplan/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The format is chosen from
// APP_ENV and the minimum level from LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger { return corelogger.OrNop(l) }
