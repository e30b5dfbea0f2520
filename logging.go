package pulpprobe

import "github.com/pulpprobe/pulpprobe/internal/common"

// Logging re-exports so embedders can configure the harness logger without
// reaching into internal packages.

type Logger = common.Logger

type LogLevel = common.LogLevel

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

// NewLogger creates a text logger at the given level.
func NewLogger(level LogLevel) *Logger { return common.NewLogger(level) }

// NewJSONLogger creates a JSON logger at the given level.
func NewJSONLogger(level LogLevel) *Logger { return common.NewJSONLogger(level) }

// SetDefaultLogger installs the process-wide logger.
func SetDefaultLogger(l *Logger) { common.SetDefaultLogger(l) }

// GetLogger returns the process-wide logger.
func GetLogger() *Logger { return common.GetLogger() }

// EnableMasking toggles credential masking in diagnostics.
func EnableMasking(on bool) { common.EnableMasking(on) }
