package utils

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger for debug messages
var (
	isVerbose = false
	logger    = zap.NewNop().Sugar()
)

// Log prints debug messages to the log file if verbose mode is enabled
func Log(text string, args ...interface{}) {
	if isVerbose {
		logger.Debugf(text, args...)
	}
}

// Logger returns the structured logger. It is a no-op until InitLogger
// is called with verbose enabled.
func Logger() *zap.SugaredLogger {
	return logger
}

// InitLogger initializes the logging system
func InitLogger(verbose bool) {
	isVerbose = verbose
	if !verbose {
		logger = zap.NewNop().Sugar()
		return
	}

	// The TUI owns stdout, so logs go to a dated file.
	logFileName := fmt.Sprintf("/tmp/timely_%s.log", time.Now().Format("2006-01-02"))

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{logFileName}
	cfg.ErrorOutputPaths = []string{logFileName}
	cfg.DisableStacktrace = true

	built, err := cfg.Build()
	if err != nil {
		fmt.Printf("Error creating log file: %v\n", err)
		return
	}
	logger = built.Sugar()

	Log("Verbose logging enabled")
}

// CloseLogger flushes buffered log entries
func CloseLogger() {
	_ = logger.Sync()
}
