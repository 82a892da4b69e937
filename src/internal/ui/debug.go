package ui

import (
	"os"
	"sync"

	"github.com/jsvm/jsvm/src/internal/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	verbose  bool
	loggerMu sync.Mutex
)

// Logger returns the debug logger. It is a no-op logger until
// SetVerbose(true) or SetLogFile enables output.
func Logger() *zap.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// SetVerbose enables or disables debug output on stderr
func SetVerbose(v bool) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	verbose = v
	logger = buildLogger(v, os.Getenv(constants.EnvLogFile))
}

// ConfigureFromEnv applies JSVM_VERBOSE and JSVM_LOGFILE. The shim has no
// flags, so this is its only way to enable debug output.
func ConfigureFromEnv() {
	v := os.Getenv(constants.EnvVerbose)
	SetVerbose(v != "" && v != "0" && v != "false")
}

// IsVerbose reports whether debug output is enabled
func IsVerbose() bool {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return verbose
}

// Debug logs a formatted message when verbose output is enabled
func Debug(format string, args ...interface{}) {
	Logger().Sugar().Debugf(format, args...)
}

// Sync flushes buffered log entries
func Sync() {
	_ = Logger().Sync()
}

func buildLogger(toStderr bool, logFile string) *zap.Logger {
	var cores []zapcore.Core

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if toStderr {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			zapcore.DebugLevel,
		))
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			fileCfg := zap.NewDevelopmentEncoderConfig()
			cores = append(cores, zapcore.NewCore(
				zapcore.NewConsoleEncoder(fileCfg),
				zapcore.AddSync(f),
				zapcore.DebugLevel,
			))
		}
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...))
}
