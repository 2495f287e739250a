package snc

import (
	"sync"

	"go.uber.org/zap"
)

// LogLevel mirrors the LOG_LEVEL env hint of spec §6 as an explicit,
// process-wide setter rather than an ambient environment read (spec §9
// Design Notes).
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogDebug
	LogTrace
)

var (
	loggerMu sync.RWMutex
	logger   *zap.Logger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	logger = l
}

// SetLogLevel reconfigures the process-wide logger's verbosity. TRACE maps
// to zap's Debug level since zap has no separate trace tier.
func SetLogLevel(level LogLevel) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	cfg := zap.NewProductionConfig()
	switch level {
	case LogTrace, LogDebug:
		cfg.Level.SetLevel(zap.DebugLevel)
	default:
		cfg.Level.SetLevel(zap.InfoLevel)
	}
	if l, err := cfg.Build(); err == nil {
		logger = l
	}
}

func log() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}
