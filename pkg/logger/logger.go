package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global = zap.NewNop()

// New builds a JSON production logger for "production" and a console logger otherwise.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg.Build()
}

// Init builds the process logger and installs it as the fallback returned by L.
func Init(env string) *zap.Logger {
	log, err := New(env)
	if err != nil {
		log = zap.NewExample()
		log.Error("failed to build logger, using example logger", zap.Error(err))
	}
	global = log
	zap.ReplaceGlobals(log)
	return log
}

// L returns the process logger. It is a no-op logger until Init is called.
func L() *zap.Logger {
	return global
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Sync flushes buffered entries of the process logger.
func Sync() {
	_ = global.Sync()
}
