// Package logger builds the zap logger shared by the server and CLI.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build returns a sugared logger. Debug mode uses the console encoder at debug
// level; otherwise JSON at info. When buf is non-nil every entry is also
// copied into it so it can be served over HTTP.
func Build(debug bool, buf *LogBuffer) *zap.SugaredLogger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "time"
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.Encoding = "json"
	}
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"

	opts := []zap.Option{zap.AddCaller()}
	if buf != nil {
		bufCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg.EncoderConfig),
			zapcore.AddSync(buf),
			cfg.Level,
		)
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, bufCore)
		}))
	}

	logger, err := cfg.Build(opts...)
	if err != nil {
		// Only reachable with a broken encoder config
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
