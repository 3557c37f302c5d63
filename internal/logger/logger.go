package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 创建一个新的日志记录器
func NewLogger(debug bool) *zap.Logger {
	level := "info"
	if debug {
		level = "debug"
	}

	logger, err := NewLoggerWithLevel(level)
	if err != nil {
		panic("初始化日志系统失败: " + err.Error())
	}
	return logger
}

// NewLoggerWithLevel 按级别名称（debug/info/warn/error）创建日志记录器
func NewLoggerWithLevel(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true

	return config.Build()
}
