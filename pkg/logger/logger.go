package logger

import (
	"exam_engine_backend/internal/config"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 全局日志，InitLogger 之前是 no-op，单元测试可以直接用
var Log = zap.NewNop()

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return ec
}

// Level debug 模式默认 Debug，log.level 显式配置时优先
func Level(cfg *config.Config) zapcore.Level {
	level := zapcore.InfoLevel
	if cfg.Server.Mode == "debug" {
		level = zapcore.DebugLevel
	}
	if l, err := zapcore.ParseLevel(cfg.Log.Level); cfg.Log.Level != "" && err == nil {
		level = l
	}
	return level
}

func rotatingFile(lc config.LogConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   true,
	}
}

// Build 文件写 JSON，控制台写可读格式；file 为空时不落盘
func Build(cfg *config.Config, console io.Writer) *zap.Logger {
	level := zap.NewAtomicLevelAt(Level(cfg))
	var cores []zapcore.Core

	if cfg.Log.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.AddSync(rotatingFile(cfg.Log)),
			level,
		))
	}
	if cfg.Log.Console && console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.AddSync(console),
			level,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop()
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).
		With(zap.String("service", "exam-engine"))
}

func InitLogger(cfg *config.Config) {
	Log = Build(cfg, os.Stdout)
}
