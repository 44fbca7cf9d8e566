package logger

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bip-api/pkg/config"
)

// NewLogger пишет в stdout и в файл logs/app.YYYYMMDD.log с ежедневной ротацией.
func NewLogger(cfg config.LogConfig) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err == nil {
			writer, err := rotatelogs.New(
				filepath.Join(cfg.Dir, "app.%Y%m%d.log"),
				rotatelogs.WithLinkName(filepath.Join(cfg.Dir, "app.log")),
				rotatelogs.WithMaxAge(7*24*time.Hour),
				rotatelogs.WithRotationTime(24*time.Hour),
			)
			if err == nil {
				cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), level))
			}
		}
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}
