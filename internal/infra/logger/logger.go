package logger

import (
	"os"
	"path"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls where and how verbosely the app logs. An empty Dir
// keeps everything on the console, which is what tests want.
type Config struct {
	Dir   string
	Level string
	Dev   bool
}

// New builds the application logger. With a Dir it tees JSON lines
// into daily rotated files and keeps a console core alongside; the
// console switches to the colored dev encoder in dev mode.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleConfig := encoderConfig
	if cfg.Dev {
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	if cfg.Dir == "" {
		return zap.New(console, zap.AddCaller()), nil
	}

	if err := os.MkdirAll(cfg.Dir, os.ModePerm); err != nil {
		return nil, err
	}
	writer, err := rotatelogs.New(
		path.Join(cfg.Dir, "app-%Y-%m-%d.log"),
		rotatelogs.WithMaxAge(30*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(writer),
			level,
		),
		console,
	)
	return zap.New(core, zap.AddCaller()), nil
}
