package kit

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions controls the service logger. With File set, JSON lines also go
// to a size-rotated file next to stdout.
type LogOptions struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func NewLogger(service string, opts LogOptions) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if lvl, err := zapcore.ParseLevel(strings.TrimSpace(opts.Level)); err == nil {
		level.SetLevel(lvl)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	out := zapcore.AddSync(os.Stdout)
	if opts.File != "" {
		out = zapcore.NewMultiWriteSyncer(out, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), out, level)
	return zap.New(core, zap.AddCaller()).With(zap.String("service", service))
}
