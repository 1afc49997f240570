package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	// Mode is "prod" for JSON console output at info level, anything else for
	// human readable output at debug level.
	Mode          string
	Dir           string
	RetentionDays int
}

// New builds a logger writing to stdout and, when Dir is set, to a daily
// rotated JSON file. The returned func flushes and closes the file.
func New(opts Options) (*zap.SugaredLogger, func(), error) {
	prod := isProd(opts.Mode)
	level := zapcore.DebugLevel
	var consoleEncoder zapcore.Encoder
	if prod {
		level = zapcore.InfoLevel
		consoleEncoder = zapcore.NewJSONEncoder(productionEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
	}

	var daily *DailyFile
	if strings.TrimSpace(opts.Dir) != "" {
		var err error
		daily, err = OpenDailyFile(opts.Dir, opts.RetentionDays)
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(productionEncoderConfig()), daily, level))
	}

	base := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	cleanup := func() {
		_ = base.Sync()
		if daily != nil {
			_ = daily.Close()
		}
	}
	return base.Sugar(), cleanup, nil
}

// Nop discards everything. Used by tests and as a fallback.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func isProd(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return true
	}
	return false
}

func productionEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
