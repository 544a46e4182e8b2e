// Package logger keeps one process-wide zap logger that writes to a file.
// The terminal belongs to the editor, so nothing is ever logged to stderr.
// Every helper is a no-op until Init succeeds and again after Close.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const fileName = "jotdown.log"

var (
	sugar *zap.SugaredLogger
	base  *zap.Logger
	out   *os.File
)

// Options control Init.
type Options struct {
	Debug bool
	// Path overrides the log file. Empty means JOTDOWN_LOG_FILE, then the
	// jotdown config directory.
	Path string
}

// Init replaces the log file with a fresh one and installs the logger.
func Init(opts Options) error {
	path := opts.Path
	if path == "" {
		var err error
		if path, err = logPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(f), level)
	// Skip one frame so the caller field names the call site, not this file.
	base = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	sugar = base.Sugar()
	out = f

	sugar.Infow("log opened", "path", path, "level", level.String())
	return nil
}

// Close syncs and closes the log file.
func Close() error {
	if base != nil {
		_ = base.Sync()
	}
	var err error
	if out != nil {
		err = out.Close()
	}
	sugar, base, out = nil, nil, nil
	return err
}

// logPath picks the log file from the environment, most specific first.
func logPath() (string, error) {
	if p := os.Getenv("JOTDOWN_LOG_FILE"); p != "" {
		return p, nil
	}
	dir := os.Getenv("JOTDOWN_CONFIG_HOME")
	if dir == "" {
		xdg := os.Getenv("XDG_CONFIG_HOME")
		if xdg == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			xdg = filepath.Join(home, ".config")
		}
		dir = filepath.Join(xdg, "jotdown")
	}
	return filepath.Join(dir, fileName), nil
}

func Debug(msg string, kv ...interface{}) {
	if sugar != nil {
		sugar.Debugw(msg, kv...)
	}
}

func Info(msg string, kv ...interface{}) {
	if sugar != nil {
		sugar.Infow(msg, kv...)
	}
}

func Warn(msg string, kv ...interface{}) {
	if sugar != nil {
		sugar.Warnw(msg, kv...)
	}
}

// Error also records a stack trace.
func Error(msg string, kv ...interface{}) {
	if sugar != nil {
		sugar.Errorw(msg, kv...)
	}
}
