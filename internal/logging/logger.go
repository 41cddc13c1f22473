// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// RootName is printed for entries logged without a logger name.
const RootName = "root"

const timeLayout = "15:04:05.000"

var linePool = buffer.NewPool()

// New builds a zap.Logger configured for development or production. It
// writes to stderr and is used before the job file names a log folder.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// FileLogger is a per-run logger writing to its own file.
type FileLogger struct {
	*zap.Logger
	Path string
	file *os.File
}

// Close flushes and closes the log file.
func (l *FileLogger) Close() error {
	_ = l.Sync()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// NewFileLogger creates <dir>/scraper_<name>_<suffix>.log and returns a
// logger writing lines as "HH:MM:SS.mmm <logger> <LEVEL> <message>". Debug
// entries are kept only when debug is set.
func NewFileLogger(dir, name, suffix string, debug bool) (*FileLogger, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("scraper_%s_%s.log", name, suffix))
	// #nosec G304 -- the log folder is supplied by the orchestrator.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(NewLineEncoder(), zapcore.AddSync(f), level)
	return &FileLogger{
		Logger: zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)),
		Path:   path,
		file:   f,
	}, nil
}

// NewLineEncoder returns the encoder used for run logs. Fields and stack
// traces follow the message the same way zap's console encoder renders them.
func NewLineEncoder() zapcore.Encoder {
	inner := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
	})
	return lineEncoder{Encoder: inner}
}

// lineEncoder prefixes each entry with time, logger name and level in that
// order, which zap's console encoder cannot do on its own.
type lineEncoder struct {
	zapcore.Encoder
}

func (e lineEncoder) Clone() zapcore.Encoder {
	return lineEncoder{Encoder: e.Encoder.Clone()}
}

func (e lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	body, err := e.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}
	defer body.Free()

	name := ent.LoggerName
	if name == "" {
		name = RootName
	}
	line := linePool.Get()
	line.AppendTime(ent.Time, timeLayout)
	line.AppendByte(' ')
	line.AppendString(name)
	line.AppendByte(' ')
	line.AppendString(levelName(ent.Level))
	line.AppendByte(' ')
	_, _ = line.Write(body.Bytes())
	return line, nil
}

// levelName spells levels the way the orchestrator's log readers expect.
func levelName(l zapcore.Level) string {
	if l == zapcore.WarnLevel {
		return "WARNING"
	}
	return l.CapitalString()
}
