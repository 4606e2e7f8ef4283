// Package log is the structured logger shared by every e2easy component.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type log struct {
	*zap.SugaredLogger
}

// Logger can log to different levels, either as plain statements or as a
// message followed by key/value pairs.
type Logger interface {
	Info(keyvals ...interface{})
	Debug(keyvals ...interface{})
	Warn(keyvals ...interface{})
	Error(keyvals ...interface{})
	Fatal(keyvals ...interface{})
	Infow(msg string, keyvals ...interface{})
	Debugw(msg string, keyvals ...interface{})
	Warnw(msg string, keyvals ...interface{})
	Errorw(msg string, keyvals ...interface{})
	Fatalw(msg string, keyvals ...interface{})
	With(args ...interface{}) Logger
	Named(s string) Logger
}

func (l *log) With(args ...interface{}) Logger {
	return &log{l.SugaredLogger.With(args...)}
}

func (l *log) Named(s string) Logger {
	return &log{l.SugaredLogger.Named(s)}
}

const (
	InfoLevel  = int(zapcore.InfoLevel)
	DebugLevel = int(zapcore.DebugLevel)
	ErrorLevel = int(zapcore.ErrorLevel)
	WarnLevel  = int(zapcore.WarnLevel)
)

// DefaultLevel is the level of the default logger. Setting E2EASY_LOGS=DEBUG
// in the environment lowers it to debug.
var DefaultLevel = InfoLevel

func init() {
	if v, ok := os.LookupEnv("E2EASY_LOGS"); ok && v == "DEBUG" {
		DefaultLevel = DebugLevel
	}
}

var defaultOnce sync.Once

// DefaultLogger logs JSON to stdout at DefaultLevel.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		zap.ReplaceGlobals(newZapLogger(nil, jsonEncoder(), DefaultLevel))
	})
	return &log{zap.S()}
}

// New returns a logger that prints statements at the given level to output,
// or to stdout when output is nil.
func New(output zapcore.WriteSyncer, level int, isJSON bool) Logger {
	encoder := consoleEncoder()
	if isJSON {
		encoder = jsonEncoder()
	}
	return &log{newZapLogger(output, encoder, level).Sugar()}
}

// Nop discards everything.
func Nop() Logger {
	return &log{zap.NewNop().Sugar()}
}

func newZapLogger(output zapcore.WriteSyncer, encoder zapcore.Encoder, level int) *zap.Logger {
	if output == nil {
		output = os.Stdout
	}
	core := zapcore.NewCore(encoder, output, zapcore.Level(level))
	return zap.New(core, zap.WithCaller(true))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(encoderConfig())
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(encoderConfig())
}
