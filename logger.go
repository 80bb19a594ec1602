package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})
}

type logger struct {
	z *zap.SugaredLogger
}

// NewLogger returns a Logger that writes single-line, timestamped,
// level-prefixed messages to stderr. Unknown levels fall back to info.
func NewLogger(level string) Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.ConsoleSeparator = " "
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), lvl)
	return &logger{z: zap.New(core).Sugar()}
}

func (l *logger) Debug(format string, v ...interface{}) {
	l.z.Debugf(format, v...)
}

func (l *logger) Info(format string, v ...interface{}) {
	l.z.Infof(format, v...)
}

func (l *logger) Warn(format string, v ...interface{}) {
	l.z.Warnf(format, v...)
}

func (l *logger) Error(format string, v ...interface{}) {
	l.z.Errorf(format, v...)
}

func (l *logger) Fatal(format string, v ...interface{}) {
	_ = l.z.Sync()
	l.z.Fatalf(format, v...)
}

// kgoLogger routes franz-go's client logs through a Logger. Only warnings
// and errors are let through; the client is very chatty at info.
type kgoLogger struct {
	Logger
}

// make sure it implements kgo.Logger
var _ kgo.Logger = kgoLogger{}

func (kgoLogger) Level() kgo.LogLevel {
	return kgo.LogLevelWarn
}

func (l kgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	var b strings.Builder
	b.WriteString("kafka: ")
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	switch level {
	case kgo.LogLevelError:
		l.Logger.Error("%s", b.String())
	case kgo.LogLevelWarn:
		l.Logger.Warn("%s", b.String())
	default:
		l.Logger.Debug("%s", b.String())
	}
}
