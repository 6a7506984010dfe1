package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields are structured key/value pairs attached to a log line.
type Fields map[string]any

// Logger is the leveled, structured logger every component receives.
type Logger interface {
	With(fields Fields) Logger
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// LogOptions controls how NewLogger builds the underlying logrus logger.
type LogOptions struct {
	Level  string
	Format string // "json" or "text"
	File   string // optional rotating log file, written alongside stdout
}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a logrus-backed Logger writing to stdout and, when
// opts.File is set, to a size-rotated file.
func NewLogger(opts LogOptions) Logger {
	l := logrus.New()

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(opts.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	return NewLoggerFrom(l)
}

// NewLoggerFrom wraps an existing logrus logger, e.g. one from
// logrus/hooks/test in unit tests.
func NewLoggerFrom(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) With(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) Debug(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Info(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warn(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Error(format string, args ...any) { l.entry.Errorf(format, args...) }

// CronLogger adapts a Logger to the logger interface of robfig/cron.
type CronLogger struct {
	Logger Logger
}

func (c CronLogger) Info(msg string, keysAndValues ...any) {
	c.Logger.With(kvFields(keysAndValues)).Debug("[cron] %s", msg)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...any) {
	f := kvFields(keysAndValues)
	f["error"] = err.Error()
	c.Logger.With(f).Error("[cron] %s", msg)
}

func kvFields(kv []any) Fields {
	f := make(Fields, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
