package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var _ Logger = (*logrusLogger)(nil)

// DefaultTimestampFormat is used when SimpleFormatter has no explicit format.
const DefaultTimestampFormat = "2006/01/02 15:04:05.000000"

// LogFileName is the file created inside the log directory.
const LogFileName = "mudra.log"

type logrusLogger struct {
	entry *logrus.Entry
}

// New creates a logrus-backed Logger writing to stdout and, when logDir is
// set, appending to logDir/mudra.log as well. Unknown levels fall back to info.
func New(level string, logDir string) (Logger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&SimpleFormatter{TimestampFormat: DefaultTimestampFormat})

	if logDir == "" {
		l.SetOutput(os.Stdout)
		return &logrusLogger{entry: logrus.NewEntry(l)}, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory %q: %w", logDir, err)
	}
	path := filepath.Join(logDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	l.SetOutput(io.MultiWriter(os.Stdout, f))

	return &logrusLogger{entry: logrus.NewEntry(l)}, nil
}

// NewWriter creates a Logger writing to w at the given level. Tests use it
// with a bytes.Buffer or io.Discard.
func NewWriter(w io.Writer, level string) Logger {
	l := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&SimpleFormatter{})
	l.SetOutput(w)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return NewWriter(io.Discard, "panic")
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

// SimpleFormatter renders one line per entry in the style of the standard
// log package: "2006/01/02 15:04:05.000000 [INF] message key=value".
type SimpleFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter.
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	format := f.TimestampFormat
	if format == "" {
		format = DefaultTimestampFormat
	}
	b.WriteString(entry.Time.Format(format))
	b.WriteString(" ")

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 3 {
		level = level[:3]
	}
	fmt.Fprintf(b, "[%s] ", level)
	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}
