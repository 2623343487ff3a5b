package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case Debug:
		return logrus.DebugLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Logger es la fachada que usan los paquetes de dominio; los campos viajan
// como map para no acoplarlos a logrus.
type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Output por defecto es os.Stdout.
	Output io.Writer
}

type entryLogger struct {
	entry *logrus.Entry
}

func New(opts Options) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	}
	l.SetLevel(opts.Level.logrus())

	switch opts.Format {
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		})
	}

	entry := logrus.NewEntry(l)
	if app := strings.TrimSpace(opts.App); app != "" {
		entry = entry.WithField("app", app)
	}
	return &entryLogger{entry: entry}
}

// Discard descarta todo; útil en tests.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return &entryLogger{entry: logrus.NewEntry(l)}
}

// Err normaliza un error como campo del log.
func Err(err error) map[string]any {
	if err == nil {
		return nil
	}
	return map[string]any{"error": err.Error()}
}

func (l *entryLogger) With(fields map[string]any) Logger {
	f := toFields(fields)
	if len(f) == 0 {
		return l
	}
	return &entryLogger{entry: l.entry.WithFields(f)}
}

func (l *entryLogger) Debug(msg string, fields map[string]any) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *entryLogger) Info(msg string, fields map[string]any) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *entryLogger) Warn(msg string, fields map[string]any) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *entryLogger) Error(msg string, fields map[string]any) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

// keys vacías se descartan
func toFields(m map[string]any) logrus.Fields {
	out := make(logrus.Fields, len(m))
	for k, v := range m {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = v
	}
	return out
}
