package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	mu     *sync.Mutex
	writer io.Writer
	fields []any

	Name  string
	Level LogLevel

	TimeFormat string
	File       string
	NoColor    bool
	JSON       bool
	NoTerminal bool
	Terminal   io.Writer
	Rotation   *LoggerRotation
}

type LoggerRotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type LoggerOption func(*Logger)

func WithFile(file string) LoggerOption {
	return func(l *Logger) {
		l.File = file
	}
}

func WithJSON() LoggerOption {
	return func(l *Logger) {
		l.JSON = true
	}
}

func WithoutTerminal() LoggerOption {
	return func(l *Logger) {
		l.NoTerminal = true
	}
}

func WithoutColor() LoggerOption {
	return func(l *Logger) {
		l.NoColor = true
	}
}

// WithTerminal sets the terminal writer used next to the log file (default: os.Stderr).
func WithTerminal(w io.Writer) LoggerOption {
	return func(l *Logger) {
		l.Terminal = w
	}
}

// WithWriter replaces the terminal/file writers, mostly useful in tests.
func WithWriter(w io.Writer) LoggerOption {
	return func(l *Logger) {
		l.writer = w
		l.NoColor = true
	}
}

func NewLogger(name string, level LogLevel, opts ...LoggerOption) *Logger {
	l := &Logger{
		mu:    &sync.Mutex{},
		Name:  name,
		Level: level,

		TimeFormat: "2006-01-02 15:04:05",
		Rotation: &LoggerRotation{
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
			Compress:   false,
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.writer == nil {
		l.setupWriter()
	}

	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger("", Fatal+1, WithWriter(io.Discard))
}

func (l *Logger) setupWriter() {
	var writers []io.Writer

	terminal := l.Terminal
	if terminal == nil {
		terminal = os.Stderr
	}

	if !l.NoTerminal {
		writers = append(writers, terminal)
	}

	if l.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.Rotation.MaxSize,
			MaxBackups: l.Rotation.MaxBackups,
			MaxAge:     l.Rotation.MaxAge,
			Compress:   l.Rotation.Compress,
		}
		writers = append(writers, fileWriter)
	}

	if len(writers) == 0 {
		writers = append(writers, terminal)
	}

	l.writer = io.MultiWriter(writers...)
}

func (l *Logger) log(level LogLevel, msg string, kv ...any) {
	if l == nil || level < l.Level {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	fields := append(append([]any{}, l.fields...), kv...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.JSON {
		entry := map[string]any{
			"timestamp": timestamp,
			"level":     level.String(),
			"message":   msg,
		}
		if l.Name != "" {
			entry["service"] = l.Name
		}
		for i := 0; i < len(fields); i += 2 {
			entry[fieldKey(fields, i)] = fieldValue(fields, i)
		}

		jsonBytes, _ := json.Marshal(entry)
		fmt.Fprintf(l.writer, "%s\n", jsonBytes)
	} else {
		prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
		if l.Name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
		}

		line := msg
		if len(fields) > 0 {
			line = msg + " " + formatFields(fields)
		}

		if !l.NoTerminal && !l.NoColor {
			fmt.Fprintf(l.writer, "%s%s %s%s\n", level.color(), prefix, line, colorReset)
		} else {
			fmt.Fprintf(l.writer, "%s %s\n", prefix, line)
		}
	}

	if level == Fatal {
		os.Exit(1)
	}
}

func formatFields(fields []any) string {
	parts := make([]string, 0, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		parts = append(parts, fmt.Sprintf("%s=%v", fieldKey(fields, i), fieldValue(fields, i)))
	}
	return strings.Join(parts, " ")
}

func fieldKey(fields []any, i int) string {
	if key, ok := fields[i].(string); ok {
		return key
	}
	return fmt.Sprint(fields[i])
}

func fieldValue(fields []any, i int) any {
	if i+1 >= len(fields) {
		return "(MISSING)"
	}
	if err, ok := fields[i+1].(error); ok {
		return err.Error()
	}
	return fields[i+1]
}

func (l *Logger) Debug(msg string, kv ...any) {
	l.log(Debug, msg, kv...)
}

func (l *Logger) Info(msg string, kv ...any) {
	l.log(Info, msg, kv...)
}

func (l *Logger) Warn(msg string, kv ...any) {
	l.log(Warn, msg, kv...)
}

func (l *Logger) Error(msg string, kv ...any) {
	l.log(Error, msg, kv...)
}

func (l *Logger) Fatal(msg string, kv ...any) {
	l.log(Fatal, msg, kv...)
}

// With returns a logger that adds kv to every entry.
func (l *Logger) With(kv ...any) *Logger {
	child := l.clone(l.Name)
	child.fields = append(append([]any{}, l.fields...), kv...)
	return child
}

func (l *Logger) Named(name string) *Logger {
	if l.Name != "" {
		name = fmt.Sprintf("%s/%s", l.Name, name)
	}
	return l.clone(name)
}

func (l *Logger) clone(name string) *Logger {
	return &Logger{
		mu:     l.mu,
		writer: l.writer, // Share the same writer
		fields: l.fields,

		Name:  name,
		Level: l.Level,

		TimeFormat: l.TimeFormat,
		File:       l.File,
		NoColor:    l.NoColor,
		NoTerminal: l.NoTerminal,
		Terminal:   l.Terminal,
		JSON:       l.JSON,
		Rotation:   l.Rotation,
	}
}
