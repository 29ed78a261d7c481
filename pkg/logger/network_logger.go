// Package logger writes one JSON object per line with request-scoped fields.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Context keys read by WithContext. Fiber stores locals as fasthttp user
// values, so ids set with c.Locals are visible through c.Context().
const (
	RequestIDKey = "request_id"
	UserIDKey    = "user_id"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelFatal {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps LOG_LEVEL values onto a Level; unknown values are info.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i)
		}
	}
	return LevelInfo
}

// LogEntry is the line format. Well-known fields are lifted to the top
// level; everything else stays under "fields".
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Service   string         `json:"service,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	EventID   string         `json:"event_id,omitempty"`
	Duration  float64        `json:"duration_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
	File      string         `json:"file,omitempty"`
	Line      int            `json:"line,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

type sink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(line)
}

// Logger values are immutable; the With* methods return derived loggers
// that share the parent's output.
type Logger struct {
	level   Level
	service string
	sink    *sink
	fields  map[string]any
}

type Config struct {
	Level   Level
	Output  io.Writer
	Service string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init configures the package-level logger. Only the first call has effect.
func Init(cfg Config) {
	once.Do(func() {
		if cfg.Service == "" {
			cfg.Service = "network"
		}
		defaultLogger = New(cfg)
	})
}

func Default() *Logger {
	Init(Config{Level: LevelInfo})
	return defaultLogger
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return &Logger{
		level:   cfg.Level,
		service: cfg.Service,
		sink:    &sink{out: cfg.Output},
	}
}

func (l *Logger) derive(extra int) *Logger {
	fields := make(map[string]any, len(l.fields)+extra)
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{level: l.level, service: l.service, sink: l.sink, fields: fields}
}

func (l *Logger) WithField(key string, value any) *Logger {
	d := l.derive(1)
	d.fields[key] = value
	return d
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	d := l.derive(len(fields))
	for k, v := range fields {
		d.fields[k] = v
	}
	return d
}

// WithContext copies the request and user ids stored on ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	d := l.derive(2)
	if ctx == nil {
		return d
	}
	for _, key := range []string{RequestIDKey, UserIDKey} {
		if v := ctx.Value(key); v != nil {
			d.fields[key] = fmt.Sprint(v)
		}
	}
	return d
}

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) WithDuration(d time.Duration) *Logger {
	return l.WithField("duration_ms", float64(d.Microseconds())/1000.0)
}

func (l *Logger) entry(level Level, msg string) LogEntry {
	e := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Service:   l.service,
	}

	rest := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		switch k {
		case RequestIDKey:
			e.RequestID = fmt.Sprint(v)
		case UserIDKey:
			e.UserID = fmt.Sprint(v)
		case "event_id":
			e.EventID = fmt.Sprint(v)
		case "error":
			e.Error = fmt.Sprint(v)
		case "duration_ms":
			if ms, ok := v.(float64); ok {
				e.Duration = ms
				continue
			}
			rest[k] = v
		default:
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		e.Fields = rest
	}
	return e
}

func (l *Logger) log(level Level, msg string, args ...any) {
	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	e := l.entry(level, msg)
	if level >= LevelError {
		if _, file, line, ok := runtime.Caller(2); ok {
			e.File, e.Line = file, line
		}
	}

	data, err := json.Marshal(e)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":"ERROR","message":%q}`, "unencodable log entry: "+err.Error()))
	}
	l.sink.write(append(data, '\n'))
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(LevelFatal, msg, args...)
	os.Exit(1)
}

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
func Fatal(msg string, args ...any) { Default().Fatal(msg, args...) }

func WithField(key string, value any) *Logger  { return Default().WithField(key, value) }
func WithFields(fields map[string]any) *Logger { return Default().WithFields(fields) }
func WithContext(ctx context.Context) *Logger  { return Default().WithContext(ctx) }
func WithError(err error) *Logger              { return Default().WithError(err) }
func WithDuration(d time.Duration) *Logger     { return Default().WithDuration(d) }
