// Package obslog provides structured request logging: per-request
// correlation IDs, JSON or human-readable output, and a fluent
// builder for attaching ad hoc fields.
//
// Design notes:
//   - Uses the standard log package for output, same as the teacher's
//     request logging middleware.
//   - JSON structured logging by default; human-readable for local
//     development.
//   - Log level: Info for success, Warn for 4xx, Error for 5xx on the
//     HTTP middleware path.
package obslog

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// LogLevel orders log severities so a Logger can filter below its
// minimum level.
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogFormat is the logger's output encoding.
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatHuman
)

// LogEntry is a single structured log record.
type LogEntry struct {
	Level     LogLevel               `json:"-"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Workload  string                 `json:"workload,omitempty"`
	Route     string                 `json:"route,omitempty"`
	Fields    map[string]interface{} `json:"-"`
	ElapsedUS int64                  `json:"elapsed_us,omitempty"`
}

// MarshalJSON flattens Fields alongside the entry's named fields, and
// renders Level by name rather than its numeric value.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Fields)+6)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["level"] = e.Level.String()
	out["message"] = e.Message
	if e.RequestID != "" {
		out["request_id"] = e.RequestID
	}
	if e.Workload != "" {
		out["workload"] = e.Workload
	}
	if e.Route != "" {
		out["route"] = e.Route
	}
	if e.ElapsedUS != 0 {
		out["elapsed_us"] = e.ElapsedUS
	}
	return json.Marshal(out)
}

// ToJSON renders the entry as a JSON string, falling back to the bare
// message if marshaling fails.
func (e LogEntry) ToJSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return e.Message
	}
	return string(data)
}

// ToHuman renders the entry in a terse human-readable form.
func (e LogEntry) ToHuman() string {
	s := fmt.Sprintf("[%s] %s", e.Level, e.Message)
	if e.ElapsedUS != 0 {
		s += fmt.Sprintf(" (%dus)", e.ElapsedUS)
	}
	if len(e.Fields) > 0 {
		s += " |"
		for k, v := range e.Fields {
			s += fmt.Sprintf(" %s=%v", k, v)
		}
	}
	return s
}

// Logger is a structured logger bound to one request's context:
// request ID, workload name, and route, attached to every entry it
// emits.
type Logger struct {
	requestID string
	workload  string
	route     string
	start     time.Time
	minLevel  LogLevel
	format    LogFormat
}

// NewLogger creates a logger for requestID, defaulting to Info level
// and JSON output.
func NewLogger(requestID string) *Logger {
	return &Logger{
		requestID: requestID,
		start:     time.Now(),
		minLevel:  LevelInfo,
		format:    FormatJSON,
	}
}

func (l *Logger) WithWorkload(workload string) *Logger {
	l.workload = workload
	return l
}

func (l *Logger) WithRoute(route string) *Logger {
	l.route = route
	return l
}

func (l *Logger) WithMinLevel(level LogLevel) *Logger {
	l.minLevel = level
	return l
}

func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.format = format
	return l
}

func (l *Logger) RequestID() string { return l.requestID }

// ElapsedUS returns the microseconds since the logger was created.
func (l *Logger) ElapsedUS() int64 {
	return time.Since(l.start).Microseconds()
}

func (l *Logger) Trace(message string) { l.log(LevelTrace, message, nil) }
func (l *Logger) Debug(message string) { l.log(LevelDebug, message, nil) }
func (l *Logger) Info(message string)  { l.log(LevelInfo, message, nil) }
func (l *Logger) Warn(message string)  { l.log(LevelWarn, message, nil) }
func (l *Logger) Error(message string) { l.log(LevelError, message, nil) }

// LogWithFields emits message at level with the given extra fields.
func (l *Logger) LogWithFields(level LogLevel, message string, fields map[string]interface{}) {
	l.log(level, message, fields)
}

func (l *Logger) log(level LogLevel, message string, fields map[string]interface{}) {
	if level < l.minLevel {
		return
	}

	entry := LogEntry{
		Level:     level,
		Message:   message,
		RequestID: l.requestID,
		Workload:  l.workload,
		Route:     l.route,
		Fields:    fields,
		ElapsedUS: time.Since(l.start).Microseconds(),
	}

	var output string
	switch l.format {
	case FormatHuman:
		output = entry.ToHuman()
	default:
		output = entry.ToJSON()
	}
	log.Print(output)
}

// Builder assembles a log entry with fields fluently before emitting
// it in one call.
type Builder struct {
	logger  *Logger
	level   LogLevel
	message string
	fields  map[string]interface{}
}

// InfoBuilder starts a fluent Info-level entry.
func (l *Logger) InfoBuilder(message string) *Builder {
	return &Builder{logger: l, level: LevelInfo, message: message, fields: make(map[string]interface{})}
}

// WarnBuilder starts a fluent Warn-level entry.
func (l *Logger) WarnBuilder(message string) *Builder {
	return &Builder{logger: l, level: LevelWarn, message: message, fields: make(map[string]interface{})}
}

// ErrorBuilder starts a fluent Error-level entry.
func (l *Logger) ErrorBuilder(message string) *Builder {
	return &Builder{logger: l, level: LevelError, message: message, fields: make(map[string]interface{})}
}

// DebugBuilder starts a fluent Debug-level entry.
func (l *Logger) DebugBuilder(message string) *Builder {
	return &Builder{logger: l, level: LevelDebug, message: message, fields: make(map[string]interface{})}
}

func (b *Builder) Field(key string, value interface{}) *Builder {
	b.fields[key] = value
	return b
}

func (b *Builder) DurationMS(key string, d time.Duration) *Builder {
	b.fields[key] = d.Milliseconds()
	return b
}

// Emit logs the assembled entry.
func (b *Builder) Emit() {
	b.logger.log(b.level, b.message, b.fields)
}
