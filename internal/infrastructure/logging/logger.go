package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// StructuredLogger escribe una entrada por línea en JSON o texto
type StructuredLogger struct {
	config *LoggerConfig

	mu    sync.Mutex
	out   io.Writer
	level LogLevel
}

// LogEntry es la forma serializada de una entrada
type LogEntry struct {
	Timestamp   string   `json:"timestamp"`
	Level       LogLevel `json:"level"`
	Message     string   `json:"message"`
	RequestID   string   `json:"request_id,omitempty"`
	Service     string   `json:"service"`
	Version     string   `json:"version,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Source      string   `json:"source,omitempty"`
	Fields      Fields   `json:"fields,omitempty"`
}

func NewStructuredLogger(config *LoggerConfig) (*StructuredLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	return &StructuredLogger{
		config: config,
		out:    config.Output,
		level:  config.Level,
	}, nil
}

func (sl *StructuredLogger) enabled(level LogLevel) bool {
	sl.mu.Lock()
	current := sl.level
	sl.mu.Unlock()
	return levelRank[level] >= levelRank[current]
}

func (sl *StructuredLogger) write(ctx context.Context, level LogLevel, message string, fields Fields) {
	if !sl.enabled(level) {
		return
	}

	entry := sl.entry(ctx, level, message, fields)

	var line string
	if sl.config.Format == FormatText {
		line = formatText(entry)
	} else {
		line = formatJSON(entry)
	}

	sl.mu.Lock()
	_, _ = io.WriteString(sl.out, line+"\n")
	sl.mu.Unlock()
}

func (sl *StructuredLogger) entry(ctx context.Context, level LogLevel, message string, fields Fields) *LogEntry {
	entry := &LogEntry{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Level:       level,
		Message:     message,
		RequestID:   GetRequestID(ctx),
		Service:     sl.config.Service,
		Version:     sl.config.Version,
		Environment: sl.config.Environment,
	}

	// Copia para no mutar el map del llamador
	if len(fields) > 0 {
		entry.Fields = make(Fields, len(fields))
		for k, v := range fields {
			if k == FieldDomain {
				entry.Domain, _ = v.(string)
				continue
			}
			entry.Fields[k] = v
		}
	}

	if start := GetStartTime(ctx); !start.IsZero() {
		if entry.Fields == nil {
			entry.Fields = make(Fields)
		}
		if _, ok := entry.Fields[FieldDuration]; !ok {
			entry.Fields[FieldDuration] = durationMs(time.Since(start))
		}
	}

	if len(entry.Fields) == 0 {
		entry.Fields = nil
	}

	if sl.config.AddSource {
		entry.Source = callerName()
	}
	return entry
}

func formatJSON(entry *LogEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"message":%q,"marshal_error":%q}`, entry.Level, entry.Message, err.Error())
	}
	return string(data)
}

func formatText(entry *LogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp)
	b.WriteString(" [")
	b.WriteString(string(entry.Level))
	b.WriteString("]")
	if entry.Domain != "" {
		b.WriteString(" (" + entry.Domain + ")")
	}
	if entry.RequestID != "" {
		b.WriteString(" req=" + entry.RequestID)
	}
	b.WriteString(" " + entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	if entry.Source != "" {
		b.WriteString(" src=" + entry.Source)
	}
	return b.String()
}

// callerName busca el primer frame fuera de este paquete
func callerName() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "/infrastructure/logging.") {
			name := frame.Function
			if idx := strings.LastIndex(name, "/"); idx != -1 {
				name = name[idx+1:]
			}
			return name
		}
		if !more {
			return ""
		}
	}
}

func withError(fields Fields, err error) Fields {
	if err == nil {
		return fields
	}
	out := make(Fields, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldError] = err.Error()
	out[FieldErrorType] = errorType(err)
	return out
}

func (sl *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	sl.write(ctx, LevelDebug, message, fields)
}

func (sl *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	sl.write(ctx, LevelInfo, message, fields)
}

func (sl *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	sl.write(ctx, LevelWarn, message, fields)
}

func (sl *StructuredLogger) Error(ctx context.Context, message string, fields Fields) {
	sl.write(ctx, LevelError, message, fields)
}

func (sl *StructuredLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.write(ctx, LevelInfo, message, withError(fields, err))
}

func (sl *StructuredLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.write(ctx, LevelWarn, message, withError(fields, err))
}

func (sl *StructuredLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.write(ctx, LevelError, message, withError(fields, err))
}

func (sl *StructuredLogger) SetLevel(level LogLevel) {
	if _, ok := levelRank[level]; !ok {
		return
	}
	sl.mu.Lock()
	sl.level = level
	sl.mu.Unlock()
}

func (sl *StructuredLogger) GetLevel() LogLevel {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.level
}
