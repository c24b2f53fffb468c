package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"battcli/internal/config"
)

// Log output targets accepted in config.LoggingConfig.Output
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

// Log formats accepted in config.LoggingConfig.Format
const (
	FormatJSON = "json"
	FormatText = "text"
)

// loggerState is the process-wide logger and the file it may own
type loggerState struct {
	once   sync.Once
	mu     sync.Mutex
	logger *slog.Logger
	file   *os.File
}

var logs = &loggerState{}

// InitializeLogger builds the process logger from cfg and installs it as the
// slog default. Only the first call configures anything; later calls return
// the same logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	logs.once.Do(func() {
		var (
			w    io.Writer
			file *os.File
		)
		w, file, err = openSink(cfg)
		if err != nil {
			return
		}
		logs.mu.Lock()
		logs.file = file
		logs.logger = slog.New(newHandler(cfg.Format, cfg.Level, w))
		logs.mu.Unlock()
		slog.SetDefault(logs.logger)
	})
	return GetLogger(), err
}

// NewLogger builds a JSON logger at level writing to w
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(newHandler(FormatJSON, level, w))
}

// GetLogger returns the process logger, or the slog default before
// InitializeLogger has run
func GetLogger() *slog.Logger {
	logs.mu.Lock()
	defer logs.mu.Unlock()
	if logs.logger == nil {
		return slog.Default()
	}
	return logs.logger
}

func newHandler(format, level string, w io.Writer) slog.Handler {
	lvl := parseLogLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}

	var h slog.Handler
	if strings.EqualFold(format, FormatText) {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &traceHandler{Handler: h}
}

// openSink returns the writer for cfg.Output and the log file backing it,
// if any. Console output goes to stderr so stdout stays free for reports.
func openSink(cfg config.LoggingConfig) (io.Writer, *os.File, error) {
	output := strings.ToLower(cfg.Output)
	if output != OutputFile && output != OutputBoth {
		return os.Stderr, nil, nil
	}

	file, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, nil, err
	}
	if output == OutputBoth {
		return io.MultiWriter(os.Stderr, file), file, nil
	}
	return file, file, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	logs.mu.Lock()
	defer logs.mu.Unlock()
	if logs.file == nil {
		return nil
	}
	err := logs.file.Close()
	logs.file = nil
	return err
}

// ResetLoggerForTesting forgets the process logger so tests can initialize
// it again
func ResetLoggerForTesting() {
	CloseLogFile()
	logs.mu.Lock()
	logs.logger = nil
	logs.once = sync.Once{}
	logs.mu.Unlock()
}

// traceHandler stamps each record with the run trace id and, inside a
// span, the OpenTelemetry trace and span ids
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("otel_trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
