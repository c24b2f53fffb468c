package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Process exit codes returned for each error class
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitNotFound  = 3
	ExitData      = 4
	ExitNoResults = 5
	ExitStorage   = 6
	ExitCancelled = 130
)

// Report is the user-facing description of a failed command
type Report struct {
	Type     ErrorType              `json:"type"`
	Title    string                 `json:"title"`
	Detail   string                 `json:"detail"`
	ExitCode int                    `json:"exit_code"`
	TraceID  string                 `json:"trace_id,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// ErrorType used for errors that carry no AppError
const (
	ErrTypeCancelled ErrorType = "CANCELLED"
	ErrTypeInternal  ErrorType = "INTERNAL"
)

var titles = map[ErrorType]string{
	ErrTypeConfig:         "Invalid configuration",
	ErrTypeNotFound:       "Not found",
	ErrTypeSchema:         "Unexpected data layout",
	ErrTypeParsing:        "Unreadable data",
	ErrTypeEmptyRange:     "Empty cycle range",
	ErrTypeEmptyContainer: "No cycles loaded",
	ErrTypeEmptyResult:    "No results",
	ErrTypeStorage:        "Output failed",
	ErrTypeCancelled:      "Cancelled",
	ErrTypeInternal:       "Command failed",
}

// ErrorHandler turns command errors into reports and exit codes
type ErrorHandler struct {
	logger  *slog.Logger
	asJSON  bool
	traceID func(context.Context) string
}

// NewErrorHandler creates a new error handler. traceID may be nil.
func NewErrorHandler(logger *slog.Logger, asJSON bool, traceID func(context.Context) string) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:  logger.With(slog.String("component", "error_handler")),
		asJSON:  asJSON,
		traceID: traceID,
	}
}

// HandleError logs err, writes its report to w and returns the exit code
func (h *ErrorHandler) HandleError(ctx context.Context, w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}

	report := h.ErrorToReport(ctx, err)
	h.logger.ErrorContext(ctx, "command failed",
		slog.String("error", err.Error()),
		slog.String("type", string(report.Type)),
		slog.Int("exit_code", report.ExitCode))

	if h.asJSON {
		data, merr := json.MarshalIndent(report, "", "  ")
		if merr == nil {
			fmt.Fprintln(w, string(data))
			return report.ExitCode
		}
	}
	fmt.Fprint(w, report.String())
	return report.ExitCode
}

// ErrorToReport classifies err
func (h *ErrorHandler) ErrorToReport(ctx context.Context, err error) *Report {
	report := &Report{Detail: err.Error()}
	if h.traceID != nil {
		report.TraceID = h.traceID(ctx)
	}

	var appErr *AppError
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		report.Type = ErrTypeCancelled
	case errors.As(err, &appErr):
		report.Type = appErr.Type
		report.Detail = appErr.Message
		if len(appErr.Context) > 0 {
			report.Context = appErr.Context
		}
	default:
		report.Type = ErrTypeInternal
	}

	report.Title = titles[report.Type]
	if report.Title == "" {
		report.Title = titles[ErrTypeInternal]
	}
	report.ExitCode = ExitCodeOf(report.Type)
	return report
}

// ExitCodeOf maps an error type to a process exit code
func ExitCodeOf(t ErrorType) int {
	switch t {
	case ErrTypeConfig:
		return ExitConfig
	case ErrTypeNotFound:
		return ExitNotFound
	case ErrTypeSchema, ErrTypeParsing:
		return ExitData
	case ErrTypeEmptyRange, ErrTypeEmptyContainer, ErrTypeEmptyResult:
		return ExitNoResults
	case ErrTypeStorage:
		return ExitStorage
	case ErrTypeCancelled:
		return ExitCancelled
	default:
		return ExitFailure
	}
}

// String renders the report for a terminal
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s: %s\n", r.Title, r.Detail)

	keys := make([]string, 0, len(r.Context))
	for k := range r.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %v\n", k, r.Context[k])
	}
	if r.TraceID != "" {
		fmt.Fprintf(&b, "  trace_id: %s\n", r.TraceID)
	}
	return b.String()
}
