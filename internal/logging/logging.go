// Package logging configures the process-wide slog logger.
// Output is human-readable text on a TTY and JSON otherwise, overridable
// with LOG_FORMAT (text/json). LOG_LEVEL selects the minimum level.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// ContextKey is the type used for logging values stored in a context.
type ContextKey string

const (
	// ReportIDKey carries the report id through a generation pipeline.
	ReportIDKey ContextKey = "log_report_id"
	// WorkspaceIDKey carries the workspace id of the acting caller.
	WorkspaceIDKey ContextKey = "log_workspace_id"
)

// WithReportID returns a context carrying the report id.
func WithReportID(ctx context.Context, reportID string) context.Context {
	return context.WithValue(ctx, ReportIDKey, reportID)
}

// WithWorkspaceID returns a context carrying the workspace id.
func WithWorkspaceID(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, WorkspaceIDKey, workspaceID)
}

// GetReportID extracts the report id from the context, or "".
func GetReportID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ReportIDKey).(string); ok {
		return v
	}
	return ""
}

// GetWorkspaceID extracts the workspace id from the context, or "".
func GetWorkspaceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(WorkspaceIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns logger enriched with any report/workspace ids
// present in ctx. Returns logger unchanged when ctx carries neither.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if ctx == nil {
		return logger
	}
	if id := GetReportID(ctx); id != "" {
		logger = logger.With("report_id", id)
	}
	if id := GetWorkspaceID(ctx); id != "" {
		logger = logger.With("workspace_id", id)
	}
	return logger
}

// New creates a logger writing to stdout with format and level taken
// from the environment.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout, useTextFormat())
}

// NewWithWriter creates a logger writing to w. Used by tests and by New.
func NewWithWriter(w io.Writer, text bool) *slog.Logger {
	wd, _ := os.Getwd()

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(os.Getenv("LOG_LEVEL")),
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					if rel, err := filepath.Rel(wd, src.File); err == nil {
						src.File = rel
					} else {
						src.File = filepath.Base(src.File)
					}
				}
			}
			return a
		},
	}

	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetDefault creates a logger and installs it as the slog default.
func SetDefault() *slog.Logger {
	logger := New()
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a level string to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func useTextFormat() bool {
	switch os.Getenv("LOG_FORMAT") {
	case "text":
		return true
	case "json":
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}
