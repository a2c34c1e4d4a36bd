package logging

import (
	"log/slog"
	"os"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyHostType  = "host_type"
	KeyReportKey = "report_key"
	KeyCheck     = "check"
	KeyDuration  = "duration"
	KeyError     = "error"
)

// Config controls how the process logger is built.
type Config struct {
	// Debug lowers the level to slog.LevelDebug.
	Debug bool

	// Format selects the handler: "text" or "json" (the default).
	Format string
}

// New builds the process logger per the given Config. Output goes to
// stderr so report JSON on stdout stays machine-readable.
func New(cfg Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// WithHost returns a logger carrying a connector's identity attributes.
func WithHost(logger *slog.Logger, hostType, reportKey string) *slog.Logger {
	return logger.With(
		slog.String(KeyHostType, hostType),
		slog.String(KeyReportKey, reportKey),
	)
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// HostType returns a slog attribute for the backend host type.
func HostType(t string) slog.Attr {
	return slog.String(KeyHostType, t)
}

// ReportKey returns a slog attribute for a connector's report key.
func ReportKey(key string) slog.Attr {
	return slog.String(KeyReportKey, key)
}

// Check returns a slog attribute for a probe check name.
func Check(name string) slog.Attr {
	return slog.String(KeyCheck, name)
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
