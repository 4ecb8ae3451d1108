package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Text output in development,
// JSON everywhere else so log shippers get machine-readable lines.
func New(env string) *slog.Logger {
	if env == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
