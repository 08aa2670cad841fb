package logging

import (
	"log/slog"
	"os"
)

// New builds the process logger. JSON output keeps log aggregation simple.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
