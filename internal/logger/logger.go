// Package logger sets up structured logging with log/slog for the
// long-running modes. One-shot CLI runs keep their plain console
// output; watch and serve log JSON through this.
package logger

import (
	"log/slog"
	"os"
)

// Init creates a JSON logger for the given service, sets it as the
// slog default and returns it.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)
	slog.SetDefault(logger)

	return logger
}
