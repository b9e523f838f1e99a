package logging

import (
	"log/slog"
	"os"
)

// Logger is the global slog instance for the application. It starts as
// the slog default so early code can log before Init runs.
var Logger = slog.Default()

// Init sets up structured logging to stdout. Level defaults to info and
// can be lowered with LOG_LEVEL=debug.
func Init() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}
