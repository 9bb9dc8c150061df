package logging

import (
	"io"
	"log/slog"
	"os"

	console "github.com/phsym/console-slog"
)

// New returns a logger writing to w. Output is colored console text unless
// PRETTY_LOGS is "false".
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	if os.Getenv("PRETTY_LOGS") == "false" {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(console.NewHandler(w, &console.HandlerOptions{Level: level}))
}

// Setup installs a stderr logger as the slog default.
func Setup(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose))
}
