// Package logging builds the CLI logger: a terminal handler plus an optional
// JSON file copy, fanned out with slog-multi.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/vango-dev/weave/internal/config"
)

// Logger is a configured logger and the level it filters at.
type Logger struct {
	*slog.Logger

	// Level can be changed after construction, e.g. by a --verbose flag.
	Level *slog.LevelVar

	file *os.File
}

// New builds a logger writing cfg.Format records to w and, when cfg.File is
// set, JSON records to that file.
func New(cfg config.LogConfig, w io.Writer) (*Logger, error) {
	c := config.Config{Log: cfg}
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if cfg.Format == "json" {
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	}

	l := &Logger{Level: level}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		l.file = f
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}

	l.Logger = slog.New(slogmulti.Fanout(handlers...))
	return l, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
