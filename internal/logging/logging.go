// Package logging builds the process slog.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Форматы вывода логов
const (
	FormatAuto = "auto" // FormatAuto text в терминале, json иначе
	FormatJSON = "json"
	FormatText = "text"
)

// Options configures New.
type Options struct {
	Level      string
	Format     string
	File       string // File если задан, логи пишутся в файл с ротацией вместо out
	MaxSizeMB  int
	MaxBackups int
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// New builds a logger writing to out, or to a rotated file when opts.File
// is set. The returned closer releases the file and must be called on exit.
func New(opts Options, out *os.File) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = out
		closer io.Closer = nopCloser{}
		format           = opts.Format
	)

	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		w, closer = rotated, rotated
		// в файле автоформат всегда json
		if format == "" || format == FormatAuto {
			format = FormatJSON
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch resolveFormat(format, out) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, handlerOpts)
	case FormatText:
		handler = slog.NewTextHandler(w, handlerOpts)
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	return slog.New(handler), closer, nil
}

func resolveFormat(format string, out *os.File) string {
	if format != "" && format != FormatAuto {
		return format
	}
	if out != nil && term.IsTerminal(int(out.Fd())) {
		return FormatText
	}
	return FormatJSON
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
